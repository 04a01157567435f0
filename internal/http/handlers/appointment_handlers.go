package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/http/response"
)

// CreateAppointment books a slot for the caller
func (h *Handlers) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appt, err := h.appointmentService.Create(r.Context(), actor(r), &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// ListAppointments handles listing all appointments for admin
func (h *Handlers) ListAppointments(w http.ResponseWriter, r *http.Request) {
	var filter domain.AppointmentFilter

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		st, ok := domain.ParseAppointmentStatus(statusParam)
		if !ok {
			response.BadRequest(w, "Invalid status parameter")
			return
		}
		filter.Status = st
	}
	filter.Doctor = strings.TrimSpace(r.URL.Query().Get("doctor"))

	list, err := h.appointmentService.ListAll(r.Context(), filter)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// ListUserAppointments lists one owner's appointments
func (h *Handlers) ListUserAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.appointmentService.ListByUser(r.Context(), actor(r), chi.URLParam(r, "userId"))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointmentService.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, appt)
}

// UpdateAppointment applies a status change and/or diagnosis and notes
func (h *Handlers) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appt, err := h.appointmentService.Update(r.Context(), actor(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, appt)
}

func (h *Handlers) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.appointmentService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Appointment deleted"})
}
