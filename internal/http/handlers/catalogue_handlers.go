package handlers

import (
	"net/http"

	"github.com/diagnosis/clinic-bookings/internal/domain"
)

// ListDoctors returns the public doctor catalogue
func (h *Handlers) ListDoctors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Doctors())
}

func (h *Handlers) ListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Services())
}
