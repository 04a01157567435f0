package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/http/response"
)

// ListUsers handles listing users for admin, without credentials
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	out := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToUserInfo())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), actor(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}
