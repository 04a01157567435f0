package handlers

import (
	"net/http"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/http/response"
)

// Register handles account creation
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), &req, actor(r))
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domain.RegisterResponse{
		Message: "User registered successfully",
		User:    user.ToUserInfo(),
	})
}

// Login handles user login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Me returns the caller's own profile
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), getClaims(r).Sub)
	if err != nil {
		response.FromError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.ToUserInfo())
}
