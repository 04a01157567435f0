package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/http/response"
	"github.com/diagnosis/clinic-bookings/internal/service"
	"github.com/diagnosis/clinic-bookings/pkg/auth"
	"github.com/diagnosis/clinic-bookings/pkg/config"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

const maxBodyBytes = 1 << 20

type ctxKey string

const claimsKey ctxKey = "claims"

type Handlers struct {
	authService        service.AuthService
	userService        service.UserService
	appointmentService service.AppointmentService
	config             *config.Config
}

func New(
	authService service.AuthService,
	userService service.UserService,
	appointmentService service.AppointmentService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		authService:        authService,
		userService:        userService,
		appointmentService: appointmentService,
		config:             cfg,
	}
}

// RequireJWT rejects requests without a valid bearer token. A non-empty
// requiredRole also rejects other roles, except admin which passes everywhere.
func (h *Handlers) RequireJWT(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					response.WriteError(w, http.StatusUnauthorized, "Token expired", response.CodeExpiredToken)
					return
				}
				response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != domain.RoleAdmin {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalJWT attaches claims when a valid token is present and ignores it otherwise.
func (h *Handlers) OptionalJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := auth.Parse(token, h.config.Auth.JWTSecret); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, logger.UserIDKey, claims.Sub)
	return context.WithValue(ctx, claimsKey, claims)
}

// Helper to get user claims from context
func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// actor converts the request claims into a service caller, nil when anonymous.
func actor(r *http.Request) *domain.Actor {
	claims := getClaims(r)
	if claims == nil {
		return nil
	}
	return &domain.Actor{UserID: claims.Sub, Email: claims.Email, Role: claims.Role}
}

// Helper functions for common response patterns
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// decodeJSON reads a single JSON object and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, "Request body is empty")
			return false
		}
		response.BadRequest(w, "Invalid JSON")
		return false
	}
	return true
}
