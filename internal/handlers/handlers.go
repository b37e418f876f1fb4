package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/internal/service"
	"github.com/quietbay/daybook/pkg/auth"
	"github.com/quietbay/daybook/pkg/config"
)

type contextKey string

const claimsKey contextKey = "claims"

type Handlers struct {
	reservations service.ReservationService
	admin        service.AdminService
	config       *config.Config
	validate     *validator.Validate
}

func New(reservations service.ReservationService, admin service.AdminService, cfg *config.Config) *Handlers {
	return &Handlers{
		reservations: reservations,
		admin:        admin,
		config:       cfg,
		validate:     validator.New(),
	}
}

// RequireAdmin guards the /admin routes with a bearer token.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if claims.Role != "admin" {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeRejection renders a structured rejection when err carries one, and
// falls back to a plain 500 for storage and infrastructure failures.
func writeRejection(w http.ResponseWriter, err error) {
	rej, ok := domain.AsRejection(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, rejectionStatus(rej.Code), map[string]interface{}{"rejection": rej})
}

func rejectionStatus(code domain.RejectionCode) int {
	switch code {
	case domain.RejectNotFound:
		return http.StatusNotFound
	case domain.RejectOutOfQuota:
		return http.StatusConflict
	case domain.RejectDateNotEligible:
		return http.StatusUnprocessableEntity
	case domain.RejectTokenInvalidOrExpired:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
