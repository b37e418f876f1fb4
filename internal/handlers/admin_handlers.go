package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/pkg/auth"
	"github.com/quietbay/daybook/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Login exchanges the admin credentials for a bearer token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(h.config.Auth.AdminEmail)) == 1
	passOK, err := argon2id.ComparePasswordAndHash(req.Password, h.config.Auth.AdminPassHash)
	if err != nil || !emailOK || !passOK {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.NewAccessToken(req.Email, "admin", h.config.Auth.JWTSecret, h.config.Auth.AccessTokenTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to sign access token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"expires_in":   int(h.config.Auth.AccessTokenTTL.Seconds()),
	})
}

// ListBookings handles the admin booking list with optional filters.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	filter := domain.BookingFilter{
		Email:  r.URL.Query().Get("email"),
		Limit:  limit,
		Offset: offset,
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseBookingStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid status parameter")
			return
		}
		filter.Status = &st
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date")
			return
		}
		filter.From = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date")
			return
		}
		filter.To = &t
	}

	bookings, err := h.reservations.ListBookings(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve bookings")
		return
	}

	writeJSON(w, http.StatusOK, bookings)
}

// --- Settings ---

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.admin.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	updated, err := h.admin.UpdateSettings(r.Context(), in)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- Date restrictions ---

type restrictionRequest struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	RestrictionType string `json:"restriction_type" validate:"required,oneof=holiday custom"`
	Reason          string `json:"reason" validate:"max=255"`
}

func (h *Handlers) ListRestrictions(w http.ResponseWriter, r *http.Request) {
	items, err := h.admin.ListRestrictions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve restrictions")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) PutRestriction(w http.ResponseWriter, r *http.Request) {
	var req restrictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid restriction payload")
		return
	}

	rt, _ := domain.ParseRestrictionType(req.RestrictionType)
	item, err := h.admin.PutRestriction(r.Context(), req.Date, rt, req.Reason)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) RemoveRestriction(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.RemoveRestriction(r.Context(), chi.URLParam(r, "date")); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Special availability ---

type specialRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason" validate:"max=255"`
	MaxBookings *int   `json:"max_bookings" validate:"omitempty,min=0"`
}

func (h *Handlers) ListSpecial(w http.ResponseWriter, r *http.Request) {
	items, err := h.admin.ListSpecial(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve special availability")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) PutSpecial(w http.ResponseWriter, r *http.Request) {
	var req specialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid special availability payload")
		return
	}

	item, err := h.admin.PutSpecial(r.Context(), req.Date, req.IsAvailable, req.Reason, req.MaxBookings)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) RemoveSpecial(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.RemoveSpecial(r.Context(), chi.URLParam(r, "date")); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Quotas ---

type quotaRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	MaxBookings int    `json:"max_bookings" validate:"min=0"`
}

func (h *Handlers) ListQuotas(w http.ResponseWriter, r *http.Request) {
	items, err := h.admin.ListQuotas(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve quotas")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) PutQuota(w http.ResponseWriter, r *http.Request) {
	var req quotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quota payload")
		return
	}

	item, err := h.admin.PutQuota(r.Context(), req.Date, req.MaxBookings)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) RemoveQuota(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.RemoveQuota(r.Context(), chi.URLParam(r, "date")); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Time slots ---

type slotRequest struct {
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	IsActive    *bool  `json:"is_active"`
	MaxBookings int    `json:"max_bookings" validate:"min=1"`
}

func (h *Handlers) ListSlots(w http.ResponseWriter, r *http.Request) {
	items, err := h.admin.ListSlots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve time slots")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time slot payload")
		return
	}

	item, err := h.admin.CreateSlot(r.Context(), req.StartTime, req.DisplayName, req.MaxBookings)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handlers) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid slot ID")
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time slot payload")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	item, err := h.admin.UpdateSlot(r.Context(), id, req.StartTime, req.DisplayName, active, req.MaxBookings)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) DeactivateSlot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid slot ID")
		return
	}

	if err := h.admin.DeactivateSlot(r.Context(), id); err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
