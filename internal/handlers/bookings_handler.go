package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/internal/service"
)

// SubmitBooking handles a multi-date reservation request.
func (h *Handlers) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	result, err := h.reservations.Submit(r.Context(), req)
	if err != nil {
		writeRejection(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetBooking returns a single booking by ID.
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	booking, err := h.reservations.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve booking")
		return
	}
	if booking == nil {
		writeError(w, http.StatusNotFound, "Booking not found")
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// ConfirmBooking promotes a pending booking via its emailed token.
func (h *Handlers) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	booking, err := h.reservations.Confirm(r.Context(), token)
	if err != nil {
		writeRejection(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// CancelBooking cancels a booking by ID. Open to the booking holder; the
// admin surface uses the same endpoint behind RequireAdmin.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	booking, err := h.reservations.Cancel(r.Context(), id, body.Reason)
	if err != nil {
		writeRejection(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// Calendar returns per-day availability for a date range. Defaults to one
// month starting today.
func (h *Handlers) Calendar(w http.ResponseWriter, r *http.Request) {
	from := domain.Day(time.Now())
	to := from.AddDate(0, 1, 0)

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date")
			return
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date")
			return
		}
		to = t
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "Range end before start")
		return
	}

	days, err := h.reservations.Calendar(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build calendar")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}
