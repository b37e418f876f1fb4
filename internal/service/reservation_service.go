package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quietbay/daybook/internal/calendar"
	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/internal/forms"
	"github.com/quietbay/daybook/internal/repository"
	"github.com/quietbay/daybook/internal/token"
	"github.com/quietbay/daybook/pkg/config"
	"github.com/quietbay/daybook/pkg/events"
	"github.com/quietbay/daybook/pkg/logger"
)

// SubmitRequest is one booking attempt: one or more dates sharing a single
// time slot and contact payload.
type SubmitRequest struct {
	Dates      []string           `json:"dates"` // YYYY-MM-DD
	TimeSlotID *int64             `json:"time_slot_id,omitempty"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Phone      string             `json:"phone"`
	FormData   domain.FormPayload `json:"form_data,omitempty"`
}

type BookingRef struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
}

type SubmitResult struct {
	Bookings       []BookingRef `json:"bookings"`
	Status         string       `json:"status"`
	TokenExpiresAt time.Time    `json:"token_expires_at"`
}

type DayAvailability struct {
	Date      string                  `json:"date"`
	Eligible  bool                    `json:"eligible"`
	Reason    domain.IneligibleReason `json:"reason,omitempty"`
	Remaining int                     `json:"remaining"`
	Slots     []SlotAvailability      `json:"slots,omitempty"`
}

type SlotAvailability struct {
	TimeSlotID  int64  `json:"time_slot_id"`
	StartTime   string `json:"start_time"`
	DisplayName string `json:"display_name"`
	Remaining   int    `json:"remaining"`
}

type ReservationService interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	Confirm(ctx context.Context, confirmToken string) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64, reason string) (*domain.Booking, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	Calendar(ctx context.Context, from, to time.Time) ([]DayAvailability, error)
}

type reservationService struct {
	bookingRepo  repository.BookingRepository
	calendarRepo repository.CalendarRepository
	slotRepo     repository.TimeSlotRepository
	settingsRepo repository.SettingsRepository
	eventBus     events.Publisher
	config       *config.Config
	now          func() time.Time
}

func NewReservationService(
	bookingRepo repository.BookingRepository,
	calendarRepo repository.CalendarRepository,
	slotRepo repository.TimeSlotRepository,
	settingsRepo repository.SettingsRepository,
	eventBus events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		bookingRepo:  bookingRepo,
		calendarRepo: calendarRepo,
		slotRepo:     slotRepo,
		settingsRepo: settingsRepo,
		eventBus:     eventBus,
		config:       cfg,
		now:          time.Now,
	}
}

func (s *reservationService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if len(req.Dates) == 0 {
		return nil, &domain.Rejection{Code: domain.RejectNoDatesSelected}
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	dates, err := parseDates(req.Dates)
	if err != nil {
		return nil, domain.RejectFields(map[string]string{"dates": "dates must be YYYY-MM-DD"})
	}
	if settings.MaxDaysPerRequest > 0 && len(dates) > settings.MaxDaysPerRequest {
		return nil, &domain.Rejection{Code: domain.RejectTooManyDates}
	}

	payload := mergedPayload(req)
	if fieldErrs := forms.Validate(settings.FormFields, payload); len(fieldErrs) > 0 {
		return nil, domain.RejectFields(fieldErrs)
	}

	slotID := req.TimeSlotID
	if !settings.EnableTimeSlots {
		slotID = nil
	} else {
		if slotID == nil {
			return nil, domain.RejectFields(map[string]string{"time_slot_id": "a time slot is required"})
		}
		slot, err := s.slotRepo.GetByID(ctx, *slotID)
		if err != nil {
			return nil, fmt.Errorf("load time slot: %w", err)
		}
		if slot == nil || !slot.IsActive {
			return nil, &domain.Rejection{Code: domain.RejectNotFound}
		}
	}

	today := domain.Day(s.now())
	from, to := dates[0], dates[len(dates)-1]

	restrictions, err := s.calendarRepo.RestrictionsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load restrictions: %w", err)
	}
	special, err := s.calendarRepo.SpecialInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load special availability: %w", err)
	}

	for _, d := range dates {
		if e := calendar.Evaluate(d, today, settings, restrictions, special); !e.Eligible {
			return nil, domain.RejectIneligible(domain.DateKey(d), e.Reason)
		}
	}

	// Pre-check capacity so obviously full dates reject before the
	// transaction; the authoritative re-check happens inside CreateBatch.
	quotas, err := s.calendarRepo.QuotasInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load quotas: %w", err)
	}
	counts, err := s.bookingRepo.CountActiveRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	for _, d := range dates {
		key := domain.DateKey(d)
		if remainingFor(key, settings, special, quotas, counts) <= 0 {
			return nil, domain.RejectDate(domain.RejectOutOfQuota, key)
		}
		if slotID != nil {
			used, err := s.bookingRepo.CountActiveSlot(ctx, d, *slotID)
			if err != nil {
				return nil, fmt.Errorf("count slot bookings: %w", err)
			}
			slot, err := s.slotRepo.GetByID(ctx, *slotID)
			if err != nil {
				return nil, fmt.Errorf("load time slot: %w", err)
			}
			if slot == nil || slot.MaxBookings-used <= 0 {
				return nil, domain.RejectDate(domain.RejectOutOfQuota, key)
			}
		}
	}

	tokens := make([]string, len(dates))
	for i := range tokens {
		tokens[i], err = token.New()
		if err != nil {
			return nil, fmt.Errorf("generate confirmation token: %w", err)
		}
	}

	expiresAt := s.now().Add(s.config.Booking.ConfirmTokenTTL)
	bookings, err := s.bookingRepo.CreateBatch(ctx, repository.CreateBatchParams{
		Dates:          dates,
		TimeSlotID:     slotID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		FormData:       payload,
		Tokens:         tokens,
		TokenExpiresAt: expiresAt,
		Settings:       settings,
	})
	if err != nil {
		return nil, err
	}

	refs := make([]BookingRef, 0, len(bookings))
	for _, b := range bookings {
		refs = append(refs, BookingRef{ID: b.ID, Date: domain.DateKey(b.Date)})

		event := events.BookingCreatedEvent{
			BookingID:      b.ID,
			Date:           domain.DateKey(b.Date),
			TimeSlotID:     b.TimeSlotID,
			Name:           b.Name,
			Email:          b.Email,
			ConfirmToken:   *b.ConfirmToken,
			TokenExpiresAt: *b.TokenExpiresAt,
			CreatedAt:      b.CreatedAt,
		}
		if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", b.ID)
		}
	}

	return &SubmitResult{
		Bookings:       refs,
		Status:         string(domain.BookingPending),
		TokenExpiresAt: expiresAt,
	}, nil
}

func (s *reservationService) Confirm(ctx context.Context, confirmToken string) (*domain.Booking, error) {
	if confirmToken == "" {
		return nil, &domain.Rejection{Code: domain.RejectTokenInvalidOrExpired}
	}

	b, err := s.bookingRepo.ConfirmByToken(ctx, confirmToken, s.now())
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}
	if b == nil {
		// Unknown, expired, and already-used tokens are indistinguishable.
		return nil, &domain.Rejection{Code: domain.RejectTokenInvalidOrExpired}
	}

	event := events.BookingConfirmedEvent{
		BookingID:   b.ID,
		Date:        domain.DateKey(b.Date),
		Name:        b.Name,
		Email:       b.Email,
		ConfirmedAt: *b.ConfirmedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingConfirmed, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking confirmed event", "error", err, "booking_id", b.ID)
	}

	return b, nil
}

func (s *reservationService) Cancel(ctx context.Context, id int64, reason string) (*domain.Booking, error) {
	b, err := s.bookingRepo.Cancel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if b == nil {
		return nil, &domain.Rejection{Code: domain.RejectNotFound}
	}

	event := events.BookingCancelledEvent{
		BookingID:   b.ID,
		Date:        domain.DateKey(b.Date),
		Email:       b.Email,
		Reason:      reason,
		CancelledAt: b.UpdatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking cancelled event", "error", err, "booking_id", b.ID)
	}

	return b, nil
}

func (s *reservationService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *reservationService) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	return s.bookingRepo.List(ctx, filter)
}

func (s *reservationService) Calendar(ctx context.Context, from, to time.Time) ([]DayAvailability, error) {
	from, to = domain.Day(from), domain.Day(to)
	if to.Before(from) {
		return nil, domain.RejectFields(map[string]string{"to": "end date before start date"})
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	restrictions, err := s.calendarRepo.RestrictionsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load restrictions: %w", err)
	}
	special, err := s.calendarRepo.SpecialInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load special availability: %w", err)
	}
	quotas, err := s.calendarRepo.QuotasInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load quotas: %w", err)
	}
	counts, err := s.bookingRepo.CountActiveRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	var slots []domain.TimeSlot
	var slotCounts map[string]map[int64]int
	if settings.EnableTimeSlots {
		slots, err = s.slotRepo.List(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("load time slots: %w", err)
		}
		slotCounts, err = s.bookingRepo.SlotCountsInRange(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("count slot bookings: %w", err)
		}
	}

	today := domain.Day(s.now())
	eligibility := calendar.EvaluateRange(from, to, today, settings, restrictions, special)

	days := make([]DayAvailability, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := domain.DateKey(d)
		e := eligibility[key]
		day := DayAvailability{
			Date:      key,
			Eligible:  e.Eligible,
			Reason:    e.Reason,
			Remaining: remainingFor(key, settings, special, quotas, counts),
		}
		if settings.EnableTimeSlots && e.Eligible {
			for _, slot := range slots {
				used := 0
				if perSlot, ok := slotCounts[key]; ok {
					used = perSlot[slot.ID]
				}
				remaining := slot.MaxBookings - used
				if remaining < 0 {
					remaining = 0
				}
				day.Slots = append(day.Slots, SlotAvailability{
					TimeSlotID:  slot.ID,
					StartTime:   slot.StartTime,
					DisplayName: slot.DisplayName,
					Remaining:   remaining,
				})
			}
		}
		days = append(days, day)
	}
	return days, nil
}

func remainingFor(
	key string,
	settings domain.Settings,
	special map[string]domain.SpecialAvailability,
	quotas map[string]domain.Quota,
	counts map[string]int,
) int {
	var sp *domain.SpecialAvailability
	if v, ok := special[key]; ok {
		sp = &v
	}
	var q *domain.Quota
	if v, ok := quotas[key]; ok {
		q = &v
	}
	remaining := domain.ResolveCapacity(sp, q, settings) - counts[key]
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func parseDates(raw []string) ([]time.Time, error) {
	seen := make(map[string]bool)
	dates := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		t, err := time.Parse(time.DateOnly, r)
		if err != nil {
			return nil, err
		}
		key := domain.DateKey(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, domain.Day(t))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// mergedPayload layers the explicit contact fields over the free-form
// payload so the schema validates them all in one place.
func mergedPayload(req SubmitRequest) domain.FormPayload {
	payload := make(domain.FormPayload, len(req.FormData)+3)
	for k, v := range req.FormData {
		payload[k] = v
	}
	payload["name"] = req.Name
	payload["email"] = req.Email
	payload["phone"] = req.Phone
	return payload
}
