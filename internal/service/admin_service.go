package service

import (
	"context"
	"fmt"
	"time"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/internal/repository"
)

// AdminService fronts the administrative surface: CRUD on the override
// tables, time slots, and the engine settings. The engine reads these
// tables fresh on every request, so writes here take effect immediately.
type AdminService interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	UpdateSettings(ctx context.Context, s domain.Settings) (domain.Settings, error)

	ListRestrictions(ctx context.Context) ([]domain.DateRestriction, error)
	PutRestriction(ctx context.Context, date string, rt domain.RestrictionType, reason string) (*domain.DateRestriction, error)
	RemoveRestriction(ctx context.Context, date string) error

	ListSpecial(ctx context.Context) ([]domain.SpecialAvailability, error)
	PutSpecial(ctx context.Context, date string, available bool, reason string, maxBookings *int) (*domain.SpecialAvailability, error)
	RemoveSpecial(ctx context.Context, date string) error

	ListQuotas(ctx context.Context) ([]domain.Quota, error)
	PutQuota(ctx context.Context, date string, maxBookings int) (*domain.Quota, error)
	RemoveQuota(ctx context.Context, date string) error

	ListSlots(ctx context.Context) ([]domain.TimeSlot, error)
	CreateSlot(ctx context.Context, startTime, displayName string, maxBookings int) (*domain.TimeSlot, error)
	UpdateSlot(ctx context.Context, id int64, startTime, displayName string, isActive bool, maxBookings int) (*domain.TimeSlot, error)
	DeactivateSlot(ctx context.Context, id int64) error
}

type adminService struct {
	calendarRepo repository.CalendarRepository
	slotRepo     repository.TimeSlotRepository
	settingsRepo repository.SettingsRepository
}

func NewAdminService(
	calendarRepo repository.CalendarRepository,
	slotRepo repository.TimeSlotRepository,
	settingsRepo repository.SettingsRepository,
) AdminService {
	return &adminService{
		calendarRepo: calendarRepo,
		slotRepo:     slotRepo,
		settingsRepo: settingsRepo,
	}
}

func (s *adminService) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.settingsRepo.Get(ctx)
}

func (s *adminService) UpdateSettings(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	if errs := validateSettings(in); len(errs) > 0 {
		return domain.Settings{}, domain.RejectFields(errs)
	}
	return s.settingsRepo.Update(ctx, in)
}

func validateSettings(s domain.Settings) map[string]string {
	errs := make(map[string]string)
	if s.DisplayMonths < 1 || s.DisplayMonths > 24 {
		errs["display_months"] = "must be between 1 and 24"
	}
	if s.MaxDaysPerRequest < 1 {
		errs["max_days_per_request"] = "must be at least 1"
	}
	if s.DefaultDailyQuota < 0 {
		errs["default_daily_quota"] = "must not be negative"
	}
	if s.MaxFutureDays < 0 {
		errs["max_future_days"] = "must not be negative"
	}
	if len(s.AllowedWeekdays) == 0 {
		errs["allowed_weekdays"] = "at least one weekday is required"
	}
	for _, w := range s.AllowedWeekdays {
		if w < 0 || w > 6 {
			errs["allowed_weekdays"] = "weekdays must be 0 through 6"
			break
		}
	}
	for i, f := range s.FormFields {
		if f.Name == "" {
			errs["form_fields"] = fmt.Sprintf("field %d has no name", i)
			break
		}
		if _, ok := domain.ParseFieldKind(string(f.Kind)); !ok {
			errs["form_fields"] = fmt.Sprintf("field %q has unknown kind %q", f.Name, f.Kind)
			break
		}
	}
	return errs
}

func (s *adminService) ListRestrictions(ctx context.Context) ([]domain.DateRestriction, error) {
	return s.calendarRepo.ListRestrictions(ctx)
}

func (s *adminService) PutRestriction(ctx context.Context, date string, rt domain.RestrictionType, reason string) (*domain.DateRestriction, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.ParseRestrictionType(string(rt)); !ok {
		return nil, domain.RejectFields(map[string]string{"restriction_type": "must be holiday or custom"})
	}
	return s.calendarRepo.UpsertRestriction(ctx, d, rt, reason)
}

func (s *adminService) RemoveRestriction(ctx context.Context, date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	return deleted(s.calendarRepo.DeleteRestriction(ctx, d))
}

func (s *adminService) ListSpecial(ctx context.Context) ([]domain.SpecialAvailability, error) {
	return s.calendarRepo.ListSpecial(ctx)
}

func (s *adminService) PutSpecial(ctx context.Context, date string, available bool, reason string, maxBookings *int) (*domain.SpecialAvailability, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if maxBookings != nil && *maxBookings < 0 {
		return nil, domain.RejectFields(map[string]string{"max_bookings": "must not be negative"})
	}
	return s.calendarRepo.UpsertSpecial(ctx, d, available, reason, maxBookings)
}

func (s *adminService) RemoveSpecial(ctx context.Context, date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	return deleted(s.calendarRepo.DeleteSpecial(ctx, d))
}

func (s *adminService) ListQuotas(ctx context.Context) ([]domain.Quota, error) {
	return s.calendarRepo.ListQuotas(ctx)
}

func (s *adminService) PutQuota(ctx context.Context, date string, maxBookings int) (*domain.Quota, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if maxBookings < 0 {
		return nil, domain.RejectFields(map[string]string{"max_bookings": "must not be negative"})
	}
	return s.calendarRepo.UpsertQuota(ctx, d, maxBookings)
}

func (s *adminService) RemoveQuota(ctx context.Context, date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	return deleted(s.calendarRepo.DeleteQuota(ctx, d))
}

func (s *adminService) ListSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	return s.slotRepo.List(ctx, false)
}

func (s *adminService) CreateSlot(ctx context.Context, startTime, displayName string, maxBookings int) (*domain.TimeSlot, error) {
	if err := validateSlotInput(startTime, displayName, maxBookings); err != nil {
		return nil, err
	}
	return s.slotRepo.Create(ctx, startTime, displayName, maxBookings)
}

func (s *adminService) UpdateSlot(ctx context.Context, id int64, startTime, displayName string, isActive bool, maxBookings int) (*domain.TimeSlot, error) {
	if err := validateSlotInput(startTime, displayName, maxBookings); err != nil {
		return nil, err
	}
	slot, err := s.slotRepo.Update(ctx, id, startTime, displayName, isActive, maxBookings)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, &domain.Rejection{Code: domain.RejectNotFound}
	}
	return slot, nil
}

func (s *adminService) DeactivateSlot(ctx context.Context, id int64) error {
	return deleted(s.slotRepo.Deactivate(ctx, id))
}

func validateSlotInput(startTime, displayName string, maxBookings int) error {
	errs := make(map[string]string)
	if _, err := time.Parse("15:04", startTime); err != nil {
		errs["start_time"] = "must be HH:MM"
	}
	if displayName == "" {
		errs["display_name"] = "is required"
	}
	if maxBookings < 0 {
		errs["max_bookings"] = "must not be negative"
	}
	if len(errs) > 0 {
		return domain.RejectFields(errs)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, domain.RejectFields(map[string]string{"date": "must be YYYY-MM-DD"})
	}
	return domain.Day(d), nil
}

func deleted(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return &domain.Rejection{Code: domain.RejectNotFound}
	}
	return nil
}
