package service

import (
	"context"
	"sync"
	"time"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/internal/repository"
)

// ---------- Mocks ----------

// memBookingRepo is an in-memory BookingRepository. Capacity per date comes
// from the explicit capacity map, falling back to the submission's default
// daily quota, mirroring what the Postgres implementation derives live.
type memBookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
	capacity map[string]int // date key -> max, optional override

	createErr error
	expireErr error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		nextID:   1,
		bookings: make(map[int64]*domain.Booking),
		capacity: make(map[string]int),
	}
}

func (m *memBookingRepo) capacityFor(key string, settings domain.Settings) int {
	if c, ok := m.capacity[key]; ok {
		return c
	}
	return settings.DefaultDailyQuota
}

func (m *memBookingRepo) activeCount(key string) int {
	n := 0
	for _, b := range m.bookings {
		if domain.DateKey(b.Date) == key && b.Status.IsActive() {
			n++
		}
	}
	return n
}

func (m *memBookingRepo) CreateBatch(_ context.Context, params repository.CreateBatchParams) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	for _, d := range params.Dates {
		key := domain.DateKey(d)
		if m.activeCount(key) >= m.capacityFor(key, params.Settings) {
			return nil, domain.RejectDate(domain.RejectOutOfQuota, key)
		}
	}

	now := time.Now()
	created := make([]domain.Booking, 0, len(params.Dates))
	for i, d := range params.Dates {
		tok := params.Tokens[i]
		exp := params.TokenExpiresAt
		b := &domain.Booking{
			ID:             m.nextID,
			Date:           d,
			TimeSlotID:     params.TimeSlotID,
			Name:           params.Name,
			Email:          params.Email,
			Phone:          params.Phone,
			FormData:       params.FormData,
			Status:         domain.BookingPending,
			ConfirmToken:   &tok,
			TokenExpiresAt: &exp,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		m.nextID++
		m.bookings[b.ID] = b
		created = append(created, *b)
	}
	return created, nil
}

func (m *memBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (m *memBookingRepo) List(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Booking, 0)
	for _, b := range m.bookings {
		if filter.Email != "" && b.Email != filter.Email {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *memBookingRepo) ConfirmByToken(_ context.Context, token string, now time.Time) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.Status != domain.BookingPending || b.ConfirmToken == nil || *b.ConfirmToken != token {
			continue
		}
		if !b.TokenExpiresAt.After(now) {
			return nil, nil
		}
		b.Status = domain.BookingConfirmed
		confirmedAt := now
		b.ConfirmedAt = &confirmedAt
		b.UpdatedAt = now
		copied := *b
		return &copied, nil
	}
	return nil, nil
}

func (m *memBookingRepo) Cancel(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || !b.Status.IsActive() {
		return nil, nil
	}
	b.Status = domain.BookingCancelled
	b.UpdatedAt = time.Now()
	copied := *b
	return &copied, nil
}

func (m *memBookingRepo) ExpirePending(_ context.Context, now time.Time) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expireErr != nil {
		return nil, m.expireErr
	}
	expired := make([]domain.Booking, 0)
	for _, b := range m.bookings {
		if b.Status == domain.BookingPending && b.TokenExpiresAt != nil && !b.TokenExpiresAt.After(now) {
			b.Status = domain.BookingExpired
			b.UpdatedAt = now
			expired = append(expired, *b)
		}
	}
	return expired, nil
}

func (m *memBookingRepo) CountActive(_ context.Context, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCount(domain.DateKey(date)), nil
}

func (m *memBookingRepo) CountActiveSlot(_ context.Context, date time.Time, slotID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if domain.DateKey(b.Date) == domain.DateKey(date) && b.Status.IsActive() &&
			b.TimeSlotID != nil && *b.TimeSlotID == slotID {
			n++
		}
	}
	return n, nil
}

func (m *memBookingRepo) CountActiveRange(_ context.Context, from, to time.Time) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, b := range m.bookings {
		if b.Status.IsActive() && !b.Date.Before(from) && !b.Date.After(to) {
			counts[domain.DateKey(b.Date)]++
		}
	}
	return counts, nil
}

func (m *memBookingRepo) SlotCountsInRange(_ context.Context, from, to time.Time) (map[string]map[int64]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]map[int64]int)
	for _, b := range m.bookings {
		if b.Status.IsActive() && b.TimeSlotID != nil && !b.Date.Before(from) && !b.Date.After(to) {
			key := domain.DateKey(b.Date)
			if counts[key] == nil {
				counts[key] = make(map[int64]int)
			}
			counts[key][*b.TimeSlotID]++
		}
	}
	return counts, nil
}

type memCalendarRepo struct {
	restrictions map[string]domain.DateRestriction
	special      map[string]domain.SpecialAvailability
	quotas       map[string]domain.Quota
}

func newMemCalendarRepo() *memCalendarRepo {
	return &memCalendarRepo{
		restrictions: make(map[string]domain.DateRestriction),
		special:      make(map[string]domain.SpecialAvailability),
		quotas:       make(map[string]domain.Quota),
	}
}

func (m *memCalendarRepo) RestrictionsInRange(_ context.Context, _, _ time.Time) (map[string]domain.DateRestriction, error) {
	return m.restrictions, nil
}

func (m *memCalendarRepo) SpecialInRange(_ context.Context, _, _ time.Time) (map[string]domain.SpecialAvailability, error) {
	return m.special, nil
}

func (m *memCalendarRepo) QuotasInRange(_ context.Context, _, _ time.Time) (map[string]domain.Quota, error) {
	return m.quotas, nil
}

func (m *memCalendarRepo) ListRestrictions(_ context.Context) ([]domain.DateRestriction, error) {
	out := make([]domain.DateRestriction, 0, len(m.restrictions))
	for _, v := range m.restrictions {
		out = append(out, v)
	}
	return out, nil
}

func (m *memCalendarRepo) UpsertRestriction(_ context.Context, date time.Time, rt domain.RestrictionType, reason string) (*domain.DateRestriction, error) {
	r := domain.DateRestriction{ID: int64(len(m.restrictions) + 1), Date: date, RestrictionType: rt, Reason: reason}
	m.restrictions[domain.DateKey(date)] = r
	return &r, nil
}

func (m *memCalendarRepo) DeleteRestriction(_ context.Context, date time.Time) (bool, error) {
	key := domain.DateKey(date)
	_, ok := m.restrictions[key]
	delete(m.restrictions, key)
	return ok, nil
}

func (m *memCalendarRepo) ListSpecial(_ context.Context) ([]domain.SpecialAvailability, error) {
	out := make([]domain.SpecialAvailability, 0, len(m.special))
	for _, v := range m.special {
		out = append(out, v)
	}
	return out, nil
}

func (m *memCalendarRepo) UpsertSpecial(_ context.Context, date time.Time, available bool, reason string, maxBookings *int) (*domain.SpecialAvailability, error) {
	s := domain.SpecialAvailability{ID: int64(len(m.special) + 1), Date: date, IsAvailable: available, Reason: reason, MaxBookings: maxBookings}
	m.special[domain.DateKey(date)] = s
	return &s, nil
}

func (m *memCalendarRepo) DeleteSpecial(_ context.Context, date time.Time) (bool, error) {
	key := domain.DateKey(date)
	_, ok := m.special[key]
	delete(m.special, key)
	return ok, nil
}

func (m *memCalendarRepo) ListQuotas(_ context.Context) ([]domain.Quota, error) {
	out := make([]domain.Quota, 0, len(m.quotas))
	for _, v := range m.quotas {
		out = append(out, v)
	}
	return out, nil
}

func (m *memCalendarRepo) UpsertQuota(_ context.Context, date time.Time, maxBookings int) (*domain.Quota, error) {
	q := domain.Quota{ID: int64(len(m.quotas) + 1), Date: date, MaxBookings: maxBookings}
	m.quotas[domain.DateKey(date)] = q
	return &q, nil
}

func (m *memCalendarRepo) DeleteQuota(_ context.Context, date time.Time) (bool, error) {
	key := domain.DateKey(date)
	_, ok := m.quotas[key]
	delete(m.quotas, key)
	return ok, nil
}

type memSlotRepo struct {
	slots map[int64]domain.TimeSlot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: make(map[int64]domain.TimeSlot)}
}

func (m *memSlotRepo) List(_ context.Context, activeOnly bool) ([]domain.TimeSlot, error) {
	out := make([]domain.TimeSlot, 0, len(m.slots))
	for _, s := range m.slots {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memSlotRepo) GetByID(_ context.Context, id int64) (*domain.TimeSlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSlotRepo) Create(_ context.Context, startTime, displayName string, maxBookings int) (*domain.TimeSlot, error) {
	s := domain.TimeSlot{ID: int64(len(m.slots) + 1), StartTime: startTime, DisplayName: displayName, IsActive: true, MaxBookings: maxBookings}
	m.slots[s.ID] = s
	return &s, nil
}

func (m *memSlotRepo) Update(_ context.Context, id int64, startTime, displayName string, isActive bool, maxBookings int) (*domain.TimeSlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, nil
	}
	s.StartTime = startTime
	s.DisplayName = displayName
	s.IsActive = isActive
	s.MaxBookings = maxBookings
	m.slots[id] = s
	return &s, nil
}

func (m *memSlotRepo) Deactivate(_ context.Context, id int64) (bool, error) {
	s, ok := m.slots[id]
	if !ok {
		return false, nil
	}
	s.IsActive = false
	m.slots[id] = s
	return true, nil
}

type memSettingsRepo struct {
	settings domain.Settings
}

func (m *memSettingsRepo) Get(_ context.Context) (domain.Settings, error) {
	return m.settings, nil
}

func (m *memSettingsRepo) Update(_ context.Context, s domain.Settings) (domain.Settings, error) {
	m.settings = s
	return s, nil
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.subject)
	}
	return out
}
