package service

import (
	"context"
	"time"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/internal/repository"
	"github.com/quietbay/daybook/pkg/events"
	"github.com/quietbay/daybook/pkg/logger"
)

// Reaper expires stale pending bookings so their reserved capacity returns
// to the pool. Sweeps are idempotent: rows already expired, confirmed, or
// cancelled are excluded by the status filter.
type Reaper struct {
	bookingRepo repository.BookingRepository
	eventBus    events.Publisher
	interval    time.Duration
	now         func() time.Time
}

func NewReaper(bookingRepo repository.BookingRepository, eventBus events.Publisher, interval time.Duration) *Reaper {
	return &Reaper{
		bookingRepo: bookingRepo,
		eventBus:    eventBus,
		interval:    interval,
		now:         time.Now,
	}
}

// Sweep expires every pending booking whose token lapsed before now and
// returns how many were reaped. Event publish failures are counted but do
// not abort the sweep.
func (r *Reaper) Sweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := r.bookingRepo.ExpirePending(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	publishFailures := 0
	for _, b := range expired {
		event := events.BookingExpiredEvent{
			BookingID: b.ID,
			Date:      domain.DateKey(b.Date),
			Email:     b.Email,
			ExpiredAt: b.UpdatedAt,
		}
		if err := r.eventBus.Publish(ctx, events.BookingExpired, event); err != nil {
			publishFailures++
			logger.ErrorContext(ctx, "Failed to publish booking expired event", "error", err, "booking_id", b.ID)
		}
	}

	logger.InfoContext(ctx, "Expiry sweep completed",
		"reaped", len(expired),
		"publish_failures", publishFailures,
	)
	return len(expired), nil
}

// Run sweeps on the configured interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Sweep(ctx, r.now()); err != nil {
				logger.ErrorContext(ctx, "Expiry sweep failed", "error", err)
			}
		}
	}
}
