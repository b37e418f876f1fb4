package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/pkg/events"
)

func TestSweepExpiresLapsedPending(t *testing.T) {
	f := newTestFixture()

	result, err := f.svc.Submit(context.Background(), validRequest("2025-06-03", "2025-06-04"))
	require.NoError(t, err)

	reaper := NewReaper(f.bookings, f.bus, time.Hour)

	// Before the tokens lapse nothing is touched.
	n, err := reaper.Sweep(context.Background(), testNow.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = reaper.Sweep(context.Background(), testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, ref := range result.Bookings {
		b, err := f.bookings.GetByID(context.Background(), ref.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingExpired, b.Status)
	}

	expiredEvents := 0
	for _, subj := range f.bus.subjects() {
		if subj == events.BookingExpired {
			expiredEvents++
		}
	}
	assert.Equal(t, 2, expiredEvents)
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newTestFixture()

	_, err := f.svc.Submit(context.Background(), validRequest("2025-06-03"))
	require.NoError(t, err)

	reaper := NewReaper(f.bookings, f.bus, time.Hour)

	n, err := reaper.Sweep(context.Background(), testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = reaper.Sweep(context.Background(), testNow.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweepSkipsConfirmedBookings(t *testing.T) {
	f := newTestFixture()

	result, err := f.svc.Submit(context.Background(), validRequest("2025-06-03"))
	require.NoError(t, err)
	stored, err := f.bookings.GetByID(context.Background(), result.Bookings[0].ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), *stored.ConfirmToken)
	require.NoError(t, err)

	reaper := NewReaper(f.bookings, f.bus, time.Hour)
	n, err := reaper.Sweep(context.Background(), testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	b, err := f.bookings.GetByID(context.Background(), result.Bookings[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
}

func TestSweepReleasesCapacity(t *testing.T) {
	f := newTestFixture()
	f.bookings.capacity["2025-06-03"] = 1
	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	f.cal.quotas["2025-06-03"] = domain.Quota{Date: day, MaxBookings: 1}

	_, err := f.svc.Submit(context.Background(), validRequest("2025-06-03"))
	require.NoError(t, err)

	// Date is full while the pending booking holds its reservation.
	_, err = f.svc.Submit(context.Background(), validRequest("2025-06-03"))
	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.RejectOutOfQuota, rej.Code)

	reaper := NewReaper(f.bookings, f.bus, time.Hour)
	n, err := reaper.Sweep(context.Background(), testNow.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = f.svc.Submit(context.Background(), validRequest("2025-06-03"))
	assert.NoError(t, err)
}

func TestSweepPropagatesStorageErrors(t *testing.T) {
	f := newTestFixture()
	f.bookings.expireErr = assert.AnError

	reaper := NewReaper(f.bookings, f.bus, time.Hour)
	_, err := reaper.Sweep(context.Background(), testNow)
	assert.Error(t, err)
}

func TestSweepContinuesPastPublishFailures(t *testing.T) {
	f := newTestFixture()

	_, err := f.svc.Submit(context.Background(), validRequest("2025-06-03", "2025-06-04"))
	require.NoError(t, err)

	f.bus.err = assert.AnError
	reaper := NewReaper(f.bookings, f.bus, time.Hour)

	n, err := reaper.Sweep(context.Background(), testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
