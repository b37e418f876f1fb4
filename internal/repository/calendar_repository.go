package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietbay/daybook/internal/domain"
)

// CalendarRepository persists the availability override tables. These are
// mutated by the admin surface, so reads always hit the store fresh.
type CalendarRepository interface {
	RestrictionsInRange(ctx context.Context, from, to time.Time) (map[string]domain.DateRestriction, error)
	SpecialInRange(ctx context.Context, from, to time.Time) (map[string]domain.SpecialAvailability, error)
	QuotasInRange(ctx context.Context, from, to time.Time) (map[string]domain.Quota, error)

	ListRestrictions(ctx context.Context) ([]domain.DateRestriction, error)
	UpsertRestriction(ctx context.Context, date time.Time, rt domain.RestrictionType, reason string) (*domain.DateRestriction, error)
	DeleteRestriction(ctx context.Context, date time.Time) (bool, error)

	ListSpecial(ctx context.Context) ([]domain.SpecialAvailability, error)
	UpsertSpecial(ctx context.Context, date time.Time, available bool, reason string, maxBookings *int) (*domain.SpecialAvailability, error)
	DeleteSpecial(ctx context.Context, date time.Time) (bool, error)

	ListQuotas(ctx context.Context) ([]domain.Quota, error)
	UpsertQuota(ctx context.Context, date time.Time, maxBookings int) (*domain.Quota, error)
	DeleteQuota(ctx context.Context, date time.Time) (bool, error)
}

type calendarRepository struct {
	pool *pgxpool.Pool
}

func NewCalendarRepository(pool *pgxpool.Pool) CalendarRepository {
	return &calendarRepository{pool: pool}
}

const restrictionCols = `id, restriction_date, restriction_type, reason, created_at`

func (r *calendarRepository) RestrictionsInRange(ctx context.Context, from, to time.Time) (map[string]domain.DateRestriction, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+restrictionCols+` FROM date_restrictions WHERE restriction_date BETWEEN $1 AND $2`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.DateRestriction)
	for rows.Next() {
		var dr domain.DateRestriction
		if err := rows.Scan(&dr.ID, &dr.Date, &dr.RestrictionType, &dr.Reason, &dr.CreatedAt); err != nil {
			return nil, err
		}
		out[domain.DateKey(dr.Date)] = dr
	}
	return out, rows.Err()
}

func (r *calendarRepository) ListRestrictions(ctx context.Context) ([]domain.DateRestriction, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+restrictionCols+` FROM date_restrictions ORDER BY restriction_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DateRestriction
	for rows.Next() {
		var dr domain.DateRestriction
		if err := rows.Scan(&dr.ID, &dr.Date, &dr.RestrictionType, &dr.Reason, &dr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

func (r *calendarRepository) UpsertRestriction(ctx context.Context, date time.Time, rt domain.RestrictionType, reason string) (*domain.DateRestriction, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var dr domain.DateRestriction
	err := r.pool.QueryRow(ctx,
		`INSERT INTO date_restrictions (restriction_date, restriction_type, reason)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (restriction_date) DO UPDATE SET restriction_type = $2, reason = $3
		 RETURNING `+restrictionCols,
		date, rt, reason,
	).Scan(&dr.ID, &dr.Date, &dr.RestrictionType, &dr.Reason, &dr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &dr, nil
}

func (r *calendarRepository) DeleteRestriction(ctx context.Context, date time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM date_restrictions WHERE restriction_date = $1`, date)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const specialCols = `id, special_date, is_available, reason, max_bookings, created_at`

func (r *calendarRepository) SpecialInRange(ctx context.Context, from, to time.Time) (map[string]domain.SpecialAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+specialCols+` FROM special_availability WHERE special_date BETWEEN $1 AND $2`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.SpecialAvailability)
	for rows.Next() {
		var sp domain.SpecialAvailability
		if err := rows.Scan(&sp.ID, &sp.Date, &sp.IsAvailable, &sp.Reason, &sp.MaxBookings, &sp.CreatedAt); err != nil {
			return nil, err
		}
		out[domain.DateKey(sp.Date)] = sp
	}
	return out, rows.Err()
}

func (r *calendarRepository) ListSpecial(ctx context.Context) ([]domain.SpecialAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+specialCols+` FROM special_availability ORDER BY special_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SpecialAvailability
	for rows.Next() {
		var sp domain.SpecialAvailability
		if err := rows.Scan(&sp.ID, &sp.Date, &sp.IsAvailable, &sp.Reason, &sp.MaxBookings, &sp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (r *calendarRepository) UpsertSpecial(ctx context.Context, date time.Time, available bool, reason string, maxBookings *int) (*domain.SpecialAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var sp domain.SpecialAvailability
	err := r.pool.QueryRow(ctx,
		`INSERT INTO special_availability (special_date, is_available, reason, max_bookings)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (special_date) DO UPDATE SET is_available = $2, reason = $3, max_bookings = $4
		 RETURNING `+specialCols,
		date, available, reason, maxBookings,
	).Scan(&sp.ID, &sp.Date, &sp.IsAvailable, &sp.Reason, &sp.MaxBookings, &sp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *calendarRepository) DeleteSpecial(ctx context.Context, date time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM special_availability WHERE special_date = $1`, date)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const quotaCols = `id, quota_date, max_bookings, created_at, updated_at`

func (r *calendarRepository) QuotasInRange(ctx context.Context, from, to time.Time) (map[string]domain.Quota, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+quotaCols+` FROM quotas WHERE quota_date BETWEEN $1 AND $2`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Quota)
	for rows.Next() {
		var q domain.Quota
		if err := rows.Scan(&q.ID, &q.Date, &q.MaxBookings, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out[domain.DateKey(q.Date)] = q
	}
	return out, rows.Err()
}

func (r *calendarRepository) ListQuotas(ctx context.Context) ([]domain.Quota, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+quotaCols+` FROM quotas ORDER BY quota_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Quota
	for rows.Next() {
		var q domain.Quota
		if err := rows.Scan(&q.ID, &q.Date, &q.MaxBookings, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *calendarRepository) UpsertQuota(ctx context.Context, date time.Time, maxBookings int) (*domain.Quota, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var q domain.Quota
	err := r.pool.QueryRow(ctx,
		`INSERT INTO quotas (quota_date, max_bookings)
		 VALUES ($1, $2)
		 ON CONFLICT (quota_date) DO UPDATE SET max_bookings = $2, updated_at = now()
		 RETURNING `+quotaCols,
		date, maxBookings,
	).Scan(&q.ID, &q.Date, &q.MaxBookings, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *calendarRepository) DeleteQuota(ctx context.Context, date time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM quotas WHERE quota_date = $1`, date)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
