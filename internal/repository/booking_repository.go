package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietbay/daybook/internal/domain"
)

// CreateBatchParams describes one accepted submission: one booking row per
// date, sharing the same contact payload and optional time slot.
type CreateBatchParams struct {
	Dates          []time.Time
	TimeSlotID     *int64
	Name           string
	Email          string
	Phone          string
	FormData       domain.FormPayload
	Tokens         []string // one per date, pre-generated
	TokenExpiresAt time.Time
	Settings       domain.Settings
}

type BookingRepository interface {
	// CreateBatch reserves capacity and inserts all rows of a submission in
	// one transaction. The capacity re-check happens inside the transaction
	// under a per-date advisory lock, so two concurrent submissions against
	// the last remaining slot cannot both commit.
	CreateBatch(ctx context.Context, params CreateBatchParams) ([]domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	ConfirmByToken(ctx context.Context, token string, now time.Time) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) (*domain.Booking, error)
	ExpirePending(ctx context.Context, now time.Time) ([]domain.Booking, error)
	CountActive(ctx context.Context, date time.Time) (int, error)
	CountActiveSlot(ctx context.Context, date time.Time, slotID int64) (int, error)
	CountActiveRange(ctx context.Context, from, to time.Time) (map[string]int, error)
	SlotCountsInRange(ctx context.Context, from, to time.Time) (map[string]map[int64]int, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, booking_date, time_slot_id,
name, email, phone, form_data, status,
confirm_token, token_expires_at, confirmed_at,
created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.Date, &b.TimeSlotID,
		&b.Name, &b.Email, &b.Phone, &b.FormData, &b.Status,
		&b.ConfirmToken, &b.TokenExpiresAt, &b.ConfirmedAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) CreateBatch(ctx context.Context, params CreateBatchParams) ([]domain.Booking, error) {
	if len(params.Tokens) != len(params.Dates) {
		return nil, fmt.Errorf("token count %d does not match date count %d", len(params.Tokens), len(params.Dates))
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reservation: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize against concurrent submissions for the same dates. Locks
	// are taken in sorted date order to avoid deadlocks between batches.
	for _, d := range sortedDateKeys(params.Dates) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('daybook:date:' || $1))`, d); err != nil {
			return nil, fmt.Errorf("lock date %s: %w", d, err)
		}
	}

	var slot *domain.TimeSlot
	if params.TimeSlotID != nil {
		slot, err = getTimeSlotTx(ctx, tx, *params.TimeSlotID)
		if err != nil {
			return nil, err
		}
		if slot == nil || !slot.IsActive {
			return nil, &domain.Rejection{Code: domain.RejectNotFound}
		}
	}

	bookings := make([]domain.Booking, 0, len(params.Dates))
	for i, date := range params.Dates {
		key := domain.DateKey(date)

		remaining, err := remainingForDateTx(ctx, tx, date, params.Settings)
		if err != nil {
			return nil, err
		}
		if remaining <= 0 {
			return nil, domain.RejectDate(domain.RejectOutOfQuota, key)
		}

		if slot != nil {
			var used int
			err := tx.QueryRow(ctx,
				`SELECT count(*) FROM bookings
				 WHERE booking_date = $1 AND time_slot_id = $2 AND status IN ('pending','confirmed')`,
				date, slot.ID,
			).Scan(&used)
			if err != nil {
				return nil, fmt.Errorf("count slot bookings: %w", err)
			}
			if slot.MaxBookings-used <= 0 {
				return nil, domain.RejectDate(domain.RejectOutOfQuota, key)
			}
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO bookings (
				booking_date, time_slot_id, name, email, phone, form_data,
				status, confirm_token, token_expires_at
			) VALUES ($1,$2,$3,$4,$5,$6,'pending',$7,$8)
			RETURNING `+bookingCols,
			date, params.TimeSlotID, params.Name, params.Email, params.Phone,
			params.FormData, params.Tokens[i], params.TokenExpiresAt,
		)
		b, err := scanBooking(row)
		if err != nil {
			return nil, fmt.Errorf("insert booking for %s: %w", key, err)
		}
		bookings = append(bookings, *b)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}
	return bookings, nil
}

// remainingForDateTx derives remaining capacity inside the reserve
// transaction: overrides are re-read and consumed is counted live from
// booking rows, never from a cached counter.
func remainingForDateTx(ctx context.Context, tx pgx.Tx, date time.Time, settings domain.Settings) (int, error) {
	var special *domain.SpecialAvailability
	var sp domain.SpecialAvailability
	err := tx.QueryRow(ctx,
		`SELECT id, special_date, is_available, reason, max_bookings, created_at
		 FROM special_availability WHERE special_date = $1`, date,
	).Scan(&sp.ID, &sp.Date, &sp.IsAvailable, &sp.Reason, &sp.MaxBookings, &sp.CreatedAt)
	switch err {
	case nil:
		special = &sp
	case pgx.ErrNoRows:
	default:
		return 0, fmt.Errorf("read special availability: %w", err)
	}

	var quota *domain.Quota
	var q domain.Quota
	err = tx.QueryRow(ctx,
		`SELECT id, quota_date, max_bookings, created_at, updated_at
		 FROM quotas WHERE quota_date = $1`, date,
	).Scan(&q.ID, &q.Date, &q.MaxBookings, &q.CreatedAt, &q.UpdatedAt)
	switch err {
	case nil:
		quota = &q
	case pgx.ErrNoRows:
	default:
		return 0, fmt.Errorf("read quota: %w", err)
	}

	var consumed int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM bookings
		 WHERE booking_date = $1 AND status IN ('pending','confirmed')`, date,
	).Scan(&consumed)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}

	remaining := domain.ResolveCapacity(special, quota, settings) - consumed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func getTimeSlotTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.TimeSlot, error) {
	var s domain.TimeSlot
	err := tx.QueryRow(ctx,
		`SELECT id, to_char(start_time, 'HH24:MI'), display_name, is_active, max_bookings, created_at, updated_at
		 FROM time_slots WHERE id = $1`, id,
	).Scan(&s.ID, &s.StartTime, &s.DisplayName, &s.IsActive, &s.MaxBookings, &s.CreatedAt, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read time slot: %w", err)
	}
	return &s, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE 1=1`
	args := []any{}
	n := 0
	add := func(clause string, val any) {
		n++
		q += fmt.Sprintf(clause, n)
		args = append(args, val)
	}

	if filter.Email != "" {
		add(` AND lower(email) = lower($%d)`, filter.Email)
	}
	if filter.Status != nil {
		add(` AND status = $%d`, *filter.Status)
	}
	if filter.From != nil {
		add(` AND booking_date >= $%d`, *filter.From)
	}
	if filter.To != nil {
		add(` AND booking_date <= $%d`, *filter.To)
	}
	add(` ORDER BY booking_date, created_at LIMIT $%d`, limit)
	add(` OFFSET $%d`, offset)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ConfirmByToken is a single conditional update: whichever caller
// transitions the row first wins, every other caller sees no row. An
// unknown, expired, or already-consumed token are indistinguishable.
func (r *bookingRepository) ConfirmByToken(ctx context.Context, token string, now time.Time) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx,
		`UPDATE bookings
		 SET status = 'confirmed', confirmed_at = $2,
		     confirm_token = NULL, token_expires_at = NULL,
		     updated_at = now()
		 WHERE status = 'pending' AND confirm_token = $1 AND token_expires_at > $2
		 RETURNING `+bookingCols,
		token, now))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) Cancel(ctx context.Context, id int64) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx,
		`UPDATE bookings
		 SET status = 'cancelled',
		     confirm_token = NULL, token_expires_at = NULL,
		     updated_at = now()
		 WHERE id = $1 AND status IN ('pending','confirmed')
		 RETURNING `+bookingCols,
		id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// ExpirePending marks stale pending rows expired and returns them. Rows are
// retained for audit; removal is a separate retention concern.
func (r *bookingRepository) ExpirePending(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`UPDATE bookings
		 SET status = 'expired',
		     confirm_token = NULL, token_expires_at = NULL,
		     updated_at = now()
		 WHERE status = 'pending' AND token_expires_at < $1
		 RETURNING `+bookingCols,
		now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func (r *bookingRepository) CountActive(ctx context.Context, date time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM bookings
		 WHERE booking_date = $1 AND status IN ('pending','confirmed')`, date,
	).Scan(&count)
	return count, err
}

func (r *bookingRepository) CountActiveSlot(ctx context.Context, date time.Time, slotID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM bookings
		 WHERE booking_date = $1 AND time_slot_id = $2 AND status IN ('pending','confirmed')`,
		date, slotID,
	).Scan(&count)
	return count, err
}

func (r *bookingRepository) CountActiveRange(ctx context.Context, from, to time.Time) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT booking_date, count(*) FROM bookings
		 WHERE booking_date BETWEEN $1 AND $2 AND status IN ('pending','confirmed')
		 GROUP BY booking_date`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var d time.Time
		var c int
		if err := rows.Scan(&d, &c); err != nil {
			return nil, err
		}
		counts[domain.DateKey(d)] = c
	}
	return counts, rows.Err()
}

func (r *bookingRepository) SlotCountsInRange(ctx context.Context, from, to time.Time) (map[string]map[int64]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT booking_date, time_slot_id, count(*) FROM bookings
		 WHERE booking_date BETWEEN $1 AND $2
		   AND time_slot_id IS NOT NULL
		   AND status IN ('pending','confirmed')
		 GROUP BY booking_date, time_slot_id`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]map[int64]int)
	for rows.Next() {
		var d time.Time
		var slotID int64
		var c int
		if err := rows.Scan(&d, &slotID, &c); err != nil {
			return nil, err
		}
		key := domain.DateKey(d)
		if counts[key] == nil {
			counts[key] = make(map[int64]int)
		}
		counts[key][slotID] = c
	}
	return counts, rows.Err()
}

func sortedDateKeys(dates []time.Time) []string {
	keys := make([]string, 0, len(dates))
	seen := make(map[string]bool)
	for _, d := range dates {
		k := domain.DateKey(d)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	// ISO dates sort lexicographically.
	sort.Strings(keys)
	return keys
}
