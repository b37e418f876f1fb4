package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietbay/daybook/internal/domain"
)

type TimeSlotRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.TimeSlot, error)
	GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error)
	Create(ctx context.Context, startTime, displayName string, maxBookings int) (*domain.TimeSlot, error)
	Update(ctx context.Context, id int64, startTime, displayName string, isActive bool, maxBookings int) (*domain.TimeSlot, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
}

type timeSlotRepository struct {
	pool *pgxpool.Pool
}

func NewTimeSlotRepository(pool *pgxpool.Pool) TimeSlotRepository {
	return &timeSlotRepository{pool: pool}
}

const slotCols = `id, to_char(start_time, 'HH24:MI'), display_name, is_active, max_bookings, created_at, updated_at`

func scanSlot(row pgx.Row) (*domain.TimeSlot, error) {
	var s domain.TimeSlot
	err := row.Scan(&s.ID, &s.StartTime, &s.DisplayName, &s.IsActive, &s.MaxBookings, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *timeSlotRepository) List(ctx context.Context, activeOnly bool) ([]domain.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	q := `SELECT ` + slotCols + ` FROM time_slots`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY start_time`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

func (r *timeSlotRepository) GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanSlot(r.pool.QueryRow(ctx, `SELECT `+slotCols+` FROM time_slots WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *timeSlotRepository) Create(ctx context.Context, startTime, displayName string, maxBookings int) (*domain.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanSlot(r.pool.QueryRow(ctx,
		`INSERT INTO time_slots (start_time, display_name, max_bookings)
		 VALUES ($1::time, $2, $3)
		 RETURNING `+slotCols,
		startTime, displayName, maxBookings))
}

func (r *timeSlotRepository) Update(ctx context.Context, id int64, startTime, displayName string, isActive bool, maxBookings int) (*domain.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanSlot(r.pool.QueryRow(ctx,
		`UPDATE time_slots
		 SET start_time = $2::time, display_name = $3, is_active = $4, max_bookings = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+slotCols,
		id, startTime, displayName, isActive, maxBookings))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *timeSlotRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE time_slots SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
