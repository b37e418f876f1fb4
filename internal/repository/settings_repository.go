package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietbay/daybook/internal/domain"
)

// SettingsRepository reads and writes the single engine configuration row.
// The engine loads settings once per request and never caches them across
// requests, since the admin surface mutates the row out of band.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.Settings, error)
	Update(ctx context.Context, s domain.Settings) (domain.Settings, error)
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

const settingsCols = `display_months, max_days_per_request, allowed_weekdays,
default_daily_quota, enable_time_slots, allow_same_day, max_future_days,
form_fields, updated_at`

func (r *settingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.Settings
	var fields []byte
	err := r.pool.QueryRow(ctx,
		`SELECT `+settingsCols+` FROM booking_settings WHERE id = 1`,
	).Scan(
		&s.DisplayMonths, &s.MaxDaysPerRequest, &s.AllowedWeekdays,
		&s.DefaultDailyQuota, &s.EnableTimeSlots, &s.AllowSameDay, &s.MaxFutureDays,
		&fields, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(fields, &s.FormFields); err != nil {
		return domain.Settings{}, fmt.Errorf("decode form fields: %w", err)
	}
	return s, nil
}

func (r *settingsRepository) Update(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	fields, err := json.Marshal(s.FormFields)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("encode form fields: %w", err)
	}

	var out domain.Settings
	var rawFields []byte
	err = r.pool.QueryRow(ctx,
		`UPDATE booking_settings
		 SET display_months = $1, max_days_per_request = $2, allowed_weekdays = $3,
		     default_daily_quota = $4, enable_time_slots = $5, allow_same_day = $6,
		     max_future_days = $7, form_fields = $8, updated_at = now()
		 WHERE id = 1
		 RETURNING `+settingsCols,
		s.DisplayMonths, s.MaxDaysPerRequest, s.AllowedWeekdays,
		s.DefaultDailyQuota, s.EnableTimeSlots, s.AllowSameDay, s.MaxFutureDays,
		fields,
	).Scan(
		&out.DisplayMonths, &out.MaxDaysPerRequest, &out.AllowedWeekdays,
		&out.DefaultDailyQuota, &out.EnableTimeSlots, &out.AllowSameDay, &out.MaxFutureDays,
		&rawFields, &out.UpdatedAt,
	)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	if err := json.Unmarshal(rawFields, &out.FormFields); err != nil {
		return domain.Settings{}, fmt.Errorf("decode form fields: %w", err)
	}
	return out, nil
}
