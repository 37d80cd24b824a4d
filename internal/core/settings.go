package core

import (
	"context"
	"errors"
	"time"

	"github.com/opscale/warehouse-scheduler/internal/model"

	"github.com/jackc/pgx/v5"
)

// SettingsService reads and writes the settings table. The timezone is read
// at the top of each engine operation rather than cached; an operator change
// takes effect on the next run.
type SettingsService struct {
	db       DB
	fallback string
}

// NewSettingsService creates the service. fallback applies when the settings
// table has no default_timezone row; an empty fallback uses the engine
// default.
func NewSettingsService(db DB, fallback string) *SettingsService {
	if fallback == "" {
		fallback = model.DefaultTimezone
	}
	return &SettingsService{db: db, fallback: fallback}
}

func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM settings WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapError(ErrStoreUnavailable, err, "get setting %s", key)
	}
	return value, nil
}

func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return wrapError(ErrStoreUnavailable, err, "set setting %s", key)
	}
	return nil
}

// DefaultTimezone returns the configured scheduling timezone, validated
// against the tz database.
func (s *SettingsService) DefaultTimezone(ctx context.Context) (string, error) {
	value, err := s.Get(ctx, model.SettingDefaultTimezone)
	if err != nil {
		return "", err
	}
	if value == "" {
		value = s.fallback
	}
	if _, err := time.LoadLocation(value); err != nil {
		return "", newError(ErrInvalidField, "unknown timezone %q", value)
	}
	return value, nil
}
