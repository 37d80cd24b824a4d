package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opscale/warehouse-scheduler/internal/model"
)

func TestSettingsService_Get(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db, "")
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "Europe/London"
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{model.SettingDefaultTimezone}).Return(row)

	value, err := svc.Get(ctx, model.SettingDefaultTimezone)
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", value)
	db.AssertExpectations(t)
}

func TestSettingsService_Get_Missing(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db, "")
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	value, err := svc.Get(ctx, "missing_key")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSettingsService_Set(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db, "")
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"default_timezone", "Europe/London"}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := svc.Set(ctx, "default_timezone", "Europe/London")
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestSettingsService_DefaultTimezone_Fallback(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db, "")
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	tz, err := svc.DefaultTimezone(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTimezone, tz)
}

func TestSettingsService_DefaultTimezone_Invalid(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db, "")
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "Not/AZone"
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.DefaultTimezone(ctx)
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrInvalidField, ce.Kind)
}

func TestSettingsService_Get_StoreError(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db, "")
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return errors.New("connection refused") }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.Get(ctx, "default_timezone")
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrStoreUnavailable, ce.Kind)
}
