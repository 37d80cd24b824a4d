package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opscale/warehouse-scheduler/internal/model"
)

// ---------- Fixtures ----------

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

// fakeController serves canned warehouse configurations and records applied
// scripts.
type fakeController struct {
	configs     map[string]model.WarehouseConfig
	describeErr error
	applyErr    error
	scripts     []string
}

func (f *fakeController) Describe(ctx context.Context, name string) (model.WarehouseConfig, error) {
	if f.describeErr != nil {
		return model.WarehouseConfig{}, f.describeErr
	}
	cfg, ok := f.configs[name]
	if !ok {
		return model.WarehouseConfig{}, errors.New("warehouse does not exist")
	}
	return cfg, nil
}

func (f *fakeController) Apply(ctx context.Context, script string) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.scripts = append(f.scripts, script)
	return nil
}

func matchSQL(substr string) any {
	return mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, substr) })
}

// liveXSmall mirrors the configuration testEntry describes, so an unchanged
// entry produces no statement.
func liveXSmall(name string) model.WarehouseConfig {
	return model.WarehouseConfig{
		Name:               name,
		Size:               model.SizeXSmall,
		AutoSuspendSeconds: 900,
		AutoResume:         true,
		ScalingPolicy:      model.ModeStandard,
	}
}

func newTestReconciler(db *mockDB, controller *fakeController, now time.Time) *ReconcilerService {
	return NewReconcilerService(db, controller,
		NewRunLogService(db), NewSettingsService(db, "UTC"), fakeClock{now}, zerolog.Nop())
}

func expectNoTimezoneSetting(db *mockDB, ctx context.Context) {
	db.On("QueryRow", ctx, matchSQL("FROM settings"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
}

func expectNoLastSuccess(db *mockDB, ctx context.Context) {
	db.On("QueryRow", ctx, matchSQL("run_log"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
}

// ---------- alterStatement ----------

func TestAlterStatement_NoChanges(t *testing.T) {
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	live := liveXSmall("wh")

	stmt, err := alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Empty(t, stmt)
}

func TestAlterStatement_SizeChange(t *testing.T) {
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	desired.Size = model.SizeLarge
	live := liveXSmall("wh")

	stmt, err := alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Equal(t, "alter warehouse wh set WAREHOUSE_SIZE = LARGE;", stmt)
}

func TestAlterStatement_SnowparkBoundary(t *testing.T) {
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	desired.Size = model.SizeMediumSnowpark
	live := liveXSmall("wh")

	stmt, err := alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Equal(t, "alter warehouse wh set WAREHOUSE_TYPE = SNOWPARK-OPTIMIZED, WAREHOUSE_SIZE = MEDIUM;", stmt)
}

func TestAlterStatement_SnowparkSharedToken(t *testing.T) {
	// Medium Snowpark and Medium share the size token, so only the type
	// changes across the boundary.
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	desired.Size = model.SizeMediumSnowpark
	live := liveXSmall("wh")
	live.Size = model.SizeMedium

	stmt, err := alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Equal(t, "alter warehouse wh set WAREHOUSE_TYPE = SNOWPARK-OPTIMIZED;", stmt)
}

func TestAlterStatement_SuspendAndResume(t *testing.T) {
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	desired.SuspendMinutes = 30
	desired.Resume = false
	live := liveXSmall("wh")

	stmt, err := alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Equal(t, "alter warehouse wh set AUTO_SUSPEND = 1800, AUTO_RESUME = false;", stmt)
}

func TestAlterStatement_AutoscalingRequiresBothSides(t *testing.T) {
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	desired.ScaleMin = 1
	desired.ScaleMax = 3
	live := liveXSmall("wh")

	// Live side does not autoscale, so cluster fields are not compared.
	stmt, err := alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Empty(t, stmt)

	live.MinClusterCount = 1
	live.MaxClusterCount = 1
	stmt, err = alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Equal(t, "alter warehouse wh set MAX_CLUSTER_COUNT = 3;", stmt)
}

func TestAlterStatement_ScalingPolicy(t *testing.T) {
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	desired.ScaleMin = 1
	desired.ScaleMax = 2
	desired.WarehouseMode = model.ModeEconomy
	live := liveXSmall("wh")
	live.MinClusterCount = 1
	live.MaxClusterCount = 2

	stmt, err := alterStatement(&desired, &live)
	require.Nil(t, err)
	assert.Equal(t, "alter warehouse wh set SCALING_POLICY = Economy;", stmt)
}

func TestAlterStatement_UnresolvedInherit(t *testing.T) {
	desired := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	desired.WarehouseMode = model.ModeInherit
	live := liveXSmall("wh")

	_, err := alterStatement(&desired, &live)
	require.NotNil(t, err)
	assert.Equal(t, ErrBug, err.Kind)
}

// ---------- Candidate selection ----------

func TestSelectCandidates_Window(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 6, 9, 7, 0, 0, loc) // Wednesday
	lastRun := now.Add(-30 * time.Minute)

	inWindow := testEntry("a", "wh1", tod(9, 0), tod(17, 0))
	before := testEntry("b", "wh2", tod(8, 0), tod(9, 0))
	ahead := testEntry("c", "wh3", tod(10, 0), tod(17, 0))

	candidates := selectCandidates([]model.ScheduleEntry{inWindow, before, ahead}, lastRun, now)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].entry.ID)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 0, 0, 0, loc), candidates[0].anchorTS)
}

func TestSelectCandidates_YesterdayAnchor(t *testing.T) {
	// A start ahead of now's time of day is anchored to yesterday; with a
	// wide enough window it is still caught up.
	loc := time.UTC
	now := time.Date(2024, 3, 6, 7, 0, 0, 0, loc)
	lastRun := now.Add(-24 * time.Hour)

	e := testEntry("a", "wh", tod(22, 0), model.DayEnd)

	candidates := selectCandidates([]model.ScheduleEntry{e}, lastRun, now)
	require.Len(t, candidates, 1)
	assert.Equal(t, time.Date(2024, 3, 5, 22, 0, 0, 0, loc), candidates[0].anchorTS)
}

func TestLatestPerWarehouse_CatchUp(t *testing.T) {
	loc := time.UTC
	early := candidate{entry: testEntry("a", "wh", tod(8, 0), tod(12, 0)),
		anchorTS: time.Date(2024, 3, 6, 8, 0, 0, 0, loc)}
	late := candidate{entry: testEntry("b", "wh", tod(12, 0), tod(17, 0)),
		anchorTS: time.Date(2024, 3, 6, 12, 0, 0, 0, loc)}
	other := candidate{entry: testEntry("c", "other", tod(9, 0), tod(17, 0)),
		anchorTS: time.Date(2024, 3, 6, 9, 0, 0, 0, loc)}

	winners := latestPerWarehouse([]candidate{late, early, other})
	require.Len(t, winners, 2)
	assert.Equal(t, "c", winners[0].entry.ID)
	assert.Equal(t, "b", winners[1].entry.ID)
}

// ---------- Run ----------

func TestReconcilerService_Run_UpdatesWarehouse(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()
	now := time.Date(2024, 3, 6, 9, 7, 0, 0, time.UTC) // Wednesday

	morning := testEntry("a", "wh", model.DayStart, tod(9, 0))
	business := testEntry("b", "wh", tod(9, 0), tod(17, 0))
	business.Size = model.SizeLarge

	controller := &fakeController{configs: map[string]model.WarehouseConfig{
		"wh": liveXSmall("wh"),
	}}
	svc := newTestReconciler(db, controller, now)

	expectNoTimezoneSetting(db, ctx)
	expectNoLastSuccess(db, ctx)
	db.On("Query", ctx, matchSQL("enabled"), []any{true}).
		Return(newMockRows(entryScanFunc(morning), entryScanFunc(business)), nil)

	var logged model.RunLogRecord
	db.On("Exec", ctx, matchSQL("run_log"), mock.Anything).
		Run(func(args mock.Arguments) {
			rowArgs := args.Get(2).([]any)
			logged.RunAt = rowArgs[0].(time.Time)
			logged.Success = rowArgs[1].(bool)
			require.NoError(t, json.Unmarshal(rowArgs[2].([]byte), &logged.Payload))
		}).
		Return(pgconn.CommandTag{}, nil)

	payload, err := svc.Run(ctx)
	require.NoError(t, err)

	// Both entries crossed inside the window; catch-up applies only the
	// latest configuration.
	assert.Equal(t, 2, payload.NumCandidates)
	assert.Equal(t, 1, payload.WarehousesUpdated)
	require.Len(t, controller.scripts, 1)
	assert.Equal(t, "begin\nalter warehouse wh set WAREHOUSE_SIZE = LARGE;\nend;", controller.scripts[0])

	assert.True(t, logged.Success)
	assert.Equal(t, 2, logged.Payload.NumCandidates)
	assert.Equal(t, payload.Statements, logged.Payload.Statements)
	db.AssertExpectations(t)
}

func TestReconcilerService_Run_NoOp(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()
	now := time.Date(2024, 3, 6, 9, 7, 0, 0, time.UTC)

	e := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	controller := &fakeController{configs: map[string]model.WarehouseConfig{
		"wh": liveXSmall("wh"),
	}}
	svc := newTestReconciler(db, controller, now)

	expectNoTimezoneSetting(db, ctx)
	expectNoLastSuccess(db, ctx)
	db.On("Query", ctx, matchSQL("enabled"), []any{true}).
		Return(newMockRows(entryScanFunc(e)), nil)
	db.On("Exec", ctx, matchSQL("run_log"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	payload, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, payload.NumCandidates)
	assert.Equal(t, 0, payload.WarehousesUpdated)
	assert.Empty(t, controller.scripts)
	db.AssertExpectations(t)
}

func TestReconcilerService_Run_WeekendDayClass(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 9, 7, 0, 0, time.UTC) // Saturday

	controller := &fakeController{}
	svc := newTestReconciler(db, controller, now)

	expectNoTimezoneSetting(db, ctx)
	expectNoLastSuccess(db, ctx)
	db.On("Query", ctx, matchSQL("enabled"), []any{false}).
		Return(newEmptyMockRows(), nil)
	db.On("Exec", ctx, matchSQL("run_log"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	payload, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, payload.NumCandidates)
	db.AssertExpectations(t)
}

func TestReconcilerService_Run_TimezoneShiftsDay(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()
	// 01:00 Saturday UTC is still 17:00 Friday in Los Angeles, so the
	// weekday entries are the ones that apply.
	now := time.Date(2024, 3, 9, 1, 0, 0, 0, time.UTC)

	controller := &fakeController{}
	svc := newTestReconciler(db, controller, now)

	db.On("QueryRow", ctx, matchSQL("FROM settings"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*string)) = "America/Los_Angeles"
			return nil
		}})
	expectNoLastSuccess(db, ctx)
	db.On("Query", ctx, matchSQL("enabled"), []any{true}).
		Return(newEmptyMockRows(), nil)
	db.On("Exec", ctx, matchSQL("run_log"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	_, err := svc.Run(ctx)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestReconcilerService_Run_PivotInstantInConfiguredTimezone(t *testing.T) {
	// The configured timezone fixes the absolute instant a pivot fires at,
	// independent of the zone the clock reports in. A 09:00 Europe/London
	// pivot is 08:00 UTC during British Summer Time.
	lastRun := time.Date(2023, 9, 27, 7, 30, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		name        string
		now         time.Time
		wantUpdated int
	}{
		{"before the pivot instant", time.Date(2023, 9, 27, 7, 59, 0, 0, time.UTC), 0},
		{"at the pivot instant", time.Date(2023, 9, 27, 8, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mockDB{}
			ctx := context.Background()

			e := testEntry("a", "wh", tod(9, 0), tod(17, 0))
			e.Size = model.SizeLarge
			controller := &fakeController{configs: map[string]model.WarehouseConfig{
				"wh": liveXSmall("wh"),
			}}
			svc := newTestReconciler(db, controller, tt.now)

			db.On("QueryRow", ctx, matchSQL("FROM settings"), mock.Anything).
				Return(&mockRow{scanFunc: func(dest ...any) error {
					*(dest[0].(*string)) = "Europe/London"
					return nil
				}})
			db.On("QueryRow", ctx, matchSQL("run_log"), mock.Anything).
				Return(&mockRow{scanFunc: func(dest ...any) error {
					*(dest[0].(*time.Time)) = lastRun
					return nil
				}})
			db.On("Query", ctx, matchSQL("enabled"), []any{true}).
				Return(newMockRows(entryScanFunc(e)), nil)
			db.On("Exec", ctx, matchSQL("run_log"), mock.Anything).Return(pgconn.CommandTag{}, nil)

			payload, err := svc.Run(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, payload.NumCandidates)
			assert.Equal(t, tt.wantUpdated, payload.WarehousesUpdated)
			assert.Len(t, controller.scripts, tt.wantUpdated)
			db.AssertExpectations(t)
		})
	}
}

func TestReconcilerService_Run_ControllerDown(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()
	now := time.Date(2024, 3, 6, 9, 7, 0, 0, time.UTC)

	e := testEntry("a", "wh", tod(9, 0), tod(17, 0))
	controller := &fakeController{describeErr: errors.New("network unreachable")}
	svc := newTestReconciler(db, controller, now)

	expectNoTimezoneSetting(db, ctx)
	expectNoLastSuccess(db, ctx)
	db.On("Query", ctx, matchSQL("enabled"), []any{true}).
		Return(newMockRows(entryScanFunc(e)), nil)

	var logged model.RunLogRecord
	db.On("Exec", ctx, matchSQL("run_log"), mock.Anything).
		Run(func(args mock.Arguments) {
			rowArgs := args.Get(2).([]any)
			logged.Success = rowArgs[1].(bool)
			require.NoError(t, json.Unmarshal(rowArgs[2].([]byte), &logged.Payload))
		}).
		Return(pgconn.CommandTag{}, nil)

	_, err := svc.Run(ctx)
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrControllerDown, ce.Kind)

	// The failed pass is still recorded, carrying the error kind.
	assert.False(t, logged.Success)
	assert.Equal(t, string(ErrControllerDown), logged.Payload.ErrorKind)
	db.AssertExpectations(t)
}
