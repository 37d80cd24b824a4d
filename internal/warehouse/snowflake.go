package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/opscale/warehouse-scheduler/internal/model"

	_ "github.com/snowflakedb/gosnowflake"
)

// OpenSnowflake opens and pings a Snowflake connection from a DSN.
func OpenSnowflake(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snowflake connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping snowflake: %w", err)
	}
	return db, nil
}

// SnowflakeController implements Controller over a Snowflake connection.
type SnowflakeController struct {
	db *sql.DB
}

func NewSnowflakeController(db *sql.DB) *SnowflakeController {
	return &SnowflakeController{db: db}
}

func (c *SnowflakeController) Describe(ctx context.Context, name string) (model.WarehouseConfig, error) {
	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf("show warehouses like '%s'", escapeIdent(name)))
	if err != nil {
		return model.WarehouseConfig{}, fmt.Errorf("show warehouse %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return model.WarehouseConfig{}, fmt.Errorf("read warehouse columns: %w", err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.WarehouseConfig{}, fmt.Errorf("iterate warehouses: %w", err)
		}
		return model.WarehouseConfig{}, fmt.Errorf("warehouse %s not found", name)
	}

	raw := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return model.WarehouseConfig{}, fmt.Errorf("scan warehouse %s: %w", name, err)
	}

	byName := make(map[string]string, len(cols))
	for i, col := range cols {
		byName[strings.ToLower(col)] = raw[i].String
	}

	cfg := model.WarehouseConfig{
		Name:               byName["name"],
		Size:               parseShowSize(byName["size"], byName["type"]),
		AutoSuspendSeconds: atoi(byName["auto_suspend"]),
		AutoResume:         strings.EqualFold(byName["auto_resume"], "true"),
		MinClusterCount:    atoi(byName["min_cluster_count"]),
		MaxClusterCount:    atoi(byName["max_cluster_count"]),
		ScalingPolicy:      parseScalingPolicy(byName["scaling_policy"]),
	}
	return cfg, nil
}

func (c *SnowflakeController) Apply(ctx context.Context, script string) error {
	if _, err := c.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("apply warehouse script: %w", err)
	}
	return nil
}

// SnowflakeTriggerService drives the tasks.warehouse_scheduling_{offset}
// task fleet.
type SnowflakeTriggerService struct {
	db *sql.DB
}

func NewSnowflakeTriggerService(db *sql.DB) *SnowflakeTriggerService {
	return &SnowflakeTriggerService{db: db}
}

func (s *SnowflakeTriggerService) SetSchedule(ctx context.Context, trigger, cronExpr string) error {
	stmt := fmt.Sprintf("alter task if exists tasks.%s set schedule = 'using cron %s'", trigger, cronExpr)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("set schedule on task %s: %w", trigger, err)
	}
	return nil
}

func (s *SnowflakeTriggerService) Resume(ctx context.Context, trigger string) error {
	stmt := fmt.Sprintf("alter task if exists tasks.%s resume", trigger)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("resume task %s: %w", trigger, err)
	}
	return nil
}

func (s *SnowflakeTriggerService) Suspend(ctx context.Context, trigger string) error {
	stmt := fmt.Sprintf("alter task if exists tasks.%s suspend", trigger)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("suspend task %s: %w", trigger, err)
	}
	return nil
}

// parseShowSize maps the size and type columns of show warehouses onto a
// schedule size. Snowpark-optimized warehouses report type
// SNOWPARK-OPTIMIZED with a standard size string.
func parseShowSize(size, whType string) model.WarehouseSize {
	if strings.EqualFold(whType, "SNOWPARK-OPTIMIZED") {
		return model.WarehouseSize(size + " Snowpark")
	}
	return model.WarehouseSize(size)
}

func parseScalingPolicy(policy string) model.WarehouseMode {
	if strings.EqualFold(policy, string(model.ModeEconomy)) {
		return model.ModeEconomy
	}
	return model.ModeStandard
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// escapeIdent guards the single-quoted like pattern in show warehouses.
func escapeIdent(name string) string {
	return strings.ReplaceAll(name, "'", "''")
}
