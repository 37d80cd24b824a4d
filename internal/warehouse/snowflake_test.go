package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opscale/warehouse-scheduler/internal/model"
)

func TestParseShowSize(t *testing.T) {
	assert.Equal(t, model.SizeXSmall, parseShowSize("X-Small", "STANDARD"))
	assert.Equal(t, model.Size2XLarge, parseShowSize("2X-Large", "STANDARD"))
	assert.Equal(t, model.SizeMediumSnowpark, parseShowSize("Medium", "SNOWPARK-OPTIMIZED"))
	assert.Equal(t, model.SizeMediumSnowpark, parseShowSize("Medium", "snowpark-optimized"))
}

func TestParseScalingPolicy(t *testing.T) {
	assert.Equal(t, model.ModeEconomy, parseScalingPolicy("ECONOMY"))
	assert.Equal(t, model.ModeEconomy, parseScalingPolicy("Economy"))
	assert.Equal(t, model.ModeStandard, parseScalingPolicy("STANDARD"))
	assert.Equal(t, model.ModeStandard, parseScalingPolicy(""))
}

func TestEscapeIdent(t *testing.T) {
	assert.Equal(t, "COMPUTE_WH", escapeIdent("COMPUTE_WH"))
	assert.Equal(t, "O''BRIEN", escapeIdent("O'BRIEN"))
}

func TestAtoi(t *testing.T) {
	assert.Equal(t, 900, atoi("900"))
	assert.Equal(t, 0, atoi(""))
	assert.Equal(t, 0, atoi("null"))
}
