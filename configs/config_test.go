package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsWhenEnvUnset(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.6, cfg.Engine.Alpha)
	assert.True(t, cfg.Engine.UseTPSPSystem)
}

func TestLoadReadsEngineOverridesFromEnv(t *testing.T) {
	t.Setenv("ENGINE_ALPHA", "0.8")
	t.Setenv("ENGINE_USE_TP_SP_SYSTEM", "false")
	t.Setenv("ENGINE_RECENT_DAYS", "14")

	cfg := Load()
	assert.Equal(t, 0.8, cfg.Engine.Alpha)
	assert.False(t, cfg.Engine.UseTPSPSystem)
	assert.Equal(t, 14, cfg.Engine.RecentDays)
}

func TestGetFloatEnvIgnoresUnparseableValue(t *testing.T) {
	t.Setenv("ENGINE_BETA", "not-a-float")
	assert.Equal(t, 0.4, getFloatEnv("ENGINE_BETA", 0.4))
}

func TestGetBoolEnvIgnoresUnparseableValue(t *testing.T) {
	t.Setenv("ENGINE_USE_TP_SP_SYSTEM", "maybe")
	assert.Equal(t, true, getBoolEnv("ENGINE_USE_TP_SP_SYSTEM", true))
}

func TestGetDurationEnvParsesOverride(t *testing.T) {
	t.Setenv("JWT_EXPIRATION", "48h")
	assert.Equal(t, 48*time.Hour, getDurationEnv("JWT_EXPIRATION", 24*time.Hour))
}
