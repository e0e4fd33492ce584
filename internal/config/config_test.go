package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
port = 9000
log_level = "trace"
db_host = "localhost"
db_port = "5432"
db_name = "coach"

[development.engine]
lookback_days = 14
strength_weight = 0.6
activity_weight = 0.4

[production]
port = 8080
log_level = "info"
db_host = "db.internal"
db_port = "5432"
db_name = "coach"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigContent), 0o600))

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 14, cfg.Engine.LookbackDays)
	assert.InDelta(t, 0.6, cfg.Engine.StrengthWeight, 0.0001)

	prodCfg, err := Load("prod", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, prodCfg.Port)
	// engine table absent, defaults apply
	assert.Equal(t, 7, prodCfg.Engine.LookbackDays)
	assert.InDelta(t, 0.7, prodCfg.Engine.StrengthWeight, 0.0001)

	_, err = Load("staging", path)
	assert.Error(t, err)
}

func TestEngineWithDefaults(t *testing.T) {
	e := Engine{}.WithDefaults()
	assert.Equal(t, 7, e.LookbackDays)
	assert.InDelta(t, 0.3, e.ActivityWeight, 0.0001)
	assert.Equal(t, 300, e.RecommendationCacheTTLSeconds)
}
