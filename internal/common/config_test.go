package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.InDelta(t, 0.001, config.Engine.FeeRate, 1e-9)
	assert.Equal(t, 2*time.Second, config.Oracle.GetTimeout())
	assert.Equal(t, 5*time.Minute, config.Oracle.GetMaxAge())
	assert.Equal(t, time.Minute, config.Runner.GetTickInterval())
	assert.Equal(t, 3, config.Runner.MaxConsecutiveFailures)
	assert.Equal(t, 24*time.Hour, config.Auth.GetTokenExpiry())
	assert.False(t, config.IsProduction())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "titan.toml")
	content := `
environment = "production"

[server]
host = "127.0.0.1"
port = 9090

[engine]
fee_rate = 0.002

[oracle]
source = "static"
timeout = "500ms"

[runner]
tick_interval = "30s"
max_consecutive_failures = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 9090, config.Server.Port)
	assert.InDelta(t, 0.002, config.Engine.FeeRate, 1e-9)
	assert.Equal(t, "static", config.Oracle.Source)
	assert.Equal(t, 500*time.Millisecond, config.Oracle.GetTimeout())
	assert.Equal(t, 30*time.Second, config.Runner.GetTickInterval())
	assert.Equal(t, 5, config.Runner.MaxConsecutiveFailures)

	// unset sections keep defaults
	assert.Equal(t, "data/titan", config.Storage.Path)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig("/nonexistent/titan.toml")
	require.NoError(t, err)
	assert.Equal(t, "development", config.Environment)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TITAN_ENV", "production")
	t.Setenv("TITAN_PORT", "7070")
	t.Setenv("TITAN_ORACLE_SOURCE", "websocket")
	t.Setenv("TITAN_FEE_RATE", "0.005")
	t.Setenv("TITAN_AUTH_JWT_SECRET", "test-secret")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "websocket", config.Oracle.Source)
	assert.InDelta(t, 0.005, config.Engine.FeeRate, 1e-9)
	assert.Equal(t, "test-secret", config.Auth.JWTSecret)
}

func TestLoadConfigIgnoresInvalidEnvValues(t *testing.T) {
	t.Setenv("TITAN_PORT", "not-a-port")
	t.Setenv("TITAN_FEE_RATE", "-1")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.InDelta(t, 0.001, config.Engine.FeeRate, 1e-9)
}

func TestDurationGettersFallBackOnGarbage(t *testing.T) {
	oracle := OracleConfig{Timeout: "banana", MaxAge: ""}
	assert.Equal(t, 2*time.Second, oracle.GetTimeout())
	assert.Equal(t, 5*time.Minute, oracle.GetMaxAge())

	runner := RunnerConfig{TickInterval: "yearly"}
	assert.Equal(t, time.Minute, runner.GetTickInterval())

	auth := AuthConfig{TokenExpiry: "soon"}
	assert.Equal(t, 24*time.Hour, auth.GetTokenExpiry())
}
