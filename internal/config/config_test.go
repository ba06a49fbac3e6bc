package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/nactco/internal/engine"
)

// chdir moves into an empty directory so no stray config.yaml or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./nactco.db", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, string(engine.ComparatorAverage), cfg.Engine.Comparator)
	assert.Equal(t, engine.DefaultConfig(), cfg.Defaults)
	assert.False(t, cfg.IsDev())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("NACTCO_SERVER_PORT", "9090")
	t.Setenv("NACTCO_SERVER_ENV", "dev")
	t.Setenv("NACTCO_DEFAULTS_DEVICE_COUNT", "1200")
	t.Setenv("NACTCO_DEFAULTS_YEARS_HORIZON", "5")
	t.Setenv("NACTCO_CACHE_TTL", "1m")
	t.Setenv("NACTCO_ENGINE_COMPARATOR", "best")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 1200, cfg.Defaults.DeviceCount)
	assert.Equal(t, 5, cfg.Defaults.YearsHorizon)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "best", cfg.Engine.Comparator)
}

func TestLoad_DotEnvAndConfigFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NACTCO_ADMIN_EMAIL=admin@example.com\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
database:
  path: /tmp/other.db
defaults:
  discount_rate: 0.1
`), 0o600))
	// godotenv never overwrites existing variables; register for cleanup.
	t.Setenv("NACTCO_ADMIN_EMAIL", "")
	require.NoError(t, os.Unsetenv("NACTCO_ADMIN_EMAIL"))

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", cfg.Admin.Email)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.InDelta(t, 0.1, cfg.Defaults.DiscountRate, 1e-12)
	assert.Equal(t, 2500, cfg.Defaults.DeviceCount)
}

func TestLoad_InvalidDefaults(t *testing.T) {
	chdir(t)
	t.Setenv("NACTCO_DEFAULTS_YEARS_HORIZON", "4")

	_, err := Load(zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestValidate_RequiresSessionSecretInProduction(t *testing.T) {
	chdir(t)
	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	cfg.Admin.Password = "secret"
	assert.Error(t, cfg.Validate())

	cfg.Server.Env = "dev"
	assert.NoError(t, cfg.Validate())
}
