package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YamlThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  env: production
database:
  url: postgres://from-yaml
jwt:
  secret: yaml-secret
  ttl: 30
sos:
  notify_radius_km: 5
`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-env", cfg.Database.DSN)
	assert.Equal(t, "yaml-secret", cfg.JWT.Secret)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL())
	assert.Equal(t, 5.0, cfg.SOS.NotifyRadiusKm)
	assert.Equal(t, int64(10000), cfg.SOS.DefaultReward)
	assert.Equal(t, 50.0, cfg.Discovery.MaxRadiusKm)
	assert.Equal(t, 20, cfg.Leaderboard.DefaultLimit)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-only")
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "s")

	_, err := Load("")
	assert.Error(t, err)
}
