package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", ":8081")
	t.Setenv("SEED_DB", "true")
	t.Setenv("SEED_ADMIN_PASSWORD", "admin123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, "@hourly", cfg.Billing.OverdueSpec)
}

func TestLoadYAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 7000
mongo:
  uri: mongodb://db:27017
  database: rentals
jwt:
  secret: from-file
  expire_hours: 24
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "rentals", cfg.Mongo.Database)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.EqualError(t, cfg.Validate(), "jwt secret is required")

	cfg.JWT.Secret = "x"
	cfg.Server.Port = 0
	assert.EqualError(t, cfg.Validate(), "server port must be positive")

	cfg.Server.Port = 5000
	cfg.Seed.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Seed.AdminPassword = "pw"
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
