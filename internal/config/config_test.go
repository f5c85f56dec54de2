package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginWindow)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_EnvAndFlags(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("PORT", "8080")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load([]string{"-http-port", "9090", "-db-name", "tenants"})
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 9090, cfg.HTTPPort, "flags win over env")
	assert.Equal(t, "tenants", cfg.DB.Name)
	assert.True(t, cfg.Redis.Enabled())
	assert.Contains(t, cfg.DB.DSN(), "host=db.internal")
	assert.Contains(t, cfg.DB.DSN(), "dbname=tenants")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\nLOGIN_WINDOW=1m\n"), 0o600))
	// restored by t.Setenv's cleanup, so values loaded from .env do not leak
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LOGIN_WINDOW", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	require.NoError(t, os.Unsetenv("LOGIN_WINDOW"))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.JWTSecret)
	assert.Equal(t, time.Minute, cfg.LoginWindow)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"production with dev secret", []string{"-env", "production"}},
		{"empty secret", []string{"-jwt-secret", " "}},
		{"unknown env", []string{"-env", "staging"}},
		{"bad port", []string{"-http-port", "70000"}},
		{"pool min above max", []string{"-db-max-conns", "2", "-db-min-conns", "5"}},
		{"zero attempts", []string{"-login-max-attempts", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}

	cfg, err := Load([]string{"-env", "production", "-jwt-secret", "prod-secret"})
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
