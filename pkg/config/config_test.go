package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir moves into an empty directory so a developer's .env does not leak in.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// unsetenv removes key for the test; godotenv never overrides a variable
// that is already present, even when empty.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	prev, ok := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

const sampleYAML = `
env: "prod"
port: "9000"
database_url: "libsql://links.example.turso.io"
jwt_secret: "s3cret"
log_level: "debug"
shutdown_timeout: "3s"
request_timeout: "5s"
max_query_depth: 7
playground: false
`

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "local", cfg.Env)
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
	require.Equal(t, "file:db.sqlite", cfg.DatabaseURL)
	require.Equal(t, "GraphQL-is-aw3some", cfg.JWTSecret)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, 10, cfg.MaxQueryDepth)
	require.True(t, cfg.Playground)
	require.False(t, cfg.InMemory())
}

func TestLoad_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "1234")
	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("PLAYGROUND", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "1234", cfg.Port)
	require.True(t, cfg.InMemory())
	require.False(t, cfg.Playground)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, ".env", "JWT_SECRET=from-dotenv\n")
	t.Setenv("CONFIG_PATH", "")
	unsetenv(t, "JWT_SECRET")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.JWTSecret)
}

func TestLoad_WithExplicitPath(t *testing.T) {
	chdir(t, t.TempDir())
	p := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)

	cfg, err := Load(p)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "libsql://links.example.turso.io", cfg.DatabaseURL)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, 7, cfg.MaxQueryDepth)
	require.False(t, cfg.Playground)
}

func TestLoad_ExplicitZeroValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("yaml", func(t *testing.T) {
		p := writeFile(t, t.TempDir(), "config.yaml", "max_query_depth: 0\nplayground: false\n")

		cfg, err := Load(p)
		require.NoError(t, err)
		require.Equal(t, 0, cfg.MaxQueryDepth)
		require.False(t, cfg.Playground)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("MAX_QUERY_DEPTH", "0")
		t.Setenv("PLAYGROUND", "false")

		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, 0, cfg.MaxQueryDepth)
		require.False(t, cfg.Playground)
	})
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	chdir(t, t.TempDir())
	p := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", p)
	t.Setenv("PORT", "7777")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "7777", cfg.Port)
	require.Equal(t, "prod", cfg.Env)
}

func TestLoad_Errors(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.yaml")

	_, err = Load(writeFile(t, dir, "broken.yaml", "env: [unclosed\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config")

	_, err = Load(writeFile(t, dir, "depth.yaml", "max_query_depth: -1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "max query depth")
}

func TestMustLoad_Panics(t *testing.T) {
	chdir(t, t.TempDir())
	require.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yaml")) })
}
