package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

var overrideKeys = []string{
	"BANKDESK_BACKEND_URL", "BACKEND_URL", "BANKDESK_BACKEND_TIMEOUT",
	"BANKDESK_LOG_LEVEL", "BANKDESK_LOG_FORMAT", "BANKDESK_LOG_FILE",
	"BANKDESK_IMPORT_DIR", "BANKDESK_PROCESSED_DIR", "BANKDESK_ACTIVITY_LOG",
}

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "https://books.example.com"
	cfg.Backend.Timeout = 45 * time.Second
	cfg.Logging.Level = "debug"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Backend.URL, got.Backend.URL)
	assert.Equal(t, 45*time.Second, got.Backend.Timeout)
	assert.Equal(t, "debug", got.Logging.Level)
	assert.Equal(t, cfg.Import, got.Import)
	assert.Equal(t, cfg.ActivityLog, got.ActivityLog)
	assert.Equal(t, filepath.Dir(path), got.Dir())
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "import", cfg.Import.Dir)
	assert.Equal(t, "import/processed", cfg.Import.ProcessedDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "logs/activity.csv", cfg.ActivityLog)
	assert.NoError(t, Validate(cfg))
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  url: http://books:9000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://books:9000", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "url: http://localhost:8000")
	assert.Contains(t, contents, "timeout: 30s")
	assert.Contains(t, contents, "processed_dir: import/processed")
	assert.Contains(t, contents, "activity_log: logs/activity.csv")
}

func TestResolveMissingFile(t *testing.T) {
	unsetEnv(t, overrideKeys...)
	path := filepath.Join(t.TempDir(), FileName)

	cfg, err := Resolve(path, false)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)

	_, err = Resolve(path, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveEnvBeatsFile(t *testing.T) {
	unsetEnv(t, overrideKeys...)
	path := filepath.Join(t.TempDir(), FileName)
	cfg := Default()
	cfg.Backend.URL = "http://from-file:8000"
	cfg.Logging.Level = "warn"
	require.NoError(t, Save(path, cfg))

	t.Setenv("BANKDESK_BACKEND_URL", "http://from-env:8000")
	t.Setenv("BANKDESK_BACKEND_TIMEOUT", "5s")
	t.Setenv("BANKDESK_LOG_LEVEL", "DEBUG")

	got, err := Resolve(path, true)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8000", got.Backend.URL)
	assert.Equal(t, 5*time.Second, got.Backend.Timeout)
	assert.Equal(t, "debug", got.Logging.Level)
}

func TestResolveBackendURLFallback(t *testing.T) {
	unsetEnv(t, overrideKeys...)
	t.Setenv("BACKEND_URL", "http://legacy:8000")

	got, err := Resolve(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	assert.Equal(t, "http://legacy:8000", got.Backend.URL)

	t.Setenv("BANKDESK_BACKEND_URL", "http://preferred:8000")
	got, err = Resolve(filepath.Join(t.TempDir(), FileName), false)
	require.NoError(t, err)
	assert.Equal(t, "http://preferred:8000", got.Backend.URL)
}

func TestResolveDotEnv(t *testing.T) {
	unsetEnv(t, overrideKeys...)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BANKDESK_IMPORT_DIR=statements\n"), 0o644))

	got, err := Resolve(filepath.Join(dir, FileName), false)
	require.NoError(t, err)
	assert.Equal(t, "statements", got.Import.Dir)
	assert.Equal(t, filepath.Join(dir, "statements"), got.Path(got.Import.Dir))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.Backend.URL = "localhost:8000" }, "Backend.URL"},
		{"empty url", func(c *Config) { c.Backend.URL = "" }, "Backend.URL"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "Logging.Level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "Logging.Format"},
		{"negative timeout", func(c *Config) { c.Backend.Timeout = -time.Second }, "Backend.Timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestResolveInvalidURLFromEnv(t *testing.T) {
	unsetEnv(t, overrideKeys...)
	t.Setenv("BANKDESK_BACKEND_URL", "not a url")

	_, err := Resolve(filepath.Join(t.TempDir(), FileName), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Backend.URL")
}

func TestPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "logs/activity.csv", cfg.Path("logs/activity.csv"))
	assert.Equal(t, "/var/log/x.csv", cfg.Path("/var/log/x.csv"))
	assert.Equal(t, "", cfg.Path(""))
}
