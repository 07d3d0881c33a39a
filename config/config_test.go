// ABOUTME: Tests for configuration loading, overrides and token storage
// ABOUTME: Redirects the XDG data home into a temp dir for every test
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func useTempHome(t *testing.T) string {
	t.Helper()
	orig := xdg.DataHome
	dir := t.TempDir()
	xdg.DataHome = dir
	t.Cleanup(func() { xdg.DataHome = orig })

	// Keep a developer's .env out of the test.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	home := useTempHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Resolver.BatchSize)
	assert.Equal(t, 5, cfg.Resolver.Concurrency)
	assert.Equal(t, time.Millisecond, cfg.Resolver.WaveDelay)
	assert.Equal(t, 1000, cfg.Resolver.CacheLimit)
	assert.Equal(t, filepath.Join(home, AppName, "formsync.db"), cfg.DatabasePath())
	assert.False(t, cfg.IsConfigured())
}

func TestSaveAndLoad(t *testing.T) {
	useTempHome(t)

	cfg := Default()
	cfg.APIBaseURL = "https://forms.example.com"
	cfg.ProjectID = "p1"
	cfg.Resolver.BatchSize = 50
	require.NoError(t, cfg.Save())

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://forms.example.com", loaded.APIBaseURL)
	assert.Equal(t, 50, loaded.Resolver.BatchSize)
	assert.True(t, loaded.IsConfigured())
}

func TestEnvOverrides(t *testing.T) {
	useTempHome(t)
	t.Setenv("FORMSYNC_PROJECT", "from-env")
	t.Setenv("FORMSYNC_CONCURRENCY", "2")
	t.Setenv("FORMSYNC_WAVE_DELAY", "5ms")
	t.Setenv("FORMSYNC_DATA_DIR", "/tmp/formsync-data")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ProjectID)
	assert.Equal(t, 2, cfg.Resolver.Concurrency)
	assert.Equal(t, 5*time.Millisecond, cfg.Resolver.WaveDelay)
	assert.Equal(t, "/tmp/formsync-data/history", cfg.HistoryDir())
}

func TestEnvOverrides_Invalid(t *testing.T) {
	useTempHome(t)
	t.Setenv("FORMSYNC_BATCH_SIZE", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestDotEnv(t *testing.T) {
	useTempHome(t)
	require.NoError(t, os.WriteFile(".env", []byte("FORMSYNC_API_URL=https://dotenv.example.com\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("FORMSYNC_API_URL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.com", cfg.APIBaseURL)
}

func TestLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"WARN":    log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}
	for name, want := range tests {
		assert.Equal(t, want, (&Config{LogLevel: name}).Level(), name)
	}
}

func TestTokenSource(t *testing.T) {
	useTempHome(t)

	_, err := (&Config{}).TokenSource()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, SaveToken(&oauth2.Token{AccessToken: "stored"}))
	ts, err := (&Config{}).TokenSource()
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "stored", tok.AccessToken)

	ts, err = (&Config{Token: "configured"}).TokenSource()
	require.NoError(t, err)
	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "configured", tok.AccessToken)
}
