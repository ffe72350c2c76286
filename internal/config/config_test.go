package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "slideverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, verify.ModeLocalTolerance, cfg.Mode())
	assert.Equal(t, verify.DefaultToleranceWindow(), cfg.Window())

	rc, err := cfg.RecoveryConfig()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, rc.HoldDelay)
	assert.Equal(t, 500*time.Millisecond, rc.Duration)
	assert.Equal(t, 16*time.Millisecond, rc.FrameInterval)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
geometry:
  track_width: 400
verification:
  mode: delegated
  remote_addr: verifier:9000
  timeout: 2s
recovery:
  hold_delay: 0s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 400.0, cfg.Geometry.TrackWidth)
	assert.Equal(t, 50.0, cfg.Geometry.HandleWidth)
	assert.Equal(t, verify.ModeDelegated, cfg.Mode())
	assert.Equal(t, "verifier:9000", cfg.Verification.RemoteAddr)

	timeout, err := cfg.VerifyTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)

	rc, err := cfg.RecoveryConfig()
	require.NoError(t, err)
	assert.Zero(t, rc.HoldDelay)
	assert.Equal(t, 500*time.Millisecond, rc.Duration)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SLIDEVERIFY_DB", "/tmp/other.db")
	t.Setenv("SLIDEVERIFY_VERIFIER_ADDR", "remote:1234")
	t.Setenv("SLIDEVERIFY_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Store.DatabasePath)
	assert.Equal(t, "remote:1234", cfg.Verification.RemoteAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero track":       func(c *Config) { c.Geometry.TrackWidth = 0 },
		"handle too wide":  func(c *Config) { c.Geometry.HandleWidth = 500 },
		"unknown mode":     func(c *Config) { c.Verification.Mode = "oracle" },
		"negative epsilon": func(c *Config) { c.Verification.Epsilon = -1 },
		"delegated no addr": func(c *Config) {
			c.Verification.Mode = string(verify.ModeDelegated)
			c.Verification.RemoteAddr = ""
		},
		"bad timeout":    func(c *Config) { c.Verification.Timeout = "soon" },
		"negative hold":  func(c *Config) { c.Recovery.HoldDelay = "-1s" },
		"empty database": func(c *Config) { c.Store.DatabasePath = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "geometry: [not, a, map]\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Geometry.TrackWidth = 320
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWatchDeliversReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "geometry:\n  track_width: 300\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, nil, func(c Config) { got <- c }) }()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("geometry:\n  track_width: 360\n"), 0o644))

	require.Eventually(t, func() bool {
		select {
		case c := <-got:
			return c.Geometry.TrackWidth == 360
		default:
			return false
		}
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
