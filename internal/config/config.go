package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/slide-verify/internal/recovery"
	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

// #region types
// Config holds all slide-verify configuration.
type Config struct {
	Geometry     GeometryConfig     `yaml:"geometry"`
	Verification VerificationConfig `yaml:"verification"`
	Recovery     RecoveryConfig     `yaml:"recovery"`
	Store        StoreConfig        `yaml:"store"`
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// GeometryConfig gives the track and handle widths; maxOffset is their difference.
type GeometryConfig struct {
	TrackWidth  float64 `yaml:"track_width"`
	HandleWidth float64 `yaml:"handle_width"`
}

// VerificationConfig selects local or delegated verification.
type VerificationConfig struct {
	Mode         string  `yaml:"mode"` // local_tolerance, delegated
	TargetOffset float64 `yaml:"target_offset"`
	Epsilon      float64 `yaml:"epsilon"`
	RemoteAddr   string  `yaml:"remote_addr"`
	// Timeout bounds the delegated predicate on the host side. Empty means
	// no bound: a hung verifier keeps the widget VERIFYING.
	Timeout string `yaml:"timeout"`
}

// RecoveryConfig controls the failed-attempt animation.
type RecoveryConfig struct {
	HoldDelay     string `yaml:"hold_delay"`
	Duration      string `yaml:"duration"`
	FrameInterval string `yaml:"frame_interval"`
}

// StoreConfig locates the attempt database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig configures `slideverify serve`.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// #endregion types

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// #region defaults
// DefaultConfig returns the bundled puzzle defaults.
func DefaultConfig() Config {
	return Config{
		Geometry: GeometryConfig{TrackWidth: 300, HandleWidth: 50},
		Verification: VerificationConfig{
			Mode:         string(verify.ModeLocalTolerance),
			TargetOffset: 79,
			Epsilon:      3,
			RemoteAddr:   "localhost:50061",
		},
		Recovery: RecoveryConfig{
			HoldDelay:     "500ms",
			Duration:      "500ms",
			FrameInterval: "16ms",
		},
		Store:   StoreConfig{DatabasePath: "slideverify.db"},
		Server:  ServerConfig{Listen: ":50061"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// #endregion defaults

// #region load
// Load reads path over the defaults, then applies environment overrides. An
// empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store.DatabasePath = envOr("SLIDEVERIFY_DB", c.Store.DatabasePath)
	c.Verification.RemoteAddr = envOr("SLIDEVERIFY_VERIFIER_ADDR", c.Verification.RemoteAddr)
	c.Logging.Level = envOr("SLIDEVERIFY_LOG_LEVEL", c.Logging.Level)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region validate
// Validate checks ranges and parses every duration.
func (c Config) Validate() error {
	if c.Geometry.TrackWidth <= 0 || c.Geometry.HandleWidth <= 0 {
		return fmt.Errorf("%w: track and handle widths must be positive", ErrInvalidConfig)
	}
	if c.Geometry.HandleWidth > c.Geometry.TrackWidth {
		return fmt.Errorf("%w: handle wider than track", ErrInvalidConfig)
	}

	mode, err := verify.ParseMode(c.Verification.Mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Verification.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must not be negative", ErrInvalidConfig)
	}
	if mode == verify.ModeDelegated && c.Verification.RemoteAddr == "" {
		return fmt.Errorf("%w: delegated mode needs verification.remote_addr", ErrInvalidConfig)
	}
	if _, err := c.VerifyTimeout(); err != nil {
		return err
	}
	if _, err := c.RecoveryConfig(); err != nil {
		return err
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("%w: store.database_path is empty", ErrInvalidConfig)
	}
	return nil
}

// #endregion validate

// #region accessors
// Mode returns the parsed verification mode.
func (c Config) Mode() verify.Mode {
	m, _ := verify.ParseMode(c.Verification.Mode)
	return m
}

// Window returns the tolerance window.
func (c Config) Window() verify.ToleranceWindow {
	return verify.ToleranceWindow{Target: c.Verification.TargetOffset, Epsilon: c.Verification.Epsilon}
}

// VerifyTimeout parses verification.timeout; zero when unset.
func (c Config) VerifyTimeout() (time.Duration, error) {
	return parseDuration("verification.timeout", c.Verification.Timeout)
}

// RecoveryConfig converts the recovery section into animator settings.
func (c Config) RecoveryConfig() (recovery.Config, error) {
	hold, err := parseDuration("recovery.hold_delay", c.Recovery.HoldDelay)
	if err != nil {
		return recovery.Config{}, err
	}
	dur, err := parseDuration("recovery.duration", c.Recovery.Duration)
	if err != nil {
		return recovery.Config{}, err
	}
	frame, err := parseDuration("recovery.frame_interval", c.Recovery.FrameInterval)
	if err != nil {
		return recovery.Config{}, err
	}
	return recovery.Config{
		HoldDelay:     hold,
		Duration:      dur,
		FrameInterval: frame,
		Easing:        recovery.Linear,
	}, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, field)
	}
	return d, nil
}

// #endregion accessors
