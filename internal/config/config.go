// Package config resolves runtime configuration (storage root, listen
// address, compare/report tuning) from environment variables and an
// optional config file, layered with viper.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the engine's runtime configuration. Load fills every field,
// but only StorageRoot and ListenAddr are read elsewhere (by
// cmd/webdiffengine). The tuning fields below are not passed to any
// engine; the engines use their own built-in limits, thresholds and
// retention window.
type Config struct {
	// StorageRoot roots the projects/ tree (STORAGE_PATH).
	StorageRoot string

	// ListenAddr is the HTTP surface's bind address.
	ListenAddr string

	// CompareConcurrency bounds simultaneous per-screen comparisons.
	CompareConcurrency int

	// MyersLineCap guards the text differ's worst-case cost.
	MyersLineCap int

	// CSSWalkDepth bounds the parallel DOM/CSS tree walk.
	CSSWalkDepth int

	// BodyDiffDepth bounds the recursive API body structural diff.
	BodyDiffDepth int

	// DefaultThresholds seeds test-runner thresholds when a caller omits them.
	DefaultThresholds Thresholds

	// ScoreTimeout bounds a single screen's scoring pass.
	ScoreTimeout time.Duration

	// ReportRetention is how long report records survive before GC.
	ReportRetention time.Duration
}

// Thresholds mirrors model.Thresholds without importing it, so config has
// no dependency on the domain model package.
type Thresholds struct {
	DOM    float64
	API    float64
	Visual float64
}

// Load builds a Config from environment variables, an optional config
// file, and viper defaults. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WDE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("webdiffengine")
	}

	v.SetDefault("storage_path", "./storage")
	v.SetDefault("listen_addr", "0.0.0.0:8080")
	v.SetDefault("compare_concurrency", 5)
	v.SetDefault("myers_line_cap", 5000)
	v.SetDefault("css_walk_depth", 20)
	v.SetDefault("body_diff_depth", 5)
	v.SetDefault("threshold_dom", 95.0)
	v.SetDefault("threshold_api", 100.0)
	v.SetDefault("threshold_visual", 90.0)
	v.SetDefault("score_timeout_seconds", 30)
	v.SetDefault("report_retention_days", 30)

	// Best-effort: absence of a config file is not an error.
	_ = v.ReadInConfig()

	// STORAGE_PATH (bare, no prefix) is the normative env var for the storage root.
	if raw := os.Getenv("STORAGE_PATH"); raw != "" {
		v.Set("storage_path", raw)
	}

	cfg := &Config{
		StorageRoot:        v.GetString("storage_path"),
		ListenAddr:         v.GetString("listen_addr"),
		CompareConcurrency: v.GetInt("compare_concurrency"),
		MyersLineCap:       v.GetInt("myers_line_cap"),
		CSSWalkDepth:       v.GetInt("css_walk_depth"),
		BodyDiffDepth:      v.GetInt("body_diff_depth"),
		DefaultThresholds: Thresholds{
			DOM:    v.GetFloat64("threshold_dom"),
			API:    v.GetFloat64("threshold_api"),
			Visual: v.GetFloat64("threshold_visual"),
		},
		ScoreTimeout:    time.Duration(v.GetInt("score_timeout_seconds")) * time.Second,
		ReportRetention: time.Duration(v.GetInt("report_retention_days")) * 24 * time.Hour,
	}
	return cfg, nil
}

