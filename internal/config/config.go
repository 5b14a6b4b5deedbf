// Package config loads and validates canonstore's configuration: the
// cache/serializer/recovery/plugin/async sections, plus the ambient
// logging/tracing settings a deployed engine needs. It uses a
// viper+go-toml+mapstructure layered loader with an atomic current-config
// pointer and env-var overlay.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

var configPtr atomic.Pointer[Config]
var loadedConfigFile atomic.Value

// Get returns the current Config, defaulting to DefaultConfig if nothing
// has been loaded yet. Safe for concurrent use.
func Get() *Config {
	if c := configPtr.Load(); c != nil {
		return c
	}
	d := DefaultConfig()
	configPtr.Store(d)
	return d
}

func set(cfg *Config) { configPtr.Store(cfg) }

// Config is canonstore's top-level configuration, covering every
// recognized option key.
type Config struct {
	LogLevel    string            `mapstructure:"log_level"   toml:"log_level"`
	Cache       CacheConfig       `mapstructure:"cache"       toml:"cache"`
	Serializer  SerializerConfig  `mapstructure:"serializer"  toml:"serializer"`
	Recovery    RecoveryConfig    `mapstructure:"recovery"    toml:"recovery"`
	Plugins     PluginsConfig     `mapstructure:"plugins"     toml:"plugins"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" toml:"diagnostics"`
	Async       AsyncConfig       `mapstructure:"async"       toml:"async"`
	Tracing     TracingConfig     `mapstructure:"tracing"     toml:"tracing"`
}

// CacheConfig covers enable_cache, cache_max_size, enable_tiered_cache,
// l1_cache_size, l2_cache_size, promote_threshold, enable_auto_cleanup,
// and cleanup_interval_ms.
type CacheConfig struct {
	Enabled           bool `mapstructure:"enable_cache"         toml:"enable_cache"`
	MaxSize           int  `mapstructure:"cache_max_size"       toml:"cache_max_size"`
	TieredEnabled     bool `mapstructure:"enable_tiered_cache"  toml:"enable_tiered_cache"`
	L1Size            int  `mapstructure:"l1_cache_size"        toml:"l1_cache_size"`
	L2Size            int  `mapstructure:"l2_cache_size"        toml:"l2_cache_size"`
	PromoteThreshold  int  `mapstructure:"promote_threshold"    toml:"promote_threshold"`
	AutoCleanup       bool `mapstructure:"enable_auto_cleanup"  toml:"enable_auto_cleanup"`
	CleanupIntervalMs int  `mapstructure:"cleanup_interval_ms"  toml:"cleanup_interval_ms"`
}

// SerializerConfig covers enable_adaptive_serialization plus the depth and
// opaque-symbol knobs.
type SerializerConfig struct {
	AdaptiveEnabled       bool `mapstructure:"enable_adaptive_serialization" toml:"enable_adaptive_serialization"`
	MaxDepth              int  `mapstructure:"max_depth"                     toml:"max_depth"`
	DistinctOpaqueSymbols bool `mapstructure:"distinct_opaque_symbols"       toml:"distinct_opaque_symbols"`
}

// RecoveryConfig covers enable_error_recovery, max_retries, fallback_mode.
type RecoveryConfig struct {
	Enabled      bool   `mapstructure:"enable_error_recovery" toml:"enable_error_recovery"`
	MaxRetries   int    `mapstructure:"max_retries"           toml:"max_retries"`
	FallbackMode string `mapstructure:"fallback_mode"         toml:"fallback_mode"` // "auto" | "manual" | "disabled"
}

// PluginsConfig covers enable_plugins, plugin_timeout_ms.
type PluginsConfig struct {
	Enabled    bool `mapstructure:"enable_plugins"     toml:"enable_plugins"`
	TimeoutMs  int  `mapstructure:"plugin_timeout_ms"  toml:"plugin_timeout_ms"`
}

// DiagnosticsConfig covers enable_diagnostics, track_performance.
type DiagnosticsConfig struct {
	Enabled          bool `mapstructure:"enable_diagnostics"  toml:"enable_diagnostics"`
	TrackPerformance bool `mapstructure:"track_performance"   toml:"track_performance"`
}

// AsyncConfig covers enable_async, batch_size, max_concurrency.
type AsyncConfig struct {
	Enabled        bool `mapstructure:"enable_async"      toml:"enable_async"`
	BatchSize      int  `mapstructure:"batch_size"        toml:"batch_size"`
	MaxConcurrency int  `mapstructure:"max_concurrency"   toml:"max_concurrency"`
}

// TracingConfig controls OpenTelemetry export for internal/telemetry,
// carried as ambient infrastructure regardless of the original spec's
// non-goals around an outer observability layer.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"      toml:"enabled"`
	Exporter    string  `mapstructure:"exporter"     toml:"exporter"` // "stdout" | "otlp-grpc" | "otlp-http"
	Endpoint    string  `mapstructure:"endpoint"     toml:"endpoint"`
	ServiceName string  `mapstructure:"service_name" toml:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"  toml:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"     toml:"insecure"`
}

// Load reads configuration with the following precedence: environment
// variables (CANONSTORE_ prefix), the file at explicitPath if non-empty,
// ~/.canonstore/canonstore.toml, ./canonstore.toml, then built-in
// defaults. The result is validated and stored in the global atomic
// pointer.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setViperDefaults(v)

	v.SetEnvPrefix("CANONSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".canonstore"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("canonstore")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if cf := v.ConfigFileUsed(); cf != "" {
		loadedConfigFile.Store(cf)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	set(cfg)
	return cfg, nil
}

// InitConfig writes the default configuration to ~/.canonstore/canonstore.toml
// if it does not already exist.
func InitConfig() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("determining home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".canonstore")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, DefaultConfigFilename)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshalling default config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ExportConfig writes the current config to path in TOML format.
func ExportConfig(path string) error {
	data, err := toml.Marshal(Get())
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ImportConfig reads a TOML config file, validates it, and makes it the
// current config.
func ImportConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return err
	}
	set(cfg)
	return nil
}

// ConfigFilePath returns the path of the config file last loaded, or empty.
func ConfigFilePath() string {
	if v, ok := loadedConfigFile.Load().(string); ok {
		return v
	}
	return ""
}

func setViperDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("cache.enable_cache", d.Cache.Enabled)
	v.SetDefault("cache.cache_max_size", d.Cache.MaxSize)
	v.SetDefault("cache.enable_tiered_cache", d.Cache.TieredEnabled)
	v.SetDefault("cache.l1_cache_size", d.Cache.L1Size)
	v.SetDefault("cache.l2_cache_size", d.Cache.L2Size)
	v.SetDefault("cache.promote_threshold", d.Cache.PromoteThreshold)
	v.SetDefault("cache.enable_auto_cleanup", d.Cache.AutoCleanup)
	v.SetDefault("cache.cleanup_interval_ms", d.Cache.CleanupIntervalMs)

	v.SetDefault("serializer.enable_adaptive_serialization", d.Serializer.AdaptiveEnabled)
	v.SetDefault("serializer.max_depth", d.Serializer.MaxDepth)
	v.SetDefault("serializer.distinct_opaque_symbols", d.Serializer.DistinctOpaqueSymbols)

	v.SetDefault("recovery.enable_error_recovery", d.Recovery.Enabled)
	v.SetDefault("recovery.max_retries", d.Recovery.MaxRetries)
	v.SetDefault("recovery.fallback_mode", d.Recovery.FallbackMode)

	v.SetDefault("plugins.enable_plugins", d.Plugins.Enabled)
	v.SetDefault("plugins.plugin_timeout_ms", d.Plugins.TimeoutMs)

	v.SetDefault("diagnostics.enable_diagnostics", d.Diagnostics.Enabled)
	v.SetDefault("diagnostics.track_performance", d.Diagnostics.TrackPerformance)

	v.SetDefault("async.enable_async", d.Async.Enabled)
	v.SetDefault("async.batch_size", d.Async.BatchSize)
	v.SetDefault("async.max_concurrency", d.Async.MaxConcurrency)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.insecure", d.Tracing.Insecure)
}
