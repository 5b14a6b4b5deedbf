package config

import (
	"fmt"
	"strings"
)

// validate checks the Config for invalid or out-of-range values. It
// returns a combined error if any checks fail, accumulating every
// violation before joining them rather than stopping at the first.
func validate(cfg *Config) error {
	var errs []string

	if !isValidEnum(cfg.LogLevel, ValidLogLevels) {
		errs = append(errs, fmt.Sprintf("log_level must be one of %v, got %q", ValidLogLevels, cfg.LogLevel))
	}

	// Cache validation
	if cfg.Cache.MaxSize < 0 {
		errs = append(errs, fmt.Sprintf("cache.cache_max_size must be non-negative, got %d", cfg.Cache.MaxSize))
	}
	if cfg.Cache.L1Size < 0 {
		errs = append(errs, fmt.Sprintf("cache.l1_cache_size must be non-negative, got %d", cfg.Cache.L1Size))
	}
	if cfg.Cache.L2Size < 0 {
		errs = append(errs, fmt.Sprintf("cache.l2_cache_size must be non-negative, got %d", cfg.Cache.L2Size))
	}
	if cfg.Cache.TieredEnabled && cfg.Cache.L1Size > cfg.Cache.L2Size {
		errs = append(errs, fmt.Sprintf("cache.l1_cache_size (%d) must not exceed cache.l2_cache_size (%d)", cfg.Cache.L1Size, cfg.Cache.L2Size))
	}
	if cfg.Cache.PromoteThreshold < 1 {
		errs = append(errs, fmt.Sprintf("cache.promote_threshold must be at least 1, got %d", cfg.Cache.PromoteThreshold))
	}
	if cfg.Cache.CleanupIntervalMs < 0 {
		errs = append(errs, fmt.Sprintf("cache.cleanup_interval_ms must be non-negative, got %d", cfg.Cache.CleanupIntervalMs))
	}

	// Serializer validation
	if cfg.Serializer.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("serializer.max_depth must be at least 1, got %d", cfg.Serializer.MaxDepth))
	}

	// Recovery validation
	if cfg.Recovery.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("recovery.max_retries must be non-negative, got %d", cfg.Recovery.MaxRetries))
	}
	if !isValidEnum(cfg.Recovery.FallbackMode, ValidFallbackModes) {
		errs = append(errs, fmt.Sprintf("recovery.fallback_mode must be one of %v, got %q", ValidFallbackModes, cfg.Recovery.FallbackMode))
	}

	// Plugins validation
	if cfg.Plugins.TimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("plugins.plugin_timeout_ms must be non-negative, got %d", cfg.Plugins.TimeoutMs))
	}

	// Async validation
	if cfg.Async.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("async.batch_size must be at least 1, got %d", cfg.Async.BatchSize))
	}
	if cfg.Async.MaxConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("async.max_concurrency must be at least 1, got %d", cfg.Async.MaxConcurrency))
	}

	// Tracing validation
	if cfg.Tracing.Enabled {
		if !isValidEnum(cfg.Tracing.Exporter, ValidTracingExporters) {
			errs = append(errs, fmt.Sprintf("tracing.exporter must be one of %v, got %q", ValidTracingExporters, cfg.Tracing.Exporter))
		}
		if cfg.Tracing.ServiceName == "" {
			errs = append(errs, "tracing.service_name must not be empty when tracing is enabled")
		}
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("tracing.sample_rate must be between 0 and 1, got %f", cfg.Tracing.SampleRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// isValidEnum returns true if val is in the allowed list (case-insensitive).
func isValidEnum(val string, allowed []string) bool {
	lower := strings.ToLower(val)
	for _, a := range allowed {
		if strings.ToLower(a) == lower {
			return true
		}
	}
	return false
}
