package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return DefaultConfig()
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := validate(cfg); err != nil {
		t.Fatalf("validate valid config: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "verbose"

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level: %v", err)
	}
}

func TestValidate_NegativeCacheMaxSize(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.MaxSize = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative cache_max_size")
	}
	if !strings.Contains(err.Error(), "cache_max_size") {
		t.Errorf("error should mention cache_max_size: %v", err)
	}
}

func TestValidate_L1ExceedsL2(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.TieredEnabled = true
	cfg.Cache.L1Size = 10000
	cfg.Cache.L2Size = 5000

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error when l1_cache_size exceeds l2_cache_size")
	}
}

func TestValidate_ZeroPromoteThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.PromoteThreshold = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for promote_threshold = 0")
	}
}

func TestValidate_NegativeCleanupInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.CleanupIntervalMs = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative cleanup_interval_ms")
	}
}

func TestValidate_ZeroMaxDepth(t *testing.T) {
	cfg := validConfig()
	cfg.Serializer.MaxDepth = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for max_depth = 0")
	}
}

func TestValidate_NegativeMaxRetries(t *testing.T) {
	cfg := validConfig()
	cfg.Recovery.MaxRetries = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative max_retries")
	}
}

func TestValidate_BadFallbackMode(t *testing.T) {
	cfg := validConfig()
	cfg.Recovery.FallbackMode = "explode"

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid fallback_mode")
	}
	if !strings.Contains(err.Error(), "fallback_mode") {
		t.Errorf("error should mention fallback_mode: %v", err)
	}
}

func TestValidate_NegativePluginTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Plugins.TimeoutMs = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for negative plugin_timeout_ms")
	}
}

func TestValidate_ZeroBatchSize(t *testing.T) {
	cfg := validConfig()
	cfg.Async.BatchSize = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for batch_size = 0")
	}
}

func TestValidate_ZeroMaxConcurrency(t *testing.T) {
	cfg := validConfig()
	cfg.Async.MaxConcurrency = 0

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for max_concurrency = 0")
	}
}

func TestValidate_BadTracingExporter(t *testing.T) {
	cfg := validConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "carrier-pigeon"

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid tracing exporter")
	}
	if !strings.Contains(err.Error(), "tracing.exporter") {
		t.Errorf("error should mention tracing.exporter: %v", err)
	}
}

func TestValidate_TracingEmptyServiceName(t *testing.T) {
	cfg := validConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.ServiceName = ""

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for empty service_name when tracing enabled")
	}
}

func TestValidate_SampleRateOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Tracing.SampleRate = 1.5

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for sample_rate > 1")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "bad"
	cfg.Cache.MaxSize = -1

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") || !strings.Contains(errStr, "cache_max_size") {
		t.Errorf("error should mention multiple fields: %v", err)
	}
}

func TestIsValidEnum(t *testing.T) {
	if !isValidEnum("INFO", ValidLogLevels) {
		t.Error("INFO should be valid (case-insensitive)")
	}
	if isValidEnum("verbose", ValidLogLevels) {
		t.Error("verbose should not be valid")
	}
}
