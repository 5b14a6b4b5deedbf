package config

import (
	"github.com/allaspectsdev/canonstore/internal/recovery"
	"github.com/allaspectsdev/canonstore/internal/serialize"
	"github.com/allaspectsdev/canonstore/internal/tiercache"
)

// DefaultConfigFilename is the name of the config file.
const DefaultConfigFilename = "canonstore.toml"

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// DefaultCacheMaxSize is the size of the single-tier fingerprint cache used
// when the tiered cache is disabled. It does not limit the primary store.
const DefaultCacheMaxSize = 10000

// DefaultCacheCleanupIntervalMs is the interval between auto-cleanup passes.
const DefaultCacheCleanupIntervalMs = 60000

// DefaultRecoveryFallbackMode selects how the engine behaves once the
// recovery controller trips its fallback latch: "auto" lets it clear on
// its own a fixed interval after it last tripped, "manual" requires an
// explicit LeaveFallback call, "disabled" keeps the latch from tripping.
const DefaultRecoveryFallbackMode = "auto"

// DefaultPluginTimeoutMs bounds how long a plugin lifecycle call
// (install/enable/disable/uninstall) may run before the registry gives up.
const DefaultPluginTimeoutMs = 5000

const DefaultAsyncBatchSize = 100
const DefaultAsyncMaxConcurrency = 4

// DefaultTracingExporter is the default tracing exporter type.
const DefaultTracingExporter = "stdout"

// DefaultTracingEndpoint is the default OTLP collector endpoint, used only
// when Exporter is "otlp-grpc" or "otlp-http".
const DefaultTracingEndpoint = "localhost:4317"

// DefaultTracingServiceName is the default service name for traces.
const DefaultTracingServiceName = "canonstore"

// DefaultTracingSampleRate is the default sampling rate (1.0 = 100%).
const DefaultTracingSampleRate = 1.0

// ValidLogLevels lists the allowed log level values.
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal"}

// ValidFallbackModes lists the allowed recovery.fallback_mode values.
var ValidFallbackModes = []string{"auto", "manual", "disabled"}

// ValidTracingExporters lists the allowed tracing.exporter values.
var ValidTracingExporters = []string{"stdout", "otlp-grpc", "otlp-http"}

// DefaultConfig returns the built-in configuration, used both as the
// baseline unmarshal target for Load and as the document InitConfig
// writes out.
//
// The cache and serializer numeric defaults are read directly off the
// internal/tiercache and internal/serialize packages rather than
// hardcoded a second time here, so a change to either package's defaults
// can't silently drift out of sync with this config's defaults.
func DefaultConfig() *Config {
	recoveryDefaults := recovery.DefaultPolicies()[recovery.KindSerialization]

	return &Config{
		LogLevel: DefaultLogLevel,
		Cache: CacheConfig{
			Enabled:           true,
			MaxSize:           DefaultCacheMaxSize,
			TieredEnabled:     true,
			L1Size:            tiercache.DefaultL1Size,
			L2Size:            tiercache.DefaultL2Size,
			PromoteThreshold:  tiercache.DefaultPromoteThreshold,
			AutoCleanup:       true,
			CleanupIntervalMs: DefaultCacheCleanupIntervalMs,
		},
		Serializer: SerializerConfig{
			AdaptiveEnabled:       true,
			MaxDepth:              serialize.DefaultMaxDepth,
			DistinctOpaqueSymbols: false,
		},
		Recovery: RecoveryConfig{
			Enabled:      true,
			MaxRetries:   recoveryDefaults.MaxRetries,
			FallbackMode: DefaultRecoveryFallbackMode,
		},
		Plugins: PluginsConfig{
			Enabled:   true,
			TimeoutMs: DefaultPluginTimeoutMs,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:          true,
			TrackPerformance: false,
		},
		Async: AsyncConfig{
			Enabled:        false,
			BatchSize:      DefaultAsyncBatchSize,
			MaxConcurrency: DefaultAsyncMaxConcurrency,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    DefaultTracingExporter,
			Endpoint:    DefaultTracingEndpoint,
			ServiceName: DefaultTracingServiceName,
			SampleRate:  DefaultTracingSampleRate,
			Insecure:    false,
		},
	}
}
