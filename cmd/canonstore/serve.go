package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/allaspectsdev/canonstore"
	"github.com/allaspectsdev/canonstore/internal/config"
	"github.com/allaspectsdev/canonstore/internal/daemon"
	"github.com/allaspectsdev/canonstore/internal/httpapi"
	"github.com/allaspectsdev/canonstore/internal/recovery"
	"github.com/allaspectsdev/canonstore/internal/telemetry"
	"github.com/allaspectsdev/canonstore/internal/version"
)

// pidDir holds canonstore's own runtime state (the serve PID file); it is
// not the content-addressed store's data, which Non-goal (a) keeps out of
// the core entirely.
func pidDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return dir + "/canonstore"
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "listen address")
	configPath := fs.String("config", "", "explicit config file path")
	background := fs.Bool("background", false, "guard with a PID file; the process stays in the foreground")
	fs.Parse(args)

	if *background {
		if daemon.IsRunning(pidDir()) {
			fmt.Fprintln(os.Stderr, "canonstore: a serve process is already running")
			os.Exit(1)
		}
		if err := daemon.WritePID(pidDir()); err != nil {
			fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
			os.Exit(1)
		}
		defer daemon.RemovePID(pidDir())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: loading config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := log.With().Str("component", "serve").Logger()

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.Init(context.Background(), cfg.Tracing.ServiceName, version.Version, cfg.Tracing.Exporter, cfg.Tracing.Endpoint, cfg.Tracing.SampleRate, cfg.Tracing.Insecure)
		if err != nil {
			logger.Warn().Err(err).Msg("tracing disabled: failed to initialize exporter")
		} else {
			defer shutdown(context.Background())
		}
	}

	engine := canonstore.New(canonstore.Options{
		EnableTieredCache:            cfg.Cache.Enabled,
		DisableTieredCache:           !cfg.Cache.Enabled,
		CacheL1Size:                  cfg.Cache.L1Size,
		CacheL2Size:                  cfg.Cache.L2Size,
		CachePromoteThresh:           cfg.Cache.PromoteThreshold,
		FlatCache:                    !cfg.Cache.TieredEnabled,
		FlatCacheMaxSize:             cfg.Cache.MaxSize,
		SerializerMaxDepth:           cfg.Serializer.MaxDepth,
		DistinctOpaqueSymbol:         cfg.Serializer.DistinctOpaqueSymbols,
		DisableAdaptiveSerialization: !cfg.Serializer.AdaptiveEnabled,
		DisablePlugins:               !cfg.Plugins.Enabled,
		PluginTimeout:                time.Duration(cfg.Plugins.TimeoutMs) * time.Millisecond,
		DisableDiagnostics:           !cfg.Diagnostics.Enabled,
		TrackPerformance:             cfg.Diagnostics.TrackPerformance,
		AutoCleanupInterval:          autoCleanupInterval(cfg.Cache),
		FallbackMode:                 cfg.Recovery.FallbackMode,
		RecoveryPolicies:             recoveryPoliciesFromConfig(cfg.Recovery),
	})
	defer engine.Close()

	srv := httpapi.NewServer(engine, logger, *addr, 30*time.Second, 30*time.Second, 120*time.Second, cfg.Tracing.Enabled)

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
		close(idleConnsClosed)
	}()

	logger.Info().Str("addr", *addr).Msg("canonstore serving")
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
	<-idleConnsClosed
}

// autoCleanupInterval returns the configured cleanup interval, or 0 (off)
// if auto-cleanup is disabled.
func autoCleanupInterval(cc config.CacheConfig) time.Duration {
	if !cc.AutoCleanup {
		return 0
	}
	return time.Duration(cc.CleanupIntervalMs) * time.Millisecond
}

func recoveryPoliciesFromConfig(rc config.RecoveryConfig) map[recovery.Kind]recovery.Policy {
	if !rc.Enabled {
		return nil
	}
	policies := recovery.DefaultPolicies()
	if rc.MaxRetries > 0 {
		for kind, p := range policies {
			p.MaxRetries = rc.MaxRetries
			policies[kind] = p
		}
	}
	return policies
}

func cmdStop() {
	if !daemon.IsRunning(pidDir()) {
		fmt.Println("canonstore: no serve process running")
		return
	}
	pid, err := daemon.ReadPID(pidDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: %v\n", err)
		os.Exit(1)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		fmt.Fprintf(os.Stderr, "canonstore: signaling process %d: %v\n", pid, err)
		os.Exit(1)
	}
	fmt.Printf("canonstore: sent shutdown signal to pid %d\n", pid)
}

func cmdStatus() {
	if daemon.IsRunning(pidDir()) {
		pid, _ := daemon.ReadPID(pidDir())
		fmt.Printf("canonstore: running (pid %d)\n", pid)
		return
	}
	fmt.Println("canonstore: not running")
}
