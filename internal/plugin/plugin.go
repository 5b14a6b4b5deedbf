// Package plugin implements the plugin pipeline: an ordered collection of
// plugins exposing any subset of ten hooks, invoked in priority order
// around every core engine operation. It combines capability-typed plugin
// interfaces with named registration/lifecycle, and an ordered
// before/after traversal with per-stage panic recovery.
package plugin

import (
	"context"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// Plugin is the minimal interface every plugin implements; everything else
// is optional capability detected via type assertion, mirroring the
// teacher's MiddlewarePlugin/TransformPlugin/HookPlugin split collapsed
// into a single family of ten hook interfaces.
type Plugin interface {
	Name() string
}

// BeforePutHook may rewrite (k, v) before the store mutation.
type BeforePutHook interface {
	BeforePut(ctx context.Context, k key.Key, v any) (key.Key, any, error)
}

// AfterPutHook observes a completed put.
type AfterPutHook interface {
	AfterPut(ctx context.Context, k key.Key, v any) error
}

// BeforeGetHook may rewrite k before lookup.
type BeforeGetHook interface {
	BeforeGet(ctx context.Context, k key.Key) (key.Key, error)
}

// AfterGetHook may decorate the retrieved value.
type AfterGetHook interface {
	AfterGet(ctx context.Context, k key.Key, v any, found bool) (any, error)
}

// BeforeRemoveHook may rewrite k before removal.
type BeforeRemoveHook interface {
	BeforeRemove(ctx context.Context, k key.Key) (key.Key, error)
}

// AfterRemoveHook observes a completed remove.
type AfterRemoveHook interface {
	AfterRemove(ctx context.Context, k key.Key, removed bool) error
}

// BeforeClearHook may veto a clear by returning proceed=false.
type BeforeClearHook interface {
	BeforeClear(ctx context.Context) (proceed bool, err error)
}

// AfterClearHook observes a completed clear.
type AfterClearHook interface {
	AfterClear(ctx context.Context) error
}

// ErrorHook is notified when one of the plugin's own hooks fails, and of
// any error a caller passes to Registry.RunOnError.
type ErrorHook interface {
	OnError(ctx context.Context, op string, err error)
}

// MetricsHook is notified of a metrics snapshot each time
// Registry.RunOnMetrics is called; Engine operations do not call it.
type MetricsHook interface {
	OnMetrics(ctx context.Context, snapshot map[string]any)
}

// Installer runs once when a plugin is registered.
type Installer interface {
	OnInstall(ctx context.Context, config map[string]any) error
}

// Enabler runs when a plugin transitions Disabled/Installed → Enabled.
type Enabler interface {
	OnEnable(ctx context.Context) error
}

// Disabler runs when a plugin transitions Enabled → Disabled.
type Disabler interface {
	OnDisable(ctx context.Context) error
}

// Uninstaller runs when a plugin is unregistered.
type Uninstaller interface {
	OnUninstall(ctx context.Context) error
}

// State is a plugin's position in the lifecycle state machine:
// Unregistered → Installed → Enabled ⇄ Disabled → Uninstalled.
type State int

const (
	StateUnregistered State = iota
	StateInstalled
	StateEnabled
	StateDisabled
	StateUninstalled
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateInstalled:
		return "installed"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateUninstalled:
		return "uninstalled"
	default:
		return "unknown"
	}
}
