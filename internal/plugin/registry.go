package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultLifecycleTimeout bounds on_install/on_enable/on_disable/
// on_uninstall calls. Operational hooks (before_*/after_*) are not
// subject to a timeout, to avoid per-call timer overhead.
const DefaultLifecycleTimeout = 5 * time.Second

// registration is the pipeline's bookkeeping for one registered plugin:
// its priority, lifecycle state, and fault history.
type registration struct {
	plugin     Plugin
	instanceID string
	priority   int
	state      State
	faults     int
}

// Registry manages loaded plugins and their lifecycle, and is the
// concrete implementation of the plugin pipeline: an ordered collection
// of plugins invoked around every core operation. It uses a name-keyed
// map with capability categorization on Register and close-on-Unregister,
// generalized with priority ordering and a five-state lifecycle.
type Registry struct {
	mu sync.RWMutex

	byName           map[string]*registration
	ordered          []*registration // kept sorted by priority descending, stable on ties
	lifecycleTimeout time.Duration
	recovery         PluginFaultReporter
}

// PluginFaultReporter decouples the pipeline from internal/recovery's
// concrete type: the engine wires a *recovery.Controller in via an
// adapter so a faulting plugin's error can be counted as a
// recovery.KindPlugin error without this package importing recovery.
type PluginFaultReporter interface {
	// ShouldDisable reports whether the pipeline should disable the
	// faulting plugin rather than keep retrying it. The pipeline only
	// ever acts on "not retry" by disabling the plugin, since operational
	// hooks are never retried within a single call.
	ShouldDisable(opName string) bool
}

// NewRegistry creates an empty plugin pipeline.
func NewRegistry(recovery PluginFaultReporter) *Registry {
	return &Registry{
		byName:           make(map[string]*registration),
		lifecycleTimeout: DefaultLifecycleTimeout,
		recovery:         recovery,
	}
}

// SetLifecycleTimeout overrides the timeout applied to on_install/on_enable/
// on_disable/on_uninstall calls, replacing DefaultLifecycleTimeout. A
// non-positive d is ignored.
func (r *Registry) SetLifecycleTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lifecycleTimeout = d
}

// Register installs p at the given priority (higher runs first) and
// immediately enables it. Re-registering a name already present replaces
// the prior instance after running its on_uninstall.
func (r *Registry) Register(ctx context.Context, p Plugin, priority int, config map[string]any) error {
	name := p.Name()

	r.mu.Lock()
	if existing, ok := r.byName[name]; ok {
		r.mu.Unlock()
		if err := r.unregisterLocked(ctx, existing); err != nil {
			return fmt.Errorf("plugin: replacing %q: %w", name, err)
		}
		r.mu.Lock()
	}

	reg := &registration{
		plugin:     p,
		instanceID: uuid.NewString(),
		priority:   priority,
		state:      StateUnregistered,
	}
	r.mu.Unlock()

	if err := r.runLifecycle(ctx, "on_install", func(ctx context.Context) error {
		if installer, ok := p.(Installer); ok {
			return installer.OnInstall(ctx, config)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("plugin %q: install: %w", name, err)
	}
	reg.state = StateInstalled

	if err := r.runLifecycle(ctx, "on_enable", func(ctx context.Context) error {
		if enabler, ok := p.(Enabler); ok {
			return enabler.OnEnable(ctx)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("plugin %q: enable: %w", name, err)
	}
	reg.state = StateEnabled

	r.mu.Lock()
	r.byName[name] = reg
	r.ordered = append(r.ordered, reg)
	r.sortLocked()
	r.mu.Unlock()

	log.Info().Str("plugin", name).Str("instance", reg.instanceID).Int("priority", priority).Msg("plugin registered")
	return nil
}

// Unregister disables (if enabled) and uninstalls the named plugin,
// removing it from the pipeline.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	reg, ok := r.byName[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("plugin: %q not registered", name)
	}
	return r.unregisterLocked(ctx, reg)
}

func (r *Registry) unregisterLocked(ctx context.Context, reg *registration) error {
	if reg.state == StateEnabled {
		if err := r.disable(ctx, reg); err != nil {
			log.Warn().Err(err).Str("plugin", reg.plugin.Name()).Msg("plugin: error disabling before uninstall")
		}
	}

	err := r.runLifecycle(ctx, "on_uninstall", func(ctx context.Context) error {
		if uninstaller, ok := reg.plugin.(Uninstaller); ok {
			return uninstaller.OnUninstall(ctx)
		}
		return nil
	})
	reg.state = StateUninstalled

	r.mu.Lock()
	delete(r.byName, reg.plugin.Name())
	r.ordered = removeReg(r.ordered, reg)
	r.mu.Unlock()

	log.Info().Str("plugin", reg.plugin.Name()).Msg("plugin unregistered")
	if err != nil {
		return fmt.Errorf("uninstall: %w", err)
	}
	return nil
}

// Disable transitions an enabled plugin to Disabled.
func (r *Registry) Disable(ctx context.Context, name string) error {
	r.mu.RLock()
	reg, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("plugin: %q not registered", name)
	}
	return r.disable(ctx, reg)
}

func (r *Registry) disable(ctx context.Context, reg *registration) error {
	err := r.runLifecycle(ctx, "on_disable", func(ctx context.Context) error {
		if disabler, ok := reg.plugin.(Disabler); ok {
			return disabler.OnDisable(ctx)
		}
		return nil
	})
	reg.state = StateDisabled
	return err
}

// Enable transitions a disabled plugin back to Enabled.
func (r *Registry) Enable(ctx context.Context, name string) error {
	r.mu.RLock()
	reg, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("plugin: %q not registered", name)
	}
	err := r.runLifecycle(ctx, "on_enable", func(ctx context.Context) error {
		if enabler, ok := reg.plugin.(Enabler); ok {
			return enabler.OnEnable(ctx)
		}
		return nil
	})
	reg.state = StateEnabled
	return err
}

// runLifecycle invokes fn with the registry's lifecycle timeout applied.
func (r *Registry) runLifecycle(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.lifecycleTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: timed out after %s", name, r.lifecycleTimeout)
	}
}

// sortLocked re-sorts r.ordered by descending priority, stable on ties so
// insertion order among equal priorities is preserved.
func (r *Registry) sortLocked() {
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].priority > r.ordered[j].priority
	})
}

// enabled returns a snapshot of currently-enabled registrations in
// priority order.
func (r *Registry) enabled() []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*registration, 0, len(r.ordered))
	for _, reg := range r.ordered {
		if reg.state == StateEnabled {
			out = append(out, reg)
		}
	}
	return out
}

// recordFault isolates a hook fault: it logs and counts the fault against
// reg, and auto-disables the plugin if the fault reporter (the engine's
// error-recovery controller, via an adapter) says not to retry. A faulting
// plugin never cancels the overall operation.
func (r *Registry) recordFault(ctx context.Context, reg *registration, hook string, err error) {
	reg.faults++
	log.Warn().Err(err).Str("plugin", reg.plugin.Name()).Str("hook", hook).Int("faults", reg.faults).Msg("plugin hook failed")

	if eh, ok := reg.plugin.(ErrorHook); ok {
		safeCall(func() { eh.OnError(ctx, hook, err) })
	}

	if r.recovery != nil && r.recovery.ShouldDisable("plugin:"+reg.plugin.Name()) {
		if derr := r.disable(ctx, reg); derr != nil {
			log.Warn().Err(derr).Str("plugin", reg.plugin.Name()).Msg("plugin: auto-disable failed")
		} else {
			log.Warn().Str("plugin", reg.plugin.Name()).Msg("plugin: auto-disabled after escalation")
		}
	}
}

// List returns a summary of every registered plugin, enabled or not.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.ordered))
	for _, reg := range r.ordered {
		out = append(out, Info{
			Name:     reg.plugin.Name(),
			Priority: reg.priority,
			State:    reg.state,
			Faults:   reg.faults,
		})
	}
	return out
}

// Info summarizes one registered plugin for introspection.
type Info struct {
	Name     string
	Priority int
	State    State
	Faults   int
}

// safeCall recovers a panic from an ErrorHook/MetricsHook observer call so
// a misbehaving observer can't crash the caller.
func safeCall(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func removeReg(slice []*registration, target *registration) []*registration {
	out := make([]*registration, 0, len(slice))
	for _, r := range slice {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}
