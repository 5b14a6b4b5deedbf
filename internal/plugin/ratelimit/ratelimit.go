// Package ratelimit provides a concrete plugin demonstrating the plugin
// pipeline's veto machinery with more than a toy uppercasing example: a
// token-bucket rate limiter that vetoes before_put/before_get for a
// caller that has exceeded its configured rate.
//
// The token bucket (rate, burst, lastRefill, mutex-guarded refill-and-
// take) enforces per-caller-token limits on the engine's core
// operations.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// callerKey is the context key a caller uses to identify itself for rate
// limiting purposes. Operations without a caller token in context share
// a single "anonymous" bucket.
type callerKey struct{}

// WithCaller attaches a caller token to ctx for rate-limit attribution.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func callerFrom(ctx context.Context) string {
	if c, ok := ctx.Value(callerKey{}).(string); ok && c != "" {
		return c
	}
	return "anonymous"
}

// Error describes a caller that has exceeded its rate limit. The plugin's
// hooks veto by rewriting the key to key.Undefined() and never construct
// or return an Error themselves.
type Error struct {
	Caller     string
	Rate       float64
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate_limited: caller %q exceeded %.1f ops/s, retry after %s", e.Caller, e.Rate, e.RetryAfter)
}

// bucket implements a token-bucket rate limiter for a single caller.
type bucket struct {
	mu         sync.Mutex
	rate       float64
	burst      int
	tokens     float64
	lastRefill time.Time
}

func newBucket(rate float64, burst int) *bucket {
	return &bucket{rate: rate, burst: burst, tokens: float64(burst), lastRefill: time.Now()}
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.rate
	if b.tokens > float64(b.burst) {
		b.tokens = float64(b.burst)
	}
	if b.tokens < 1.0 {
		return false
	}
	b.tokens -= 1.0
	return true
}

// Plugin is a before_put/before_get rate limiter keyed by caller token.
type Plugin struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	defaultRate  float64
	defaultBurst int

	// vetoed counts operations this plugin vetoed, for diagnostics.
	vetoed uint64
}

// New creates a rate-limit plugin with the given default rate (ops/sec)
// and burst size, applied uniformly to every caller until a per-caller
// override is configured via SetLimit.
func New(defaultRate float64, defaultBurst int) *Plugin {
	return &Plugin{
		buckets:      make(map[string]*bucket),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "ratelimit" }

// SetLimit overrides the rate/burst for a specific caller.
func (p *Plugin) SetLimit(caller string, rate float64, burst int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets[caller] = newBucket(rate, burst)
}

func (p *Plugin) bucketFor(caller string) *bucket {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[caller]
	if !ok {
		b = newBucket(p.defaultRate, p.defaultBurst)
		p.buckets[caller] = b
	}
	return b
}

// BeforePut implements plugin.BeforePutHook. A rate-limited put is a
// deliberate veto, not a plugin fault: it rewrites the key to
// key.Undefined() (which the store never holds an entry for, so the
// mutation becomes a no-op) rather than returning a hook error, since any
// hook error is treated as a fault eligible for auto-disable and a
// working rate limiter must not get disabled by its own vetoes.
func (p *Plugin) BeforePut(ctx context.Context, k key.Key, v any) (key.Key, any, error) {
	caller := callerFrom(ctx)
	if p.bucketFor(caller).allow() {
		return k, v, nil
	}
	p.recordVeto(caller)
	return key.Undefined(), v, nil
}

// BeforeGet implements plugin.BeforeGetHook, applying the same per-caller
// limit to reads.
func (p *Plugin) BeforeGet(ctx context.Context, k key.Key) (key.Key, error) {
	caller := callerFrom(ctx)
	if p.bucketFor(caller).allow() {
		return k, nil
	}
	p.recordVeto(caller)
	return key.Undefined(), nil
}

func (p *Plugin) recordVeto(caller string) {
	p.mu.Lock()
	p.vetoed++
	p.mu.Unlock()
}

// Vetoed returns the number of operations this plugin has rate-limited.
func (p *Plugin) Vetoed() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vetoed
}
