package cache

import (
	"fmt"

	"github.com/jonwraymond/toolcache/observe"
)

// Config configures a Manager.
type Config struct {
	// Enabled toggles caching globally. When false, Get always misses
	// and Set is a no-op. Default: true.
	Enabled bool

	// MaxMemoryMB is an advisory memory budget for all namespaces
	// combined. It is not enforced by the cache itself; health checks
	// report against it. Zero means no budget.
	MaxMemoryMB int

	// Limits overrides the built-in per-namespace limits. Namespaces
	// not listed here use their defaults, or the fallback limits for
	// unknown namespaces.
	Limits map[Namespace]Limits

	// Logger receives diagnostics. Default: no-op.
	Logger observe.Logger

	// Recorder receives lookup/eviction/invalidation events, typically
	// an *observe.CacheMetrics. Optional.
	Recorder Recorder
}

// DefaultConfig returns a Config with caching enabled and built-in
// namespace limits.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// Validate checks the configuration. Invalid limits fail construction
// rather than surfacing later as odd cache behavior.
func (c Config) Validate() error {
	if c.MaxMemoryMB < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxMemory, c.MaxMemoryMB)
	}
	for ns, lim := range c.Limits {
		if lim.MaxItems < 0 {
			return fmt.Errorf("%w: namespace %q: %d", ErrInvalidMaxItems, ns, lim.MaxItems)
		}
		if lim.TTL < 0 {
			return fmt.Errorf("%w: namespace %q: %v", ErrInvalidTTL, ns, lim.TTL)
		}
	}
	return nil
}
