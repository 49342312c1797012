package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jonwraymond/toolcache/cache"
)

// CacheCheckerConfig configures the cache health checker.
type CacheCheckerConfig struct {
	// WarningThreshold is the fraction of the advisory memory budget
	// that triggers degraded status. Default: 0.8.
	WarningThreshold float64

	// CriticalThreshold is the fraction that triggers unhealthy
	// status. Default: 0.95.
	CriticalThreshold float64
}

// CacheChecker reports cache occupancy and process heap usage against
// the Manager's advisory MaxMemoryMB budget.
type CacheChecker struct {
	manager *cache.Manager
	config  CacheCheckerConfig
}

// NewCacheChecker creates a cache health checker.
func NewCacheChecker(manager *cache.Manager, config CacheCheckerConfig) *CacheChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold
	}
	return &CacheChecker{manager: manager, config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check performs the cache health check.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	totalEntries := 0
	namespaces := map[string]any{}
	for ns, stats := range c.manager.StatsAll() {
		totalEntries += stats.Size
		namespaces[string(ns)] = map[string]any{
			"size":     stats.Size,
			"hit_rate": stats.HitRate(),
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	details := map[string]any{
		"entries":       totalEntries,
		"namespaces":    namespaces,
		"heap_alloc_mb": float64(mem.HeapAlloc) / (1024 * 1024),
	}

	budgetMB := c.manager.Config().MaxMemoryMB
	if budgetMB <= 0 {
		return Healthy(fmt.Sprintf("%d entries cached, no memory budget", totalEntries)).
			WithDetails(details)
	}

	// The budget is advisory and per-process heap is the closest
	// observable proxy for cache weight.
	usage := float64(mem.HeapAlloc) / (float64(budgetMB) * 1024 * 1024)
	details["budget_mb"] = budgetMB
	details["usage_percent"] = usage * 100

	switch {
	case usage >= c.config.CriticalThreshold:
		return Unhealthy(
			fmt.Sprintf("heap usage critical: %.1f%% of %dMB budget", usage*100, budgetMB),
			ErrCheckFailed,
		).WithDetails(details)
	case usage >= c.config.WarningThreshold:
		return Degraded(
			fmt.Sprintf("heap usage high: %.1f%% of %dMB budget", usage*100, budgetMB),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("heap usage normal: %.1f%% of %dMB budget", usage*100, budgetMB),
		).WithDetails(details)
	}
}

// Ensure CacheChecker implements Checker
var _ Checker = (*CacheChecker)(nil)
