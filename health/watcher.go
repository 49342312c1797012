package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/toolcache/checksum"
)

// WatcherChecker reports liveness of the checksum watcher: whether the
// scan loop is running and whether scans are completing on schedule.
type WatcherChecker struct {
	tracker *checksum.Tracker
}

// NewWatcherChecker creates a watcher health checker.
func NewWatcherChecker(tracker *checksum.Tracker) *WatcherChecker {
	return &WatcherChecker{tracker: tracker}
}

// Name returns the name of this checker.
func (w *WatcherChecker) Name() string {
	return "watcher"
}

// Check performs the watcher health check.
func (w *WatcherChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	tracked := w.tracker.TrackedCount()
	lastScan := w.tracker.LastScan()
	interval := w.tracker.WatchInterval()

	details := map[string]any{
		"tracked_files":  tracked,
		"watch_interval": interval.String(),
	}
	if !lastScan.IsZero() {
		details["last_scan"] = lastScan
	}

	if !w.tracker.Watching() {
		if tracked == 0 {
			return Healthy("watcher idle, no files tracked").WithDetails(details)
		}
		return Degraded(
			fmt.Sprintf("watcher stopped with %d files tracked", tracked),
		).WithDetails(details)
	}

	// Three missed intervals means the loop is stalled, not just busy.
	if !lastScan.IsZero() && time.Since(lastScan) > 3*interval {
		return Degraded(
			fmt.Sprintf("last scan %s ago, interval %s", time.Since(lastScan).Round(time.Millisecond), interval),
		).WithDetails(details)
	}

	return Healthy(fmt.Sprintf("watching %d files", tracked)).WithDetails(details)
}

// Ensure WatcherChecker implements Checker
var _ Checker = (*WatcherChecker)(nil)
