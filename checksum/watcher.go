package checksum

import (
	"context"
	"time"
)

// StartWatching begins periodic CheckAll scans at the configured
// interval. Starting while already watching logs a warning and is a
// no-op. The loop stops when StopWatching is called or ctx is
// canceled.
func (t *Tracker) StartWatching(ctx context.Context) {
	t.mu.Lock()
	if t.watching {
		t.mu.Unlock()
		t.logger.Warn(ctx, "already watching, start ignored")
		return
	}
	stop := make(chan struct{})
	t.stopCh = stop
	t.watching = true
	t.mu.Unlock()

	go t.watch(ctx, stop)
}

func (t *Tracker) watch(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			// Only clear the flag if no newer watch has started.
			t.mu.Lock()
			if t.stopCh == stop {
				t.watching = false
			}
			t.mu.Unlock()
			return
		case <-ticker.C:
			t.CheckAll(ctx)
		}
	}
}

// StopWatching prevents future scheduled scans. It does not interrupt
// a scan already in flight. Idempotent.
func (t *Tracker) StopWatching() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.watching {
		return
	}
	close(t.stopCh)
	t.watching = false
}

// Watching reports whether the periodic scan loop is running.
func (t *Tracker) Watching() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.watching
}

// LastScan returns when the most recent CheckAll completed, or the
// zero time if none has.
func (t *Tracker) LastScan() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.lastScan
}

// WatchInterval returns the configured scan period.
func (t *Tracker) WatchInterval() time.Duration {
	return t.interval
}
