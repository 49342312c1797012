package checksum

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/toolcache/observe"
	"github.com/jonwraymond/toolcache/resilience"
)

// ChangeFunc is invoked when a tracked file's content has changed.
// A returned error is logged and never blocks sibling callbacks.
type ChangeFunc func(ctx context.Context, path string) error

// Handle identifies one callback registration for Unregister.
type Handle struct {
	path string
	id   uint64
}

// ScanRecorder receives scan metrics. *observe.ScanMetrics satisfies
// this interface.
type ScanRecorder interface {
	// RecordScan records one completed scan over all tracked files.
	RecordScan(ctx context.Context, files, changes int, duration time.Duration)

	// RecordCallbackError records one failed change callback.
	RecordCallbackError(ctx context.Context, path string)
}

// Config configures a Tracker.
type Config struct {
	// Algorithm is the digest algorithm: "sha256" (default) or "md5".
	Algorithm string

	// WatchInterval is the period between automatic scans.
	// Default: 5s.
	WatchInterval time.Duration

	// MaxConcurrentChecks bounds per-file checks within one scan.
	// Default: 8.
	MaxConcurrentChecks int

	// Retry governs transient I/O errors during checks. Defaults are
	// small (2 attempts, 25ms) so a scan cannot stall on one file.
	Retry resilience.RetryConfig

	// Logger receives diagnostics. Default: no-op.
	Logger observe.Logger

	// Recorder receives scan metrics, typically an
	// *observe.ScanMetrics. Optional.
	Recorder ScanRecorder

	// Tracer opens a span per scan. Default: no-op.
	Tracer observe.Tracer
}

type registration struct {
	id uint64
	fn ChangeFunc
}

// Tracker watches an explicitly registered set of files for content
// changes.
//
// Contract:
// - Concurrency: safe for concurrent use; at most one CheckAll runs
//   process-wide at any time.
// - Errors: Track returns errors; HasChanged and CheckAll recover
//   locally and degrade instead of propagating.
type Tracker struct {
	alg       Algorithm
	interval  time.Duration
	maxChecks int
	retry     *resilience.Retry
	logger    observe.Logger
	recorder  ScanRecorder
	tracer    observe.Tracer

	mu        sync.RWMutex
	files     map[string]FileChecksum
	callbacks map[string][]registration
	nextID    uint64
	lastScan  time.Time
	watching  bool
	stopCh    chan struct{}

	scanning atomic.Bool
}

// New creates a Tracker. Unknown algorithms and negative intervals fail
// here.
func New(cfg Config) (*Tracker, error) {
	alg, err := ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if cfg.WatchInterval < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, cfg.WatchInterval)
	}

	interval := cfg.WatchInterval
	if interval == 0 {
		interval = 5 * time.Second
	}
	maxChecks := cfg.MaxConcurrentChecks
	if maxChecks <= 0 {
		maxChecks = 8
	}

	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg.MaxAttempts = 2
	}
	if retryCfg.InitialDelay == 0 {
		retryCfg.InitialDelay = 25 * time.Millisecond
	}
	if retryCfg.MaxDelay == 0 {
		retryCfg.MaxDelay = 250 * time.Millisecond
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observe.NopTracer()
	}

	return &Tracker{
		alg:       alg,
		interval:  interval,
		maxChecks: maxChecks,
		retry:     resilience.NewRetry(retryCfg),
		logger:    logger.WithScope("checksum"),
		recorder:  cfg.Recorder,
		tracer:    tracer,
		files:     make(map[string]FileChecksum),
		callbacks: make(map[string][]registration),
	}, nil
}

// Track registers a change callback for path, computing the initial
// digest if the path is not yet tracked. Tracking the same path again
// adds an independent callback without recomputing anything.
//
// An unreadable file fails softly: the error is logged and returned,
// the file stays untracked, and no callback is registered, so batch
// tracking is never aborted by one missing file.
func (t *Tracker) Track(ctx context.Context, path string, fn ChangeFunc) (Handle, error) {
	t.mu.Lock()
	if _, tracked := t.files[path]; tracked {
		h := t.registerLocked(path, fn)
		t.mu.Unlock()
		return h, nil
	}
	t.mu.Unlock()

	// Stat before digesting: if the file changes in between, the
	// stored mtime is stale and the next check falls through to the
	// digest rather than trusting the fast path.
	info, err := os.Stat(path)
	if err != nil {
		t.logger.Warn(ctx, "track failed",
			observe.Field{Key: "path", Value: path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return Handle{}, fmt.Errorf("checksum: track %s: %w", path, err)
	}

	digest, err := digestFile(path, t.alg)
	if err != nil {
		t.logger.Warn(ctx, "track failed",
			observe.Field{Key: "path", Value: path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return Handle{}, fmt.Errorf("checksum: track %s: %w", path, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// A concurrent Track may have won the race; its metadata stands.
	if _, tracked := t.files[path]; !tracked {
		t.files[path] = FileChecksum{
			Path:   path,
			Digest: digest,
			MTime:  info.ModTime(),
			Size:   info.Size(),
		}
	}
	return t.registerLocked(path, fn), nil
}

// registerLocked appends a callback registration. Caller holds t.mu.
func (t *Tracker) registerLocked(path string, fn ChangeFunc) Handle {
	t.nextID++
	h := Handle{path: path, id: t.nextID}
	if fn != nil {
		t.callbacks[path] = append(t.callbacks[path], registration{id: h.id, fn: fn})
	}
	return h
}

// Unregister removes the single callback identified by the handle.
// Idempotent; the file itself stays tracked.
func (t *Tracker) Unregister(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	regs := t.callbacks[h.path]
	for i, reg := range regs {
		if reg.id == h.id {
			t.callbacks[h.path] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(t.callbacks[h.path]) == 0 {
		delete(t.callbacks, h.path)
	}
}

// Untrack removes the stored checksum and every callback for path.
// Idempotent.
func (t *Tracker) Untrack(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.files, path)
	delete(t.callbacks, path)
}

// Checksum returns the stored checksum for path, or ok=false if the
// path is not tracked.
func (t *Tracker) Checksum(path string) (FileChecksum, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fc, ok := t.files[path]
	return fc, ok
}

// TrackedCount returns the number of tracked files.
func (t *Tracker) TrackedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.files)
}

// HasChanged reports whether the file's content differs from the last
// confirmed digest.
//
// An untracked path is always "changed": the caller knows nothing
// about it, so the conservative answer forces a recompute. A read
// error on a tracked path is the opposite: it is retried briefly,
// then treated as "unchanged", so transient I/O noise cannot cascade
// into mass invalidation.
func (t *Tracker) HasChanged(ctx context.Context, path string) bool {
	t.mu.RLock()
	stored, tracked := t.files[path]
	t.mu.RUnlock()

	if !tracked {
		return true
	}

	var info os.FileInfo
	err := t.retry.Execute(ctx, func(context.Context) error {
		var statErr error
		info, statErr = os.Stat(path)
		return statErr
	})
	if err != nil {
		t.logger.Warn(ctx, "stat failed, treating as unchanged",
			observe.Field{Key: "path", Value: path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return false
	}

	// Fast path: metadata matches the last confirmed digest, so the
	// content cannot have changed without us noticing.
	if info.ModTime().Equal(stored.MTime) && info.Size() == stored.Size {
		return false
	}

	var digest string
	err = t.retry.Execute(ctx, func(context.Context) error {
		var digestErr error
		digest, digestErr = digestFile(path, t.alg)
		return digestErr
	})
	if err != nil {
		t.logger.Warn(ctx, "digest failed, treating as unchanged",
			observe.Field{Key: "path", Value: path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return false
	}

	changed := digest != stored.Digest

	t.mu.Lock()
	if current, ok := t.files[path]; ok && current.Digest == stored.Digest {
		if changed {
			t.files[path] = FileChecksum{
				Path:   path,
				Digest: digest,
				MTime:  info.ModTime(),
				Size:   info.Size(),
			}
		} else {
			// A touch: same bytes, new metadata. Resync mtime/size so
			// the fast path holds on the next check.
			current.MTime = info.ModTime()
			current.Size = info.Size()
			t.files[path] = current
		}
	}
	t.mu.Unlock()

	return changed
}

// CheckAll checks every tracked file concurrently and fires the
// callbacks of each file whose content changed. A CheckAll invoked
// while another is in flight is a no-op, so the watch timer and manual
// calls never double-fire a change.
func (t *Tracker) CheckAll(ctx context.Context) {
	if !t.scanning.CompareAndSwap(false, true) {
		t.logger.Debug(ctx, "scan already in flight, skipping")
		return
	}
	defer t.scanning.Store(false)

	ctx, span := t.tracer.StartOp(ctx, observe.Op{Scope: "checksum", Name: "scan"})
	defer t.tracer.EndOp(span, nil)

	start := time.Now()

	t.mu.RLock()
	paths := make([]string, 0, len(t.files))
	for path := range t.files {
		paths = append(paths, path)
	}
	t.mu.RUnlock()

	var changes atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.maxChecks)
	for _, path := range paths {
		g.Go(func() error {
			if t.HasChanged(gctx, path) {
				changes.Add(1)
				t.notify(gctx, path)
			}
			return nil
		})
	}
	_ = g.Wait()

	t.mu.Lock()
	t.lastScan = time.Now()
	t.mu.Unlock()

	if t.recorder != nil {
		t.recorder.RecordScan(ctx, len(paths), int(changes.Load()), time.Since(start))
	}
}

// notify runs every callback registered for path. Each callback is
// isolated: an error or panic is logged and the rest still run.
func (t *Tracker) notify(ctx context.Context, path string) {
	t.mu.RLock()
	regs := make([]registration, len(t.callbacks[path]))
	copy(regs, t.callbacks[path])
	t.mu.RUnlock()

	for _, reg := range regs {
		t.invoke(ctx, path, reg)
	}
}

func (t *Tracker) invoke(ctx context.Context, path string, reg registration) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error(ctx, "change callback panicked",
				observe.Field{Key: "path", Value: path},
				observe.Field{Key: "panic", Value: fmt.Sprint(r)},
			)
			if t.recorder != nil {
				t.recorder.RecordCallbackError(ctx, path)
			}
		}
	}()

	if err := reg.fn(ctx, path); err != nil {
		t.logger.Error(ctx, "change callback failed",
			observe.Field{Key: "path", Value: path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		if t.recorder != nil {
			t.recorder.RecordCallbackError(ctx, path)
		}
	}
}

// Clear stops watching and drops all tracked files and callbacks.
func (t *Tracker) Clear() {
	t.StopWatching()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.files = make(map[string]FileChecksum)
	t.callbacks = make(map[string][]registration)
}
