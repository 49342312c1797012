package checksum

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestTracker(t *testing.T, cfg Config) *Tracker {
	t.Helper()
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tr
}

// TestNew_InvalidConfig verifies construction fails fast.
func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Algorithm: "crc32"}); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("error = %v, want ErrUnknownAlgorithm", err)
	}
	if _, err := New(Config{WatchInterval: -time.Second}); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("error = %v, want ErrInvalidInterval", err)
	}
}

// TestTracker_HasChangedUntracked verifies the conservative default
// for unknown paths.
func TestTracker_HasChangedUntracked(t *testing.T) {
	tr := newTestTracker(t, Config{})

	if !tr.HasChanged(context.Background(), "/no/such/file") {
		t.Error("untracked path should always report changed")
	}
}

// TestTracker_DetectsEditExactlyOnce verifies the track -> edit ->
// detect -> settle lifecycle.
func TestTracker_DetectsEditExactlyOnce(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "go.mod", "module a\n")

	if _, err := tr.Track(ctx, path, nil); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if tr.HasChanged(ctx, path) {
		t.Error("unmodified file should report unchanged")
	}

	before, ok := tr.Checksum(path)
	if !ok {
		t.Fatal("checksum should be stored after Track")
	}

	if err := os.WriteFile(path, []byte("module a\nrequire b v1.0.0\n"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	if !tr.HasChanged(ctx, path) {
		t.Error("edited file should report changed")
	}

	after, _ := tr.Checksum(path)
	if after.Digest == before.Digest {
		t.Error("stored digest should be updated after a confirmed change")
	}

	// No further edits: the change must be reported exactly once.
	if tr.HasChanged(ctx, path) {
		t.Error("second check without edits should report unchanged")
	}
}

// TestTracker_TouchIsNotAChange verifies same bytes with a new mtime
// is no change, and the stored metadata resyncs so the fast path
// holds next time.
func TestTracker_TouchIsNotAChange(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "stable content")
	if _, err := tr.Track(ctx, path, nil); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	newTime := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, newTime, newTime); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if tr.HasChanged(ctx, path) {
		t.Error("touch with identical bytes should not be a change")
	}

	stored, _ := tr.Checksum(path)
	if !stored.MTime.Equal(newTime) {
		t.Errorf("stored mtime = %v, want resynced to %v", stored.MTime, newTime)
	}

	// The resynced metadata must satisfy the fast path now.
	if tr.HasChanged(ctx, path) {
		t.Error("file should still be unchanged after metadata resync")
	}
}

// TestTracker_TrackUnreadable verifies soft failure: error returned,
// nothing tracked, nothing registered.
func TestTracker_TrackUnreadable(t *testing.T) {
	tr := newTestTracker(t, Config{})

	_, err := tr.Track(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
	if tr.TrackedCount() != 0 {
		t.Errorf("tracked count = %d, want 0", tr.TrackedCount())
	}
}

// TestTracker_DeletedAfterTracking verifies a read error on a known
// path degrades to "unchanged" instead of propagating.
func TestTracker_DeletedAfterTracking(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "here today")
	if _, err := tr.Track(ctx, path, nil); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if tr.HasChanged(ctx, path) {
		t.Error("read error on tracked path should report unchanged")
	}
}

// TestTracker_MultipleCallbacksOnePath verifies repeated Track calls
// add independent callbacks without duplicating metadata.
func TestTracker_MultipleCallbacksOnePath(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "v1")

	var first, second atomic.Int32
	if _, err := tr.Track(ctx, path, func(context.Context, string) error {
		first.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if _, err := tr.Track(ctx, path, func(context.Context, string) error {
		second.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("second Track failed: %v", err)
	}

	if tr.TrackedCount() != 1 {
		t.Errorf("tracked count = %d, want 1", tr.TrackedCount())
	}

	if err := os.WriteFile(path, []byte("v2 longer"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	tr.CheckAll(ctx)

	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("callbacks fired %d/%d times, want 1/1", first.Load(), second.Load())
	}
}

// TestTracker_CheckAllScenario runs the full scenario: track with
// callback, edit, scan, callback fired exactly once with the path.
func TestTracker_CheckAllScenario(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "a")

	var mu sync.Mutex
	var fired []string
	if _, err := tr.Track(ctx, path, func(_ context.Context, p string) error {
		mu.Lock()
		fired = append(fired, p)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if tr.HasChanged(ctx, path) {
		t.Error("file should be unchanged before the edit")
	}
	before, _ := tr.Checksum(path)

	if err := os.WriteFile(path, []byte("bb"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	tr.CheckAll(ctx)

	after, _ := tr.Checksum(path)
	if after.Digest == before.Digest {
		t.Error("digest should differ after the edit")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != path {
		t.Errorf("callback fired with %v, want exactly once with %q", fired, path)
	}
}

// TestTracker_CallbackIsolation verifies an erroring and a panicking
// callback never block their siblings.
func TestTracker_CallbackIsolation(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "v1")

	var survivor atomic.Int32
	if _, err := tr.Track(ctx, path, func(context.Context, string) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if _, err := tr.Track(ctx, path, func(context.Context, string) error {
		panic("worse boom")
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if _, err := tr.Track(ctx, path, func(context.Context, string) error {
		survivor.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2 longer"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	tr.CheckAll(ctx)

	if survivor.Load() != 1 {
		t.Errorf("surviving callback fired %d times, want 1", survivor.Load())
	}
}

// TestTracker_Unregister verifies removing one registration leaves the
// file tracked and other callbacks live.
func TestTracker_Unregister(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "v1")

	var removed, kept atomic.Int32
	h, err := tr.Track(ctx, path, func(context.Context, string) error {
		removed.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if _, err := tr.Track(ctx, path, func(context.Context, string) error {
		kept.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	tr.Unregister(h)
	tr.Unregister(h) // idempotent

	if err := os.WriteFile(path, []byte("v2 longer"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	tr.CheckAll(ctx)

	if removed.Load() != 0 {
		t.Error("unregistered callback should not fire")
	}
	if kept.Load() != 1 {
		t.Errorf("kept callback fired %d times, want 1", kept.Load())
	}
	if tr.TrackedCount() != 1 {
		t.Error("file should stay tracked after Unregister")
	}
}

// TestTracker_Untrack verifies metadata and callbacks are dropped.
func TestTracker_Untrack(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "v1")
	if _, err := tr.Track(ctx, path, nil); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	tr.Untrack(path)
	tr.Untrack(path) // idempotent

	if tr.TrackedCount() != 0 {
		t.Error("untracked file should be gone")
	}
	if _, ok := tr.Checksum(path); ok {
		t.Error("checksum should be removed on Untrack")
	}
	if !tr.HasChanged(ctx, path) {
		t.Error("untracked path should report changed again")
	}
}

// TestTracker_ConcurrentCheckAll verifies overlapping scans never fire
// a callback more than once per actual change.
func TestTracker_ConcurrentCheckAll(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "f.txt", "v1")

	var fired atomic.Int32
	if _, err := tr.Track(ctx, path, func(context.Context, string) error {
		fired.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("v2 longer"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.CheckAll(ctx)
		}()
	}
	wg.Wait()

	if got := fired.Load(); got != 1 {
		t.Errorf("callback fired %d times for one change, want 1", got)
	}
}

// TestTracker_Clear verifies all state is dropped.
func TestTracker_Clear(t *testing.T) {
	tr := newTestTracker(t, Config{})
	ctx := context.Background()

	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		path := writeFile(t, dir, name, name)
		if _, err := tr.Track(ctx, path, nil); err != nil {
			t.Fatalf("Track failed: %v", err)
		}
	}

	tr.Clear()

	if tr.TrackedCount() != 0 {
		t.Errorf("tracked count = %d after Clear, want 0", tr.TrackedCount())
	}
}
