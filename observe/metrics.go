package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics records cache lookup, eviction, and invalidation counts
// per namespace. It satisfies the cache package's Recorder interface.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: never panics; recording is best-effort.
type CacheMetrics struct {
	lookups       metric.Int64Counter
	evictions     metric.Int64Counter
	invalidations metric.Int64Counter
}

// NewCacheMetrics creates cache metrics instruments on the given meter.
func NewCacheMetrics(meter metric.Meter) (*CacheMetrics, error) {
	lookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Total cache lookups by namespace and outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Entries evicted to make room for inserts"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	invalidations, err := meter.Int64Counter(
		"cache.invalidations",
		metric.WithDescription("Entries dropped by namespace invalidation"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{
		lookups:       lookups,
		evictions:     evictions,
		invalidations: invalidations,
	}, nil
}

// RecordLookup records one lookup with its outcome.
func (m *CacheMetrics) RecordLookup(ctx context.Context, namespace string, hit bool) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.namespace", namespace),
		attribute.Bool("cache.hit", hit),
	))
}

// RecordEviction records entries evicted from a namespace.
func (m *CacheMetrics) RecordEviction(ctx context.Context, namespace string, evicted int64) {
	m.evictions.Add(ctx, evicted, metric.WithAttributes(
		attribute.String("cache.namespace", namespace),
	))
}

// RecordInvalidation records entries dropped by an invalidation.
func (m *CacheMetrics) RecordInvalidation(ctx context.Context, namespace string, entries int64) {
	m.invalidations.Add(ctx, entries, metric.WithAttributes(
		attribute.String("cache.namespace", namespace),
	))
}

// ScanMetrics records checksum scan activity. It satisfies the checksum
// package's ScanRecorder interface.
type ScanMetrics struct {
	scans          metric.Int64Counter
	changes        metric.Int64Counter
	callbackErrors metric.Int64Counter
	scanDuration   metric.Float64Histogram
}

// NewScanMetrics creates scan metrics instruments on the given meter.
func NewScanMetrics(meter metric.Meter) (*ScanMetrics, error) {
	scans, err := meter.Int64Counter(
		"checksum.scans",
		metric.WithDescription("Completed scans over all tracked files"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, err
	}

	changes, err := meter.Int64Counter(
		"checksum.changes",
		metric.WithDescription("Confirmed content changes detected"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, err
	}

	callbackErrors, err := meter.Int64Counter(
		"checksum.callback_errors",
		metric.WithDescription("Change callbacks that returned an error or panicked"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	scanDuration, err := meter.Float64Histogram(
		"checksum.scan_duration_ms",
		metric.WithDescription("Scan duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &ScanMetrics{
		scans:          scans,
		changes:        changes,
		callbackErrors: callbackErrors,
		scanDuration:   scanDuration,
	}, nil
}

// RecordScan records one completed scan.
func (m *ScanMetrics) RecordScan(ctx context.Context, files, changes int, duration time.Duration) {
	m.scans.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("checksum.files", files),
	))
	if changes > 0 {
		m.changes.Add(ctx, int64(changes))
	}
	m.scanDuration.Record(ctx, float64(duration.Milliseconds()))
}

// RecordCallbackError records one failed change callback.
func (m *ScanMetrics) RecordCallbackError(ctx context.Context, path string) {
	m.callbackErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("checksum.path", path),
	))
}
