// Package observe provides telemetry for the cache and checksum
// subsystems: structured logging, OpenTelemetry metrics for lookups,
// evictions, and file scans, and tracing for scan operations.
package observe
