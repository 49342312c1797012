// Package health provides health checks for the cache and checksum
// subsystems: process memory against the cache's advisory budget, and
// liveness of the file watcher.
package health
