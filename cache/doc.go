// Package cache provides a namespaced in-process cache for expensive
// derived state such as project detection results, git command output,
// and file listings.
//
// Each namespace is an isolated bucket with its own capacity and TTL.
// Eviction within a namespace is strictly least-recently-used, expiry
// is lazy, and all operations are safe for concurrent use. The Manager
// is an explicit dependency: construct one at process start and pass it
// to every consumer.
package cache
