// Package checksum detects content-level changes to an explicitly
// registered set of files and notifies interested parties, typically
// to invalidate cache namespaces derived from those files.
//
// Change detection is two-tier: an mtime+size comparison short-circuits
// the common unchanged case, and a streaming content digest (SHA-256 or
// MD5) is the ground truth whenever metadata differs. A touched file
// with identical bytes is not a change.
package checksum
