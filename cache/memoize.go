package cache

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"
)

// ExecFunc computes a value on a cache miss, typically by running an
// external command.
type ExecFunc func(ctx context.Context) (any, error)

// SkipRule decides whether a command's result must not be cached.
type SkipRule func(ns Namespace, command string, args []string) bool

// MutatingVerbs are command arguments that indicate side effects.
// Results of mutating commands are never safe to replay from cache.
var MutatingVerbs = []string{
	"push", "pull", "commit", "merge", "rebase", "reset", "checkout",
	"install", "clean", "tidy", "generate", "fix",
}

// DefaultSkipRule skips caching when the command or any argument is a
// mutating verb. Matching is case-insensitive.
func DefaultSkipRule(_ Namespace, command string, args []string) bool {
	if isMutating(command) {
		return true
	}
	for _, arg := range args {
		if isMutating(arg) {
			return true
		}
	}
	return false
}

func isMutating(word string) bool {
	lower := strings.ToLower(word)
	for _, verb := range MutatingVerbs {
		if lower == verb {
			return true
		}
	}
	return false
}

// Memoizer wraps external command execution with namespace caching.
// Concurrent misses for the same key collapse into one execution.
type Memoizer struct {
	manager *Manager
	keyer   Keyer
	skip    SkipRule
	group   singleflight.Group
}

// NewMemoizer creates a Memoizer. If keyer is nil, the default keyer is
// used; if skip is nil, DefaultSkipRule is used.
func NewMemoizer(manager *Manager, keyer Keyer, skip SkipRule) *Memoizer {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if skip == nil {
		skip = DefaultSkipRule
	}
	return &Memoizer{
		manager: manager,
		keyer:   keyer,
		skip:    skip,
	}
}

// Execute runs the command through the cache. On a hit the cached
// result is returned without executing. On a miss exec runs once even
// under concurrent callers, and its result is cached. Errors are not
// cached.
func (m *Memoizer) Execute(ctx context.Context, ns Namespace, command string, args []string, exec ExecFunc) (any, error) {
	if m.skip(ns, command, args) {
		return exec(ctx)
	}

	key, err := m.keyer.Key(ns, map[string]any{"command": command, "args": args})
	if err != nil {
		// Key derivation failed - execute without caching
		return exec(ctx)
	}

	if v, ok := m.manager.Get(ctx, ns, key); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// Another caller may have populated the key while we waited
		// for the flight slot.
		if v, ok := m.manager.Get(ctx, ns, key); ok {
			return v, nil
		}

		v, err := exec(ctx)
		if err != nil {
			return nil, err
		}

		m.manager.Set(ctx, ns, key, v)
		return v, nil
	})
	return v, err
}
