package cache

import "time"

// Namespace identifies one category of cached derived state. Each
// namespace has its own capacity and TTL and is invalidated as a unit.
type Namespace string

// Known namespaces. Consumers should use these constants rather than
// ad-hoc strings so a typo cannot create a throwaway namespace.
const (
	// ProjectDetection caches project-type heuristics (language,
	// build system, layout probes).
	ProjectDetection Namespace = "projectDetection"

	// GitOperations caches read-only git command output.
	GitOperations Namespace = "gitOperations"

	// FileLists caches directory and glob listings.
	FileLists Namespace = "fileLists"

	// GoModules caches parsed go.mod/go.sum state.
	GoModules Namespace = "goModules"

	// CommandAvailability caches PATH lookups for external tools.
	CommandAvailability Namespace = "commandAvailability"

	// TestResults caches test runner output keyed by inputs.
	TestResults Namespace = "testResults"
)

// Custom returns a namespace outside the known set. It participates in
// caching with the fallback limits unless an override is configured.
func Custom(name string) Namespace {
	return Namespace(name)
}

// Limits bound one namespace.
type Limits struct {
	// MaxItems is the entry capacity. Zero disables caching for the
	// namespace entirely.
	MaxItems int

	// TTL is how long an entry remains a valid hit after insertion.
	// Zero disables caching for the namespace entirely.
	TTL time.Duration
}

// fallbackLimits apply to namespaces with no default and no override.
var fallbackLimits = Limits{MaxItems: 100, TTL: 5 * time.Minute}

// defaultLimits returns the built-in per-namespace limits. Values
// reflect how volatile each category is: git state churns constantly,
// command availability almost never changes.
func defaultLimits() map[Namespace]Limits {
	return map[Namespace]Limits{
		ProjectDetection:    {MaxItems: 50, TTL: 30 * time.Minute},
		GitOperations:       {MaxItems: 200, TTL: 30 * time.Second},
		FileLists:           {MaxItems: 100, TTL: time.Minute},
		GoModules:           {MaxItems: 100, TTL: 10 * time.Minute},
		CommandAvailability: {MaxItems: 50, TTL: time.Hour},
		TestResults:         {MaxItems: 100, TTL: 5 * time.Minute},
	}
}
