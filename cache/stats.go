package cache

// Stats is a point-in-time snapshot of one namespace's accounting.
type Stats struct {
	// Hits is the number of Get calls that returned a live entry.
	Hits int64

	// Misses is the number of Get calls that found nothing, including
	// entries removed because they were past their TTL.
	Misses int64

	// Evictions is the number of entries removed to make room for an
	// insert at capacity.
	Evictions int64

	// Size is the current entry count.
	Size int
}

// HitRate returns hits/(hits+misses), or 0 with no accesses.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
