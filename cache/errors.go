package cache

import "errors"

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Configuration errors.
var (
	// ErrInvalidMaxItems indicates a negative namespace capacity.
	ErrInvalidMaxItems = errors.New("cache: max items must not be negative")

	// ErrInvalidTTL indicates a negative namespace TTL.
	ErrInvalidTTL = errors.New("cache: ttl must not be negative")

	// ErrInvalidMaxMemory indicates a negative memory advisory limit.
	ErrInvalidMaxMemory = errors.New("cache: max memory must not be negative")
)

// Key errors.
var (
	// ErrInvalidKey indicates an empty or malformed cache key.
	ErrInvalidKey = errors.New("cache: key is invalid")

	// ErrKeyTooLong indicates a key exceeding MaxKeyLength.
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)
