package checksum

import "errors"

// Configuration errors.
var (
	// ErrUnknownAlgorithm indicates an unsupported digest algorithm name.
	ErrUnknownAlgorithm = errors.New("checksum: unknown algorithm")

	// ErrInvalidInterval indicates a negative watch interval.
	ErrInvalidInterval = errors.New("checksum: watch interval must not be negative")
)
