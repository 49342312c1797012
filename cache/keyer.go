package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Keyer builds deterministic cache keys from request inputs.
//
// Contract:
// - Determinism: identical inputs must produce identical keys.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key for the namespace from the input.
	Key(ns Namespace, input any) (string, error)
}

// DefaultKeyer derives SHA-256 based keys from JSON-encodable inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a key of the form <namespace>:<hash>, where hash is the
// first 16 hex characters of SHA-256 over the input's JSON encoding.
// encoding/json writes map keys in sorted order, so the encoding is
// deterministic for any JSON-encodable input.
func (k *DefaultKeyer) Key(ns Namespace, input any) (string, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to encode key input: %w", err)
	}

	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s", ns, hex.EncodeToString(sum[:8])), nil
}

// ValidateKey checks a hand-constructed key. Keys produced by Keyer
// implementations are always valid.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
