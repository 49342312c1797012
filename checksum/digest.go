package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"time"
)

// Algorithm selects the content digest function.
type Algorithm string

const (
	// SHA256 is the default algorithm.
	SHA256 Algorithm = "sha256"

	// MD5 is cheaper and acceptable here: digests are change
	// fingerprints, not a security boundary.
	MD5 Algorithm = "md5"
)

// ParseAlgorithm parses a configuration string. Empty selects SHA256.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "", string(SHA256):
		return SHA256, nil
	case string(MD5):
		return MD5, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

func (a Algorithm) newHash() hash.Hash {
	if a == MD5 {
		return md5.New()
	}
	return sha256.New()
}

// FileChecksum is the stored state for one tracked file. MTime and
// Size always correspond to the last confirmed digest computation, so
// a metadata match proves the digest is still current.
type FileChecksum struct {
	Path   string
	Digest string // hex-encoded content digest
	MTime  time.Time
	Size   int64
}

// digestFile streams the file through the hash. io.Copy reads in
// fixed-size chunks, so peak memory is independent of file size.
func digestFile(path string, alg Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := alg.newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
