// Package hashing computes and checks content-integrity digests of evidence
// payloads. Digests are lowercase hex strings.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Algorithm names a supported digest.
type Algorithm string

const (
	SHA256     Algorithm = "sha256"
	BLAKE2b256 Algorithm = "blake2b-256"
)

// digestSize is the same for every supported algorithm: 32 bytes, 64 hex chars.
const digestSize = 32

// ParseAlgorithm validates an algorithm name from configuration.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case SHA256, BLAKE2b256:
		return a, nil
	case "":
		return SHA256, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q", s)
	}
}

// Hasher computes digests with a fixed algorithm. It is safe for concurrent use.
type Hasher struct {
	algo Algorithm
}

// New creates a Hasher. Unknown algorithms fall back to SHA-256; use
// ParseAlgorithm to validate configuration input first.
func New(algo Algorithm) *Hasher {
	if algo != BLAKE2b256 {
		algo = SHA256
	}
	return &Hasher{algo: algo}
}

// Algorithm returns the configured algorithm.
func (h *Hasher) Algorithm() Algorithm { return h.algo }

// Compute returns the hex digest of payload. An empty payload is hashed like
// any other input.
func (h *Hasher) Compute(payload []byte) string {
	var sum [digestSize]byte
	switch h.algo {
	case BLAKE2b256:
		sum = blake2b.Sum256(payload)
	default:
		sum = sha256.Sum256(payload)
	}
	return hex.EncodeToString(sum[:])
}

// ComputeReader streams r through the digest and returns it together with the
// number of bytes read.
func (h *Hasher) ComputeReader(r io.Reader) (string, int64, error) {
	d := h.newDigest()
	n, err := io.Copy(d, r)
	if err != nil {
		return "", n, fmt.Errorf("hash payload: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), n, nil
}

// Verify recomputes the digest of payload and compares it with expectedHex.
// A malformed expectedHex yields false.
func (h *Hasher) Verify(payload []byte, expectedHex string) bool {
	expected, ok := Normalize(expectedHex)
	if !ok {
		return false
	}
	return h.Compute(payload) == expected
}

func (h *Hasher) newDigest() hash.Hash {
	if h.algo == BLAKE2b256 {
		// blake2b.New256 only fails for keys longer than 64 bytes.
		d, _ := blake2b.New256(nil)
		return d
	}
	return sha256.New()
}

// ValidHex reports whether s has the shape of a digest: 64 hex characters.
func ValidHex(s string) bool {
	_, ok := Normalize(s)
	return ok
}

// Normalize lowercases a digest after checking its shape. ok is false for
// anything that is not exactly 64 hex characters.
func Normalize(s string) (string, bool) {
	if len(s) != digestSize*2 {
		return "", false
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", false
	}
	return strings.ToLower(s), true
}
