// Package crypto implements the commitment digest scheme. The digest function
// is pluggable so the protocol can run against SHA-256 (the wire default),
// Keccak-256 for EVM-side callers, or a deterministic stand-in under test.
package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/sha3"
)

// Hasher computes a 32-byte digest over a preimage. Implementations must be
// preimage-resistant in production; tests may substitute a trivial one.
type Hasher interface {
	Sum(data []byte) [32]byte
}

// SHA256Hasher is the default production hasher.
type SHA256Hasher struct{}

func (SHA256Hasher) Sum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Keccak256Hasher hashes with Keccak-256, matching commitments produced by
// EVM tooling.
type Keccak256Hasher struct{}

func (Keccak256Hasher) Sum(data []byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	copy(out[:], h.Sum(nil))
	return out
}

// NewHasher returns the hasher for a configured scheme name. Unknown names
// fall back to SHA-256.
func NewHasher(scheme string) Hasher {
	if scheme == "keccak256" {
		return Keccak256Hasher{}
	}
	return SHA256Hasher{}
}
