// Package password provides salted password hashing and verification backed by the argonite
// key derivation function.
//
// Hash produces a self-describing credential string carrying the algorithm tag, the cost
// parameters, a fresh random salt, and the derived digest. Verify re-derives the digest from a
// candidate password and the stored parameters and compares in constant time. The credential
// string is the only artifact callers need to persist.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/SuhanArda/argonite"
)

// Params controls the cost of hashing a password. Construct it once, treat it as immutable, and
// pass it explicitly; Verify reads the parameters recorded in the credential string instead.
type Params struct {
	// Memory is the total number of 1 KiB matrix blocks. Must be at least 8*Parallelism.
	Memory uint32
	// Iterations is the number of passes over the matrix. Must be at least 1.
	Iterations uint32
	// Parallelism is the number of independent lanes. Must be at least 1.
	Parallelism uint8
	// SaltLength is the number of random salt bytes generated per hash.
	SaltLength uint32
	// KeyLength is the length of the derived digest in bytes.
	KeyLength uint32
}

// DefaultParams returns the reference parameters: 64 MiB of memory, three passes, a single
// lane, a 16-byte salt, and a 32-byte digest.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hash derives a credential string from the password using DefaultParams.
func Hash(password []byte) (string, error) {
	return DefaultParams().Hash(password)
}

// Hash generates a fresh random salt, derives a digest from the password, and returns the
// encoded credential string.
func (p Params) Hash(password []byte) (string, error) {
	if p.SaltLength < 1 {
		return "", fmt.Errorf("%w: salt length must be at least 1", argonite.ErrInvalidParams)
	}

	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	digest, err := argonite.Key(password, salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	if err != nil {
		return "", err
	}

	return encodeHash(p, salt, digest), nil
}

// Verify reports whether the password matches the given credential string. It fails closed:
// malformed credentials, unknown algorithm tags, and digest mismatches are all reported as
// false, and it never returns an error.
func Verify(password []byte, encodedHash string) bool {
	e, err := parseHash(encodedHash)
	if err != nil {
		return false
	}

	digest, err := argonite.Key(password, e.salt, e.time, e.memory, e.threads, uint32(len(e.digest)))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(digest, e.digest) == 1
}

// NeedsRehash reports whether the credential string was produced with parameters weaker than p,
// in which case callers should re-hash the password on the next successful verification. It
// returns ErrInvalidHash if the credential string cannot be parsed.
func (p Params) NeedsRehash(encodedHash string) (bool, error) {
	e, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}

	return e.memory < p.Memory ||
		e.time < p.Iterations ||
		e.threads < p.Parallelism ||
		uint32(len(e.digest)) != p.KeyLength, nil
}
