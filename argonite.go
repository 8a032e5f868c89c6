// Package argonite implements a memory-hard password key derivation function in the Argon2id
// family, built on the BLAKE2b compression hash.
//
// Deriving a key fills a matrix of 1 KiB blocks through multiple passes, addressing the matrix
// pseudorandomly based on intermediate block contents. An attacker testing many candidate
// passwords in parallel cannot share the matrix across attempts, because each attempt's
// addressing sequence depends on its own intermediate results; the memory cost therefore scales
// with the number of concurrent guesses.
//
// Derivation is deterministic: identical inputs always produce identical output, on every
// platform, regardless of how lanes are scheduled across goroutines. Each call owns its matrix,
// so concurrent calls need no synchronization.
package argonite

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/SuhanArda/argonite/internal/blake2"
)

// Version is the construction version bound into the seed hash and the encoded credential
// format.
const Version = 0x13

const (
	// BlockSize is the size of a single matrix block in bytes.
	BlockSize = 1024

	blockWords = BlockSize / 8
	syncPoints = 4
	mode       = 2 // algorithm identifier for the hybrid (id) variant
)

// ErrInvalidParams is returned when derivation parameters violate their constraints.
var ErrInvalidParams = errors.New("argonite: invalid parameters")

// Key derives a keyLen-byte key from the password and salt. The time parameter is the number of
// passes over memory, memory is the total number of 1 KiB blocks, and threads is the number of
// independent lanes, which may be filled concurrently.
//
// Key returns ErrInvalidParams when time or threads is zero, when memory is less than 8*threads
// blocks, or when keyLen is zero. The block count is rounded down to a multiple of 4*threads so
// that every lane divides evenly into four slices.
func Key(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) ([]byte, error) {
	switch {
	case time < 1:
		return nil, fmt.Errorf("%w: time must be at least 1", ErrInvalidParams)
	case threads < 1:
		return nil, fmt.Errorf("%w: threads must be at least 1", ErrInvalidParams)
	case memory < 8*uint32(threads):
		return nil, fmt.Errorf("%w: memory must be at least 8*threads blocks", ErrInvalidParams)
	case keyLen < 1:
		return nil, fmt.Errorf("%w: key length must be at least 1", ErrInvalidParams)
	}

	h0 := seedHash(password, salt, time, memory, threads, keyLen)

	memory = memory / (syncPoints * uint32(threads)) * (syncPoints * uint32(threads))

	m := initBlocks(&h0, memory, threads)
	fillBlocks(m, time, memory, threads)
	return extractKey(m, memory, threads, keyLen), nil
}

// seedHash binds all derivation parameters, the password, and the salt into a 64-byte seed. The
// two trailing zero-length fields are reserved for a keyed secret and associated data.
func seedHash(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) [blake2.Size]byte {
	var (
		h0  [blake2.Size]byte
		tmp [4]byte
	)

	h, err := blake2.New(blake2.Size)
	if err != nil {
		panic(err)
	}
	writeUint32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:], v)
		_, _ = h.Write(tmp[:])
	}

	writeUint32(uint32(threads))
	writeUint32(keyLen)
	writeUint32(memory)
	writeUint32(time)
	writeUint32(Version)
	writeUint32(mode)
	writeUint32(uint32(len(password)))
	_, _ = h.Write(password)
	writeUint32(uint32(len(salt)))
	_, _ = h.Write(salt)
	writeUint32(0) // secret, reserved
	writeUint32(0) // associated data, reserved

	h.Sum(h0[:0])
	return h0
}

// expand fills dst with the variable-length expansion of in: a chain of 64-byte digests, each
// prefixed with the target length, concatenated and truncated to len(dst). Outputs of 64 bytes
// or fewer come straight from the compression primitive.
func expand(dst, in []byte) {
	buf := make([]byte, 4, 4+len(in))
	binary.LittleEndian.PutUint32(buf, uint32(len(dst)))
	buf = append(buf, in...)

	if len(dst) <= blake2.Size {
		blake2.Sum(dst, buf)
		return
	}

	var v [blake2.Size]byte
	blake2.Sum(v[:], buf)
	n := copy(dst, v[:])

	chain := make([]byte, 4+blake2.Size)
	copy(chain, buf[:4])
	for n < len(dst) {
		copy(chain[4:], v[:])
		blake2.Sum(v[:], chain)
		n += copy(dst[n:], v[:])
	}
}

// extractKey XORs the last block of every lane into an accumulator and expands it to the
// requested key length.
func extractKey(m []block, memory uint32, threads uint8, keyLen uint32) []byte {
	laneLen := memory / uint32(threads)

	acc := m[laneLen-1]
	for lane := uint32(1); lane < uint32(threads); lane++ {
		last := &m[lane*laneLen+laneLen-1]
		for i, v := range last {
			acc[i] ^= v
		}
	}

	var buf [BlockSize]byte
	for i, v := range acc {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}

	out := make([]byte, keyLen)
	expand(out, buf[:])
	return out
}
