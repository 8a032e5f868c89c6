// Package blake2 implements the BLAKE2b cryptographic hash function for digests of 1 to 64 bytes.
package blake2

import (
	"encoding/binary"
	"errors"
	"hash"
	"math/bits"
)

const (
	// Size is the maximum digest size in bytes.
	Size = 64
	// BlockSize is the size of the message block in bytes.
	BlockSize = 128

	rounds = 12
)

// ErrInvalidSize is returned when the requested digest size is outside [1, 64].
var ErrInvalidSize = errors.New("blake2: digest size must be between 1 and 64 bytes")

var iv = [8]uint64{ //nolint:gochecknoglobals // initialization vector
	0x6a09e667f3bcc908, 0xbb67ae8584caa73b, 0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
	0x510e527fade682d1, 0x9b05688c2b3e6c1f, 0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
}

// The message word schedule. Rounds beyond the tenth reuse the table from the top.
var sigma = [10][16]byte{ //nolint:gochecknoglobals // permutation schedule
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
	{11, 8, 12, 0, 5, 2, 15, 13, 10, 14, 3, 6, 7, 1, 9, 4},
	{7, 9, 3, 1, 13, 12, 11, 14, 2, 6, 5, 10, 4, 0, 15, 8},
	{9, 0, 5, 7, 2, 4, 10, 15, 14, 1, 11, 12, 6, 8, 3, 13},
	{2, 12, 6, 10, 0, 11, 8, 3, 4, 13, 7, 5, 15, 14, 1, 9},
	{12, 5, 1, 15, 14, 13, 4, 10, 0, 7, 6, 3, 9, 2, 8, 11},
	{13, 11, 7, 14, 12, 1, 3, 9, 5, 0, 15, 4, 8, 6, 2, 10},
	{6, 15, 14, 9, 11, 3, 0, 8, 12, 2, 13, 7, 1, 4, 10, 5},
	{10, 2, 8, 4, 7, 6, 1, 5, 15, 11, 9, 14, 3, 12, 13, 0},
}

// New returns a hash.Hash computing a BLAKE2b digest of the given size in bytes.
func New(size int) (hash.Hash, error) {
	if size < 1 || size > Size {
		return nil, ErrInvalidSize
	}
	d := &digest{size: size} //nolint:exhaustruct // initialized via Reset
	d.Reset()
	return d, nil
}

// Sum writes a digest of in to out, whose length selects the digest size. It panics if len(out) is
// outside [1, 64]; callers are expected to have validated the size already.
func Sum(out, in []byte) {
	if len(out) < 1 || len(out) > Size {
		panic("blake2: invalid digest size")
	}
	d := digest{size: len(out)} //nolint:exhaustruct // initialized via Reset
	d.Reset()
	_, _ = d.Write(in)
	var full [Size]byte
	d.finalize(&full)
	copy(out, full[:d.size])
}

type digest struct {
	h    [8]uint64
	c    [2]uint64
	buf  [BlockSize]byte
	n    int
	size int
}

func (d *digest) Reset() {
	d.h = iv
	d.h[0] ^= 0x01010000 ^ uint64(d.size)
	d.c[0], d.c[1] = 0, 0
	d.n = 0
}

func (d *digest) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		// Only compress a full buffer once more input arrives; the final block must be
		// compressed with the last-block flag set, which is finalize's job.
		if d.n == BlockSize {
			d.addBytes(BlockSize)
			d.compress(false)
			d.n = 0
		}
		c := copy(d.buf[d.n:], p)
		d.n += c
		p = p[c:]
	}
	return n, nil
}

// Sum appends the digest to b and returns the resulting slice. The underlying state is not
// changed, so the hash may keep absorbing afterwards.
func (d *digest) Sum(b []byte) []byte {
	dd := *d
	var out [Size]byte
	dd.finalize(&out)
	return append(b, out[:dd.size]...)
}

func (d *digest) Size() int { return d.size }

func (d *digest) BlockSize() int { return BlockSize }

// finalize zero-pads the pending block, folds in the total byte count, and performs the final
// compression with the all-ones last-block flag.
func (d *digest) finalize(out *[Size]byte) {
	clear(d.buf[d.n:])
	d.addBytes(uint64(d.n))
	d.compress(true)
	for i, w := range d.h {
		binary.LittleEndian.PutUint64(out[i*8:], w)
	}
}

// addBytes advances the 128-bit little-endian byte counter.
func (d *digest) addBytes(n uint64) {
	d.c[0] += n
	if d.c[0] < n {
		d.c[1]++
	}
}

func (d *digest) compress(final bool) {
	var m [16]uint64
	for i := range m {
		m[i] = binary.LittleEndian.Uint64(d.buf[i*8:])
	}

	var v [16]uint64
	copy(v[:8], d.h[:])
	copy(v[8:], iv[:])
	v[12] ^= d.c[0]
	v[13] ^= d.c[1]
	if final {
		v[14] = ^v[14]
	}

	for r := range rounds {
		s := &sigma[r%len(sigma)]
		g(&v, 0, 4, 8, 12, m[s[0]], m[s[1]])
		g(&v, 1, 5, 9, 13, m[s[2]], m[s[3]])
		g(&v, 2, 6, 10, 14, m[s[4]], m[s[5]])
		g(&v, 3, 7, 11, 15, m[s[6]], m[s[7]])
		g(&v, 0, 5, 10, 15, m[s[8]], m[s[9]])
		g(&v, 1, 6, 11, 12, m[s[10]], m[s[11]])
		g(&v, 2, 7, 8, 13, m[s[12]], m[s[13]])
		g(&v, 3, 4, 9, 14, m[s[14]], m[s[15]])
	}

	for i := range d.h {
		d.h[i] ^= v[i] ^ v[i+8]
	}
}

func g(v *[16]uint64, a, b, c, d int, x, y uint64) {
	v[a] += v[b] + x
	v[d] = bits.RotateLeft64(v[d]^v[a], -32)
	v[c] += v[d]
	v[b] = bits.RotateLeft64(v[b]^v[c], -24)
	v[a] += v[b] + y
	v[d] = bits.RotateLeft64(v[d]^v[a], -16)
	v[c] += v[d]
	v[b] = bits.RotateLeft64(v[b]^v[c], -63)
}

var _ hash.Hash = (*digest)(nil)
