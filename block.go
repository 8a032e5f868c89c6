package argonite

import (
	"encoding/binary"
	"math/bits"
	"sync"

	"github.com/SuhanArda/argonite/internal/blake2"
)

// A block is one 1 KiB cell of the memory matrix, held as 64-bit little-endian words.
type block [blockWords]uint64

// initBlocks primes the first two blocks of every lane from the seed, each derived by hashing
// the seed with the block and lane indexes appended and expanding the result to a full block.
func initBlocks(h0 *[blake2.Size]byte, memory uint32, threads uint8) []block {
	var (
		seed  [blake2.Size + 8]byte
		inner [blake2.Size]byte
		buf   [BlockSize]byte
	)
	copy(seed[:], h0[:])

	m := make([]block, memory)
	laneLen := memory / uint32(threads)
	for lane := uint32(0); lane < uint32(threads); lane++ {
		for i := uint32(0); i < 2; i++ {
			binary.LittleEndian.PutUint32(seed[blake2.Size:], i)
			binary.LittleEndian.PutUint32(seed[blake2.Size+4:], lane)
			blake2.Sum(inner[:], seed[:])
			expand(buf[:], inner[:])

			b := &m[lane*laneLen+i]
			for w := range b {
				b[w] = binary.LittleEndian.Uint64(buf[w*8:])
			}
		}
	}
	return m
}

// fillBlocks performs the configured number of passes over the matrix. Within one slice the
// lanes have no data dependency on each other and are filled concurrently; slices are
// synchronization barriers.
func fillBlocks(m []block, time, memory uint32, threads uint8) {
	laneLen := memory / uint32(threads)
	segLen := laneLen / syncPoints

	for pass := uint32(0); pass < time; pass++ {
		for slice := uint32(0); slice < syncPoints; slice++ {
			var wg sync.WaitGroup
			for lane := uint32(0); lane < uint32(threads); lane++ {
				wg.Go(func() {
					fillSegment(m, pass, slice, lane, laneLen, segLen, threads)
				})
			}
			wg.Wait()
		}
	}
}

// fillSegment fills one lane's share of a slice in program order. Each block mixes its
// predecessor within the lane (wrapping to the lane's last block at index 0) with a reference
// block addressed by the predecessor's first word.
func fillSegment(m []block, pass, slice, lane, laneLen, segLen uint32, threads uint8) {
	index := uint32(0)
	if pass == 0 && slice == 0 {
		index = 2 // the first two blocks of each lane are primed
	}
	for ; index < segLen; index++ {
		cur := lane*laneLen + slice*segLen + index
		prev := cur - 1
		if slice == 0 && index == 0 {
			prev = lane*laneLen + laneLen - 1
		}
		ref := refBlock(m[prev][0], pass, slice, lane, index, laneLen, segLen, threads, cur, prev)
		mixBlock(&m[cur], &m[prev], &m[ref])
	}
}

// refBlock selects the reference block for the block at cur. The low 32 bits of rand pick a
// lane; the high 32 bits pick a position within that lane's already-written window. The window
// never includes blocks of the slice currently being filled by other lanes, and a selection
// landing on cur itself falls back to the predecessor.
func refBlock(rand uint64, pass, slice, lane, index, laneLen, segLen uint32, threads uint8, cur, prev uint32) uint32 {
	refLane := uint32(rand) % uint32(threads)
	if pass == 0 && slice == 0 {
		refLane = lane // no other lane has written anything yet
	}
	pos := uint32(rand >> 32)

	if refLane == lane {
		w := laneLen
		if pass == 0 {
			w = slice*segLen + index
		}
		pos %= w
		if lane*laneLen+pos == cur {
			return prev
		}
		return lane*laneLen + pos
	}

	w := laneLen - segLen
	if pass == 0 {
		w = slice * segLen
	}
	pos %= w
	if pass > 0 && pos >= slice*segLen {
		pos += segLen // skip the slice in flight
	}
	return refLane*laneLen + pos
}

// mixBlock combines two blocks word by word into out. Every output word folds in both input
// words and the previous output word through truncated multiply-adds, so equal inputs neither
// cancel out nor propagate zeroes, and the chain resists word-local inversion.
func mixBlock(out, a, b *block) {
	prev := mulAdd(a[blockWords-1], b[blockWords-1])
	for i := range out {
		w := mulAdd(mulAdd(a[i], b[i]), bits.RotateLeft64(prev, 32))
		out[i] = w
		prev = w
	}
}

// mulAdd is the BlaMka primitive: x + y + 2*lo(x)*lo(y).
func mulAdd(x, y uint64) uint64 {
	return x + y + 2*(x&0xFFFFFFFF)*(y&0xFFFFFFFF)
}
