package arena

import (
	"unsafe"
)

// Allocate reserves a block with room for numBytes of payload and returns
// the address of its first payload word, or Nil if no free block fits.
//
// The free list is scanned first-fit in list order. A chosen block is
// split when the leftover is at least MinBlockWords: the allocation takes
// the high-address end and the low-address remainder stays in the free
// list in place. Otherwise the whole block is handed out and the surplus
// becomes internal fragmentation.
//
// Requests whose block (payload plus tags) would be smaller than
// MinBlockWords fail even on an empty arena: numBytes <= 4 never succeeds.
// Failure leaves the arena unchanged.
func (a *Arena) Allocate(numBytes int) Addr {
	a.panicIfReleased()
	a.stats.AllocCalls++

	if numBytes <= 0 || numBytes > len(a.words)*WordSize {
		return a.allocFailed(numBytes, "request out of range")
	}
	need := requiredWords(numBytes)
	if need*WordSize < MinBlockWords*WordSize {
		return a.allocFailed(numBytes, "request below minimum block size")
	}

	for i := a.freeHead; i != nilIndex; i = a.nextOf(i) {
		size := a.blockLen(i)
		if size < need {
			continue
		}

		var p Addr
		if size-need < MinBlockWords {
			a.unlinkFree(i)
			a.setBlock(i, size, false)
			a.stats.WholeBlocks++
			p = addrOf(i)
			a.log.Debug().Int("block", i).Int("words", size).Int("bytes", numBytes).Msg("allocate whole block")
		} else {
			rest := size - need
			a.setBlock(i, rest, true)
			j := i + rest
			a.setBlock(j, need, false)
			a.stats.Splits++
			p = addrOf(j)
			a.log.Debug().Int("block", j).Int("words", need).Int("bytes", numBytes).
				Int("remainder", i).Int("remainder_words", rest).Msg("allocate split")
		}
		a.afterMutation("allocate")
		return p
	}
	return a.allocFailed(numBytes, "no free block fits")
}

func (a *Arena) allocFailed(numBytes int, reason string) Addr {
	a.stats.AllocFailures++
	a.log.Debug().Int("bytes", numBytes).Str("reason", reason).Msg("allocate failed")
	return Nil
}

// AllocBytes allocates a block for n bytes and returns a slice over the
// first n payload bytes. Returns nil if n <= 0 or the arena has no room.
// Pass the slice to AddrOf to obtain the address for Free.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	p := a.Allocate(n)
	if p == Nil {
		return nil
	}
	return a.Bytes(p)[:n]
}

// Payload returns the payload words of the block at p: everything between
// its two boundary tags. For a free block the first two words are the
// free-list links.
func (a *Arena) Payload(p Addr) []int32 {
	a.panicIfReleased()
	i := indexOf(p)
	n := a.blockLen(i)
	return a.words[i+1 : i+n-1 : i+n-1]
}

// Bytes returns the payload of the block at p as a byte slice aliasing the
// pool. The slice is valid until the block is freed or the arena released.
func (a *Arena) Bytes(p Addr) []byte {
	w := a.Payload(p)
	return unsafe.Slice((*byte)(unsafe.Pointer(&w[0])), len(w)*WordSize)
}

// AddrOf maps a slice returned by AllocBytes or Bytes back to the address
// of its block. Returns Nil for an empty slice or one outside the pool.
func (a *Arena) AddrOf(b []byte) Addr {
	a.panicIfReleased()
	if len(b) == 0 {
		return Nil
	}
	base := uintptr(unsafe.Pointer(&a.words[0]))
	ptr := uintptr(unsafe.Pointer(&b[0]))
	if ptr < base || ptr >= base+uintptr(len(a.words))*WordSize {
		return Nil
	}
	return Addr((ptr - base) / WordSize)
}
