package arena

import (
	"github.com/rs/zerolog"
)

const (
	// WordSize is the width of one arena word in bytes.
	WordSize = 4

	// DefaultWords is the default pool size (4096 words = 16 KiB).
	DefaultWords = 4096

	// TagWords is the per-block overhead: one boundary tag at each end.
	TagWords = 2

	// MinBlockWords is the smallest block that can stand alone as a free
	// block: two tags plus the prev and next link words.
	MinBlockWords = 4
)

// Addr is the arena-relative index of a block's first payload word.
type Addr int

// Nil is returned by Allocate and Next when there is no block to return.
const Nil Addr = -1

// nilIndex terminates the free list in link words and freeHead.
const nilIndex = -1

// Arena is a boundary-tag allocator over a fixed word pool. Not
// goroutine-safe. Use SafeArena for concurrent access.
type Arena struct {
	words    []int32
	freeHead int
	cursor   int

	log    zerolog.Logger
	checks bool
	stats  Stats

	// unmap releases mapped backing memory; nil for heap pools.
	unmap func() error
}

// NewArena creates an Arena over a heap-allocated pool of the given number
// of words. If words < MinBlockWords, DefaultWords is used.
func NewArena(words int, opts ...Option) *Arena {
	if words < MinBlockWords {
		words = DefaultWords
	}
	return newArena(make([]int32, words), opts)
}

func newArena(pool []int32, opts []Option) *Arena {
	a := &Arena{
		words: pool,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.init()
	return a
}

// init lays out a single free block spanning the whole pool.
func (a *Arena) init() {
	clear(a.words)
	n := len(a.words)
	a.setBlock(0, n, true)
	a.setPrev(0, nilIndex)
	a.setNext(0, nilIndex)
	a.freeHead = 0
	a.cursor = 0
}

// Words returns the pool size in words.
func (a *Arena) Words() int {
	return len(a.words)
}

// FreeHead returns the address of the first free-list block, or Nil when
// every word is allocated.
func (a *Arena) FreeHead() Addr {
	a.panicIfReleased()
	if a.freeHead == nilIndex {
		return Nil
	}
	return addrOf(a.freeHead)
}

// Reset returns the arena to its freshly constructed state: one free block
// covering the whole pool. Outstanding addresses become invalid.
func (a *Arena) Reset() {
	a.panicIfReleased()
	a.init()
	a.stats = Stats{}
}

// Release drops the pool and makes the arena unusable.
// Any subsequent operation panics.
func (a *Arena) Release() {
	if a.words == nil {
		return
	}
	if a.unmap != nil {
		if err := a.unmap(); err != nil {
			a.log.Error().Err(err).Msg("unmap arena pool")
		}
		a.unmap = nil
	}
	a.words = nil
	a.freeHead = nilIndex
	a.cursor = 0
}

// panicIfReleased panics if the arena has been released.
func (a *Arena) panicIfReleased() {
	if a.words == nil {
		panic("arena: use after Release()")
	}
}

// Block tag primitives. A block starting at index i spans |words[i]|
// words; the same signed value sits at i and at i+|words[i]|-1.
// Negative means free.

func (a *Arena) blockLen(i int) int {
	t := a.words[i]
	if t < 0 {
		t = -t
	}
	return int(t)
}

func (a *Arena) isFreeAt(i int) bool {
	return a.words[i] < 0
}

// setBlock writes both boundary tags of an n-word block at i.
func (a *Arena) setBlock(i, n int, free bool) {
	t := int32(n)
	if free {
		t = -t
	}
	a.words[i] = t
	a.words[i+n-1] = t
}

// clearHeader zeroes the left tag and link words of a block absorbed by a
// coalesce, along with the right tag of the block before it.
func (a *Arena) clearHeader(i int) {
	a.words[i-1] = 0
	a.words[i] = 0
	a.words[i+1] = 0
	a.words[i+2] = 0
}

func addrOf(i int) Addr {
	return Addr(i + 1)
}

func indexOf(p Addr) int {
	return int(p) - 1
}

// requiredWords is ceil(numBytes/WordSize) plus the two tags.
func requiredWords(numBytes int) int {
	return (numBytes+WordSize-1)/WordSize + TagWords
}
