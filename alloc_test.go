package arena

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeList returns the free-list entries as (index, words) pairs in link order.
func freeList(a *Arena) [][2]int {
	var out [][2]int
	for b := range a.FreeBlocks() {
		out = append(out, [2]int{indexOf(b.Addr), b.Words})
	}
	return out
}

func TestAllocateSplitsFromHighEnd(t *testing.T) {
	a := NewArena(0)

	p := a.Allocate(8)
	require.Equal(t, Addr(4093), p)

	assert.Equal(t, int32(4), a.words[4092], "allocated left tag")
	assert.Equal(t, int32(4), a.words[4095], "allocated right tag")
	assert.Equal(t, int32(-4092), a.words[0], "remainder left tag")
	assert.Equal(t, int32(-4092), a.words[4091], "remainder right tag")
	assert.Equal(t, 16, a.Size(p))
	assert.False(t, a.IsFree(p))

	// The remainder keeps its place in the free list.
	assert.Equal(t, Addr(1), a.FreeHead())
	assert.Equal(t, [][2]int{{0, 4092}}, freeList(a))
	assert.Equal(t, 1, a.Stats().Splits)
	require.NoError(t, a.Check())
}

func TestAllocateDegenerateRequests(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 2, 3, 4} {
		a := NewArena(0)
		before := slices.Clone(a.words)

		assert.Equal(t, Nil, a.Allocate(n), "Allocate(%d)", n)
		assert.Equal(t, before, a.words, "Allocate(%d) mutated the pool", n)
		assert.Equal(t, 1, a.Stats().AllocFailures)
	}

	a := NewArena(0)
	assert.NotEqual(t, Nil, a.Allocate(5), "5 bytes needs a 4-word block")
}

func TestAllocateExhaustion(t *testing.T) {
	a := NewArena(0)
	before := slices.Clone(a.words)

	assert.Equal(t, Nil, a.Allocate(DefaultWords*WordSize))
	assert.Equal(t, Nil, a.Allocate(DefaultWords*WordSize-7))
	assert.Equal(t, before, a.words)

	// Payload plus tags exactly fills the pool.
	p := a.Allocate((DefaultWords - TagWords) * WordSize)
	require.Equal(t, Addr(1), p)
	assert.Equal(t, DefaultWords*WordSize, a.Size(p))
	assert.Equal(t, Nil, a.FreeHead())

	full := slices.Clone(a.words)
	assert.Equal(t, Nil, a.Allocate(8))
	assert.Equal(t, full, a.words)
	require.NoError(t, a.Check())
}

func TestAllocateAbsorbsSmallRemainder(t *testing.T) {
	a := NewArena(10)

	p1 := a.Allocate(8) // splits: free [0, 6), allocated [6, 10)
	require.Equal(t, Addr(7), p1)
	assert.Equal(t, [][2]int{{0, 6}}, freeList(a))

	// 6 - 4 leaves 2 words, too small to stand alone: take all 6.
	p2 := a.Allocate(8)
	require.Equal(t, Addr(1), p2)
	assert.Equal(t, 24, a.Size(p2))
	assert.Equal(t, Nil, a.FreeHead())
	assert.Equal(t, 1, a.Stats().WholeBlocks)
	require.NoError(t, a.Check())
}

func TestAllocateExactFitUnlinksHead(t *testing.T) {
	a := NewArena(16)
	p1 := a.Allocate(8) // [12, 16)
	p2 := a.Allocate(8) // [8, 12)
	p3 := a.Allocate(8) // [4, 8)
	a.Allocate(8)       // [0, 4), exact fit

	a.Free(p1)
	a.Free(p3)
	require.Equal(t, [][2]int{{12, 4}, {4, 4}}, freeList(a))

	// The head block is consumed and its successor becomes the head.
	p := a.Allocate(8)
	assert.Equal(t, p1, p)
	assert.Equal(t, p3, a.FreeHead())
	assert.Equal(t, int32(nilIndex), a.words[4+1], "new head prev")
	assert.False(t, a.IsFree(p2))
	require.NoError(t, a.Check())
}

func TestAllocateFirstFitFollowsListOrder(t *testing.T) {
	a := NewArena(16)
	p1 := a.Allocate(8) // [12, 16)
	a.Allocate(8)       // [8, 12)
	p3 := a.Allocate(8) // [4, 8)
	a.Allocate(8)       // [0, 4)

	// Free the high block first so the list order is 12 then 4.
	a.Free(p1)
	a.Free(p3)

	assert.Equal(t, p1, a.Allocate(5), "first fit takes the list head, not the lowest address")
	assert.Equal(t, p3, a.Allocate(5))
	assert.Equal(t, Nil, a.Allocate(5))
}

func TestAllocateSkipsSmallBlocks(t *testing.T) {
	a := NewArena(32)
	p1 := a.Allocate(8) // [28, 32)
	a.Allocate(8)       // [24, 28)
	a.Allocate(72)      // 20 words: [4, 24)
	a.Allocate(8)       // [0, 4)
	a.Free(p1)          // list: 28(4)
	require.Equal(t, Nil, a.Allocate(16), "no 6-word block")

	p := a.Allocate(8)
	assert.Equal(t, p1, p)
}

func TestAllocBytes(t *testing.T) {
	a := NewArena(0)

	b := a.AllocBytes(10)
	require.Len(t, b, 10)
	p := a.AddrOf(b)
	require.NotEqual(t, Nil, p)
	assert.Equal(t, 20, a.Size(p), "ceil(10/4)+2 words")

	copy(b, "boundary!!")
	assert.Equal(t, []byte("boundary!!"), a.Bytes(p)[:10])
	assert.Len(t, a.Payload(p), 3)
	assert.Len(t, a.Bytes(p), 12)

	assert.Nil(t, a.AllocBytes(0))
	assert.Nil(t, a.AllocBytes(-1))
	assert.Nil(t, a.AllocBytes(3), "below minimum block size")

	assert.Equal(t, Nil, a.AddrOf(nil))
	assert.Equal(t, Nil, a.AddrOf(make([]byte, 8)), "foreign slice")

	a.Free(p)
	assert.Equal(t, int32(-DefaultWords), a.words[0])
	require.NoError(t, a.Check())
}

func TestPayloadExcludesTags(t *testing.T) {
	a := NewArena(0)
	p := a.Allocate(40)
	w := a.Payload(p)
	require.Len(t, w, 10)

	for i := range w {
		w[i] = int32(i + 100)
	}
	// Writing the whole payload must leave both tags intact.
	assert.Equal(t, int32(12), a.words[indexOf(p)])
	assert.Equal(t, int32(12), a.words[indexOf(p)+11])
	require.NoError(t, a.Check())
}
