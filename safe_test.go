package arena

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestNewSafeArena(t *testing.T) {
	s := NewSafeArena(1024)
	require.NotNil(t, s)
	require.NotNil(t, s.a)
	assert.Equal(t, 1024, s.a.Words())
}

func TestSafeArenaOperations(t *testing.T) {
	s := NewSafeArena(1024)

	p := s.Allocate(100)
	require.NotEqual(t, Nil, p)
	assert.False(t, s.IsFree(p))
	assert.Equal(t, 108, s.Size(p))

	b := s.AllocBytes(40)
	require.Len(t, b, 40)
	q := s.AddrOf(b)
	assert.Equal(t, 48, s.Size(q))
	assert.Nil(t, s.AllocBytes(0))

	s.Free(p)
	s.Free(q)
	require.NoError(t, s.Check())

	s.Start()
	first := s.Next()
	assert.Equal(t, Addr(1), first)
	assert.True(t, s.IsFree(first))
	assert.Equal(t, Nil, s.Next())

	s.Allocate(16)
	s.Reset()
	assert.Zero(t, s.SizeInUse())

	s.Release()
	assert.Panics(t, func() { s.Allocate(100) })
}

func TestSafeArenaConcurrentAllocFree(t *testing.T) {
	s := NewSafeArena(0)

	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(int64(w)))
			var held []Addr
			for range 500 {
				if p := s.Allocate(5 + rng.Intn(60)); p != Nil {
					if s.IsFree(p) {
						return fmt.Errorf("worker %d: fresh block %d reported free", w, p)
					}
					held = append(held, p)
				}
				if len(held) > 4 {
					s.Free(held[0])
					held = held[1:]
				}
			}
			for _, p := range held {
				s.Free(p)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, s.Check())

	var blocks []Block
	s.Walk(func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Addr: 1, Words: DefaultWords, Free: true}, blocks[0])
	assert.Equal(t, 8*500, s.Stats().AllocCalls)
}

func TestSafeArenaConcurrentReaders(t *testing.T) {
	s := NewSafeArena(0)
	for range 16 {
		s.Allocate(64)
	}

	var g errgroup.Group
	for range 4 {
		g.Go(func() error {
			for range 100 {
				total := 0
				s.Walk(func(b Block) bool {
					total += b.Bytes()
					return true
				})
				if total != DefaultWords*WordSize {
					return fmt.Errorf("walk covered %d bytes", total)
				}
				if err := s.Check(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for range 100 {
			s.Free(s.Allocate(32))
		}
		return nil
	})
	require.NoError(t, g.Wait())
}

func TestSafeArenaWalkStopsEarly(t *testing.T) {
	s := NewSafeArena(0)
	s.Allocate(8)
	s.Allocate(8)

	n := 0
	s.Walk(func(Block) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}
