package arena

import (
	"io"
	"sync"
)

// SafeArena is a mutex-protected wrapper around Arena for concurrent access.
// Every operation takes one arena-wide lock; the allocator itself stays
// single-threaded.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena creates a new thread-safe arena over a pool of the given
// number of words. If words < MinBlockWords, DefaultWords is used.
func NewSafeArena(words int, opts ...Option) *SafeArena {
	return &SafeArena{a: NewArena(words, opts...)}
}

// Allocate thread-safely reserves a block for numBytes of payload.
// Returns Nil if nothing fits.
func (s *SafeArena) Allocate(numBytes int) Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(numBytes)
}

// AllocBytes thread-safely allocates a block for n bytes and returns a
// slice over its first n payload bytes, or nil if nothing fits.
func (s *SafeArena) AllocBytes(n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocBytes(n)
}

// AddrOf thread-safely maps a slice from AllocBytes back to its address.
func (s *SafeArena) AddrOf(b []byte) Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AddrOf(b)
}

// Free thread-safely returns the block at p to the arena.
func (s *SafeArena) Free(p Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Free(p)
}

// IsFree thread-safely reports whether the block at p is free.
func (s *SafeArena) IsFree(p Addr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.IsFree(p)
}

// Size thread-safely returns the length in bytes of the block at p.
func (s *SafeArena) Size(p Addr) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Size(p)
}

// Start thread-safely rewinds the shared address-order cursor.
func (s *SafeArena) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Start()
}

// Next thread-safely returns the block under the shared cursor and
// advances it. Concurrent walkers share one cursor; use Walk for a
// consistent view.
func (s *SafeArena) Next() Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Next()
}

// Walk calls fn for every block in address order while holding the lock.
// It stops early when fn returns false. fn must not call back into s.
func (s *SafeArena) Walk(fn func(Block) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for b := range s.a.Blocks() {
		if !fn(b) {
			return
		}
	}
}

// Check thread-safely verifies the arena's invariants.
func (s *SafeArena) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Check()
}

// WriteSnapshot thread-safely encodes the arena to w.
func (s *SafeArena) WriteSnapshot(w io.Writer, codec Codec) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.WriteSnapshot(w, codec)
}

// Reset thread-safely returns the arena to a single free block.
func (s *SafeArena) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Release thread-safely drops the pool and makes the arena unusable.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}
