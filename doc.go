// Package arena implements a fixed-capacity boundary-tag allocator for Go.
//
// # Overview
//
// An Arena owns one contiguous pool of 4-byte words (4096 words = 16 KiB by
// default) and never grows. Every block, free or allocated, stores its
// length at both its first and last word; the sign of that tag says
// whether the block is free. Free blocks additionally keep prev/next
// indices of a doubly linked free list in the two words after their left
// tag. This is the core of a classic malloc/free:
//
//   - first-fit search of the free list
//   - block splitting, carving allocations from the high end of a free block
//   - immediate coalescing with free left and right neighbours
//   - an address-order walk over every block
//
// # Basic Usage
//
//	a := arena.NewArena(0) // DefaultWords
//	defer a.Release()
//
//	p := a.Allocate(100) // arena.Nil when nothing fits
//	buf := a.Bytes(p)    // payload view, len >= 100
//	fmt.Println(a.Size(p), a.IsFree(p))
//	a.Free(p)
//
//	// Walk every block in address order
//	a.Start()
//	for p := a.Next(); p != arena.Nil; p = a.Next() {
//	    fmt.Println(p, a.Size(p), a.IsFree(p))
//	}
//
// # Memory Layout
//
//	free block:      [-n][prev][next] ... [-n]
//	allocated block: [+n][payload ...]    [+n]
//
// n counts both tags, so a block always costs two words of overhead and the
// smallest block is MinBlockWords (4) words. Allocate(k) needs
// ceil(k/4)+2 words; requests of 4 bytes or less cannot form a block and
// always fail. Size reports the whole block, tags included.
//
// # Addresses
//
// Addr is the pool index of a block's first payload word, not a pointer.
// Nil (-1) is the "no block" result of Allocate and Next. Free on an
// address that is not currently allocated is undefined behaviour and is
// not detected; Check can be used in tests to catch the resulting damage.
//
// # Thread Safety
//
// Arena is not thread-safe. SafeArena serialises every call behind a single
// mutex:
//
//	s := arena.NewSafeArena(0)
//	p := s.Allocate(64)
//	s.Free(p)
//
// # Performance Characteristics
//
//   - Allocate: O(free blocks), first fit in free-list order
//   - Free: O(free blocks), the freed block is appended at the list tail
//   - Coalescing: O(1) via boundary tags
//   - Check, Metrics: O(blocks)
//
// # Snapshots and Backing Memory
//
// WriteSnapshot stores the raw pool (optionally lz4 or zstd compressed) and
// ReadSnapshot restores it after validating every invariant.
// NewMappedArena places the pool in an anonymous memory mapping.
package arena
