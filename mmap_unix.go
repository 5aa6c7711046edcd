//go:build !windows

package arena

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// NewMappedArena creates an Arena whose pool lives in an anonymous private
// memory mapping instead of the Go heap. Release unmaps it. If
// words < MinBlockWords, DefaultWords is used.
func NewMappedArena(words int, opts ...Option) (*Arena, error) {
	if words < MinBlockWords {
		words = DefaultWords
	}
	mem, err := unix.Mmap(-1, 0, words*WordSize, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d words: %w", words, err)
	}
	pool := unsafe.Slice((*int32)(unsafe.Pointer(&mem[0])), words)
	a := newArena(pool, opts)
	a.unmap = func() error {
		return unix.Munmap(mem)
	}
	return a, nil
}
