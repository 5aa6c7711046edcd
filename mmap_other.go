//go:build windows

package arena

// NewMappedArena falls back to a heap pool where anonymous mappings are
// not available through x/sys/unix.
func NewMappedArena(words int, opts ...Option) (*Arena, error) {
	return NewArena(words, opts...), nil
}
