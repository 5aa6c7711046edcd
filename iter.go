package arena

import "iter"

// Block is a decoded view of one block's boundary tag.
type Block struct {
	Addr  Addr // first payload word
	Words int  // total length including both tags
	Free  bool
}

// Bytes returns the block length in bytes, tags included.
func (b Block) Bytes() int {
	return b.Words * WordSize
}

// PayloadWords returns the number of words between the two tags.
func (b Block) PayloadWords() int {
	return b.Words - TagWords
}

// Start rewinds the address-order cursor used by Next to the first block.
func (a *Arena) Start() {
	a.panicIfReleased()
	a.cursor = 0
}

// Next returns the block under the cursor and advances past it. Blocks are
// visited in address order, free and allocated alike. Once the end of the
// pool is reached Next keeps returning Nil until Start is called again.
// If a Free during the walk absorbed the block under the cursor, its
// cleared header ends the walk.
func (a *Arena) Next() Addr {
	a.panicIfReleased()
	if a.cursor >= len(a.words) || a.words[a.cursor] == 0 {
		return Nil
	}
	i := a.cursor
	a.cursor += a.blockLen(i)
	return addrOf(i)
}

// IsFree reports whether the block at p is free.
func (a *Arena) IsFree(p Addr) bool {
	a.panicIfReleased()
	return a.isFreeAt(indexOf(p))
}

// Size returns the length in bytes of the block at p, including the two
// tag words. It is not the byte count originally requested.
func (a *Arena) Size(p Addr) int {
	a.panicIfReleased()
	return a.blockLen(indexOf(p)) * WordSize
}

// Block decodes the tag of the block at p.
func (a *Arena) Block(p Addr) Block {
	a.panicIfReleased()
	i := indexOf(p)
	return Block{Addr: p, Words: a.blockLen(i), Free: a.isFreeAt(i)}
}

// Blocks walks every block in address order without touching the
// Start/Next cursor.
func (a *Arena) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		a.panicIfReleased()
		for i := 0; i < len(a.words); {
			n := a.blockLen(i)
			if n == 0 {
				return
			}
			if !yield(Block{Addr: addrOf(i), Words: n, Free: a.isFreeAt(i)}) {
				return
			}
			i += n
		}
	}
}

// FreeBlocks walks the free list from its head in link order.
func (a *Arena) FreeBlocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		a.panicIfReleased()
		for i := a.freeHead; i != nilIndex; i = a.nextOf(i) {
			if !yield(Block{Addr: addrOf(i), Words: a.blockLen(i), Free: true}) {
				return
			}
		}
	}
}

// blockStartsAt reports whether index i is the first word of a block or
// the end of the pool.
func (a *Arena) blockStartsAt(i int) bool {
	j := 0
	for j < i {
		n := a.blockLen(j)
		if n == 0 {
			return false
		}
		j += n
	}
	return j == i
}
