package arena

// The free list is threaded through words i+1 (prev) and i+2 (next) of each
// free block at index i. Every splice goes through appendFree, unlinkFree
// or replaceFree.

func (a *Arena) prevOf(i int) int { return int(a.words[i+1]) }
func (a *Arena) nextOf(i int) int { return int(a.words[i+2]) }

func (a *Arena) setPrev(i, v int) { a.words[i+1] = int32(v) }
func (a *Arena) setNext(i, v int) { a.words[i+2] = int32(v) }

// appendFree links block i at the tail of the free list. The tail is found
// by walking from freeHead, so the list stays in free-time order.
func (a *Arena) appendFree(i int) {
	if a.freeHead == nilIndex {
		a.freeHead = i
		a.setPrev(i, nilIndex)
		a.setNext(i, nilIndex)
		return
	}
	tail := a.freeHead
	for a.nextOf(tail) != nilIndex {
		tail = a.nextOf(tail)
	}
	a.setNext(tail, i)
	a.setPrev(i, tail)
	a.setNext(i, nilIndex)
}

// unlinkFree splices block i out of the free list and clears its links.
func (a *Arena) unlinkFree(i int) {
	prev, next := a.prevOf(i), a.nextOf(i)
	if prev != nilIndex {
		a.setNext(prev, next)
	}
	if next != nilIndex {
		a.setPrev(next, prev)
	}
	if a.freeHead == i {
		a.freeHead = next
	}
	a.setPrev(i, 0)
	a.setNext(i, 0)
}

// replaceFree moves the list slot held by block old to block nu, which must
// be a different block and not itself linked. Links that would make nu
// point at itself or at old are rewritten to nilIndex.
func (a *Arena) replaceFree(old, nu int) {
	prev, next := a.prevOf(old), a.nextOf(old)
	if prev == nu || prev == old {
		prev = nilIndex
	}
	if next == nu || next == old {
		next = nilIndex
	}
	a.setPrev(nu, prev)
	a.setNext(nu, next)
	if prev != nilIndex {
		a.setNext(prev, nu)
	}
	if next != nilIndex {
		a.setPrev(next, nu)
	}
	if a.freeHead == old {
		a.freeHead = nu
	}
	a.setPrev(old, 0)
	a.setNext(old, 0)
}

// freeListLen counts the blocks reachable from freeHead.
func (a *Arena) freeListLen() int {
	n := 0
	for i := a.freeHead; i != nilIndex; i = a.nextOf(i) {
		n++
	}
	return n
}
