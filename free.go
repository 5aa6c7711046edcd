package arena

// Free returns the block at p to the arena. p must be an address returned
// by Allocate on this arena and not freed since; anything else is
// undefined behaviour and is not detected.
//
// The block is appended to the tail of the free list and then merged with
// whichever address-adjacent neighbours are free, so no two adjacent
// blocks are ever free when Free returns.
func (a *Arena) Free(p Addr) {
	a.panicIfReleased()
	a.stats.FreeCalls++

	c := indexOf(p)
	n := a.blockLen(c)
	a.setBlock(c, n, true)
	a.appendFree(c)
	a.log.Debug().Int("block", c).Int("words", n).Msg("free")

	end := c + n
	leftFree := c > 0 && a.isFreeAt(c-1)
	rightFree := end < len(a.words) && a.isFreeAt(end)

	switch {
	case leftFree && rightFree:
		a.coalesceBoth(c, c-a.blockLen(c-1), end)
	case leftFree:
		a.coalesceLeft(c, c-a.blockLen(c-1))
	case rightFree:
		a.coalesceRight(c, end)
	}
	a.afterMutation("free")
}

// coalesceLeft merges freed block c into its free left neighbour l. The
// merged block starts at l and keeps l's list slot.
func (a *Arena) coalesceLeft(c, l int) {
	size := a.blockLen(l) + a.blockLen(c)

	a.unlinkFree(c)
	a.clearHeader(c)
	a.setBlock(l, size, true)

	a.stats.CoalesceLeft++
	a.log.Debug().Int("block", l).Int("left", l).Int("words", size).Msg("coalesce left")
}

// coalesceRight merges the free right neighbour r into freed block c. The
// merged block starts at c and takes over r's list slot.
func (a *Arena) coalesceRight(c, r int) {
	size := a.blockLen(c) + a.blockLen(r)

	a.unlinkFree(c)
	a.replaceFree(r, c)
	a.clearHeader(r)
	a.setBlock(c, size, true)

	a.stats.CoalesceRight++
	a.log.Debug().Int("block", c).Int("right", r).Int("words", size).Msg("coalesce right")
}

// coalesceBoth merges free neighbours l and r with freed block c into one
// block starting at l. Which neighbour's list slot survives depends on how
// c was linked when it was appended:
//   - l.next == c: l was the tail, so the merged block takes r's slot;
//   - r.next == c: r was the tail, so the merged block keeps l's slot;
//   - otherwise the merged block keeps l's slot.
func (a *Arena) coalesceBoth(c, l, r int) {
	size := a.blockLen(l) + a.blockLen(c) + a.blockLen(r)

	if a.nextOf(l) == c {
		a.unlinkFree(c)
		a.unlinkFree(l)
		a.replaceFree(r, l)
	} else {
		a.unlinkFree(c)
		a.unlinkFree(r)
	}
	a.clearHeader(c)
	a.clearHeader(r)
	a.setBlock(l, size, true)

	a.stats.CoalesceBoth++
	a.log.Debug().Int("block", l).Int("left", l).Int("right", r).Int("words", size).Msg("coalesce both")
}
