package arena

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Check verifies the arena's structural invariants:
//
//   - walking blocks in address order from index 0 covers the pool exactly;
//   - every block has identical tags at both ends and is at least
//     MinBlockWords long;
//   - no two address-adjacent blocks are both free;
//   - the free list from the head visits every free block exactly once,
//     with mutual prev/next links and no self links.
//
// The returned error wraps ErrCorrupt.
func (a *Arena) Check() error {
	a.panicIfReleased()

	total := len(a.words)
	free := roaring.New()
	prevFree := false
	i := 0
	for i < total {
		n := a.blockLen(i)
		if n < MinBlockWords {
			return fmt.Errorf("%w: block %d has length %d", ErrCorrupt, i, n)
		}
		if i+n > total {
			return fmt.Errorf("%w: block %d of %d words overruns pool of %d", ErrCorrupt, i, n, total)
		}
		if a.words[i] != a.words[i+n-1] {
			return fmt.Errorf("%w: block %d tags differ: %d != %d", ErrCorrupt, i, a.words[i], a.words[i+n-1])
		}
		isFree := a.isFreeAt(i)
		if isFree && prevFree {
			return fmt.Errorf("%w: adjacent free blocks end at %d", ErrCorrupt, i)
		}
		if isFree {
			free.Add(uint32(i))
		}
		prevFree = isFree
		i += n
	}
	if i != total {
		return fmt.Errorf("%w: blocks cover %d of %d words", ErrCorrupt, i, total)
	}

	visited := roaring.New()
	prev := nilIndex
	for cur := a.freeHead; cur != nilIndex; {
		if cur < 0 || cur >= total {
			return fmt.Errorf("%w: free list link %d out of range", ErrCorrupt, cur)
		}
		if !free.Contains(uint32(cur)) {
			return fmt.Errorf("%w: free list entry %d is not a free block", ErrCorrupt, cur)
		}
		if !visited.CheckedAdd(uint32(cur)) {
			return fmt.Errorf("%w: free list revisits block %d", ErrCorrupt, cur)
		}
		if a.prevOf(cur) != prev {
			return fmt.Errorf("%w: block %d prev is %d, want %d", ErrCorrupt, cur, a.prevOf(cur), prev)
		}
		next := a.nextOf(cur)
		if next == cur {
			return fmt.Errorf("%w: block %d links to itself", ErrCorrupt, cur)
		}
		prev, cur = cur, next
	}

	if missing := roaring.AndNot(free, visited); !missing.IsEmpty() {
		return fmt.Errorf("%w: %d free block(s) not on the free list, first at %d",
			ErrCorrupt, missing.GetCardinality(), missing.Minimum())
	}
	return nil
}

// afterMutation runs Check when invariant checks are enabled.
func (a *Arena) afterMutation(op string) {
	if !a.checks {
		return
	}
	if err := a.Check(); err != nil {
		a.log.Error().Err(err).Str("op", op).Msg("arena invariant violated")
	}
}
