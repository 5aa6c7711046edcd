package arena

// Stats counts allocator events since construction or the last Reset.
type Stats struct {
	AllocCalls    int `json:"alloc_calls"`    // Allocate calls
	AllocFailures int `json:"alloc_failures"` // Allocate calls that returned Nil
	Splits        int `json:"splits"`         // allocations carved from the high end of a larger block
	WholeBlocks   int `json:"whole_blocks"`   // allocations that consumed an entire free block
	FreeCalls     int `json:"free_calls"`     // Free calls
	CoalesceLeft  int `json:"coalesce_left"`  // merges with the left neighbour only
	CoalesceRight int `json:"coalesce_right"` // merges with the right neighbour only
	CoalesceBoth  int `json:"coalesce_both"`  // merges with both neighbours
}

// Capacity returns the pool size in bytes.
func (a *Arena) Capacity() int {
	if a.words == nil {
		return 0
	}
	return len(a.words) * WordSize
}

// SizeInUse returns the bytes held by allocated blocks, including their
// tags and any absorbed remainder.
func (a *Arena) SizeInUse() int {
	if a.words == nil {
		return 0
	}
	sum := 0
	for b := range a.Blocks() {
		if !b.Free {
			sum += b.Bytes()
		}
	}
	return sum
}

// Utilization returns the ratio of bytes in use to capacity (0.0 to 1.0).
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// LargestFree returns the size in bytes of the largest free block, or 0 if
// the pool is fully allocated.
func (a *Arena) LargestFree() int {
	if a.words == nil {
		return 0
	}
	largest := 0
	for b := range a.FreeBlocks() {
		largest = max(largest, b.Bytes())
	}
	return largest
}

// Stats returns the event counters.
func (a *Arena) Stats() Stats {
	return a.stats
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	m := ArenaMetrics{
		Capacity: a.Capacity(),
		Stats:    a.stats,
	}
	if a.words == nil {
		return m
	}
	for b := range a.Blocks() {
		if b.Free {
			m.FreeBlocks++
			m.LargestFree = max(m.LargestFree, b.Bytes())
		} else {
			m.AllocatedBlocks++
			m.SizeInUse += b.Bytes()
		}
	}
	m.FreeListLen = a.freeListLen()
	if m.Capacity > 0 {
		m.Utilization = float64(m.SizeInUse) / float64(m.Capacity)
	}
	return m
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	Capacity        int     `json:"capacity"`         // Pool size in bytes
	SizeInUse       int     `json:"size_in_use"`      // Bytes in allocated blocks, tags included
	Utilization     float64 `json:"utilization"`      // SizeInUse / Capacity
	FreeBlocks      int     `json:"free_blocks"`      // Free blocks in address order
	AllocatedBlocks int     `json:"allocated_blocks"` // Allocated blocks
	LargestFree     int     `json:"largest_free"`     // Largest free block in bytes
	FreeListLen     int     `json:"free_list_len"`    // Blocks reachable from the free-list head
	Stats           Stats   `json:"stats"`
}

// Thread-safe metrics for SafeArena

// Capacity thread-safely returns the pool size in bytes.
func (s *SafeArena) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Capacity()
}

// SizeInUse thread-safely returns the bytes held by allocated blocks.
func (s *SafeArena) SizeInUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.SizeInUse()
}

// Utilization thread-safely returns the ratio of bytes in use to capacity.
func (s *SafeArena) Utilization() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Utilization()
}

// LargestFree thread-safely returns the largest free block in bytes.
func (s *SafeArena) LargestFree() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.LargestFree()
}

// Stats thread-safely returns the event counters.
func (s *SafeArena) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}
