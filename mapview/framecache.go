package mapview

import (
	"sync"

	"gioui.org/op/paint"
)

// frameCache keeps the most recent rendered frames as ImageOps, keyed by
// frame index. The oldest entry is evicted once limit is reached.
type frameCache struct {
	ops     map[int]paint.ImageOp
	order   []int
	loading map[int]bool
	limit   int
	mu      sync.Mutex
}

func newFrameCache(limit int) *frameCache {
	return &frameCache{
		ops:     make(map[int]paint.ImageOp),
		loading: make(map[int]bool),
		limit:   max(1, limit),
	}
}

func (c *frameCache) Get(index int) (paint.ImageOp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[index]
	return op, ok
}

// Claim marks index as loading. It reports false when the frame is already
// cached or another goroutine is rendering it.
func (c *frameCache) Claim(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ops[index]; ok || c.loading[index] {
		return false
	}
	c.loading[index] = true
	return true
}

// Release drops a claim without storing a frame.
func (c *frameCache) Release(index int) {
	c.mu.Lock()
	delete(c.loading, index)
	c.mu.Unlock()
}

func (c *frameCache) Set(index int, op paint.ImageOp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.loading, index)
	if _, ok := c.ops[index]; !ok {
		c.order = append(c.order, index)
	}
	c.ops[index] = op
	for len(c.order) > c.limit {
		delete(c.ops, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *frameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ops)
}
