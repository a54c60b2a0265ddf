package render

import "sync"

// Collector is a Renderer that keeps the current frame in memory.
type Collector struct {
	mu      sync.Mutex
	markers []MarkerSpec
	clears  int
}

func (c *Collector) Clear() {
	c.mu.Lock()
	c.markers = c.markers[:0]
	c.clears++
	c.mu.Unlock()
}

func (c *Collector) Draw(m MarkerSpec) {
	c.mu.Lock()
	c.markers = append(c.markers, m)
	c.mu.Unlock()
}

func (c *Collector) Markers() []MarkerSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MarkerSpec, len(c.markers))
	copy(out, c.markers)
	return out
}

// Clears reports how many times the frame has been wiped.
func (c *Collector) Clears() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}
