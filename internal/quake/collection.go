package quake

import "github.com/san-kum/quakeplay/internal/policy"

// Collection is the ordered set of events from one fetch. Order is feed order,
// which is not guaranteed to be chronological.
type Collection struct {
	events  []Event
	skipped int
	minMs   int64
	maxMs   int64
}

func NewCollection(events []Event) *Collection {
	c := &Collection{events: make([]Event, len(events))}
	copy(c.events, events)
	for i, e := range c.events {
		if i == 0 || e.OccurredAtMs < c.minMs {
			c.minMs = e.OccurredAtMs
		}
		if i == 0 || e.OccurredAtMs > c.maxMs {
			c.maxMs = e.OccurredAtMs
		}
	}
	return c
}

// Empty returns a collection with no events, used when a fetch fails.
func Empty() *Collection { return &Collection{} }

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.events)
}

// Events returns the backing slice. Callers must not modify it.
func (c *Collection) Events() []Event {
	if c == nil {
		return nil
	}
	return c.events
}

func (c *Collection) At(i int) Event { return c.events[i] }

// Skipped is the number of malformed feed records dropped during Load.
func (c *Collection) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// Bounds returns the earliest and latest event times. ok is false when the
// collection is empty.
func (c *Collection) Bounds() (minMs, maxMs int64, ok bool) {
	if c.Len() == 0 {
		return 0, 0, false
	}
	return c.minMs, c.maxMs, true
}

// Filter returns a new collection with the events keep accepts, preserving order.
func (c *Collection) Filter(keep func(Event) bool) *Collection {
	out := make([]Event, 0, c.Len())
	for _, e := range c.Events() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return NewCollection(out)
}

// Within restricts the collection to a region.
func (c *Collection) Within(r Region) *Collection {
	return c.Filter(r.Contains)
}

// DailyCounts buckets events into whole days starting at fromMs. Events
// outside [fromMs, toMs] are ignored.
func (c *Collection) DailyCounts(fromMs, toMs int64) []float64 {
	if toMs < fromMs {
		return nil
	}
	n := int((toMs-fromMs)/policy.DayMs) + 1
	counts := make([]float64, n)
	for _, e := range c.Events() {
		if e.OccurredAtMs < fromMs || e.OccurredAtMs > toMs {
			continue
		}
		counts[(e.OccurredAtMs-fromMs)/policy.DayMs]++
	}
	return counts
}
