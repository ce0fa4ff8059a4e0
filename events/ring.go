package events

// ring is a fixed-size circular history of recent events. The bus keeps
// one so reports and tools can show what happened lately without holding
// a subscription open. Oldest entries are overwritten when full.
type ring struct {
	items    []Event
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest retained event
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring{
		items:    make([]Event, capacity),
		capacity: capacity,
	}
}

// push appends an event, overwriting the oldest when full. Returns true
// if an old event was displaced.
func (r *ring) push(evt Event) bool {
	displaced := false
	if r.size == r.capacity {
		r.tail = (r.tail + 1) % r.capacity
		r.size--
		displaced = true
	}
	r.items[r.head] = evt
	r.head = (r.head + 1) % r.capacity
	r.size++
	return displaced
}

// recent returns up to max events, oldest first. A non-positive max
// returns everything retained.
func (r *ring) recent(max int) []Event {
	if max <= 0 || max > r.size {
		max = r.size
	}
	if max == 0 {
		return nil
	}

	out := make([]Event, max)
	// Start so the newest max events are returned.
	start := (r.tail + r.size - max) % r.capacity
	for i := 0; i < max; i++ {
		out[i] = r.items[(start+i)%r.capacity]
	}
	return out
}

func (r *ring) clear() {
	var zero Event
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.tail, r.size = 0, 0, 0
}
