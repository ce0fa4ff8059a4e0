package scheduler

// Priority orders load requests at dispatch. Within a class, requests
// dispatch in arrival order.
type Priority int

const (
	// PriorityHigh is for assets blocking the current frame.
	PriorityHigh Priority = iota
	// PriorityNormal is the default for on-demand loads.
	PriorityNormal
	// PriorityLow is for preloads and background warming.
	PriorityLow

	numPriorities = 3
)

// String returns the priority label used in logs and metrics.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// valid reports whether the priority is one of the defined classes.
func (p Priority) valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}
