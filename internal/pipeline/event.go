package pipeline

type EventKind int

const (
	EventProgress EventKind = iota
	EventDone
	EventError
)

// Event is delivered on the channel returned by Start. Exactly one Done or
// Error event is sent last, then the channel is closed.
type Event struct {
	Kind    EventKind
	Stage   Stage
	Message string
	Result  *Result
	Err     error
}
