package stream

import "github.com/serenemind/emotion-monitor/internal/emotion"

// EventKind discriminates events emitted by the Manager.
type EventKind int

const (
	// EventFrame carries raw emotion samples parsed from an inference
	// response, ready for classification.
	EventFrame EventKind = iota
	// EventWarning carries a non-fatal problem with one response. The
	// connection state is unaffected.
	EventWarning
	// EventStateChange carries a connection status snapshot after a
	// transition.
	EventStateChange
)

// Event is a single typed event from the connection manager. Exactly one
// consumer drains Events(); processing is sequential so downstream state
// needs no cross-component locking.
type Event struct {
	Kind    EventKind
	Frame   *emotion.Frame
	Warning string
	Status  Status
}
