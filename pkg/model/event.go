package model

import "fmt"

// EventReason is the cause attached to a scheduling event.
type EventReason int

const (
	ReasonNone EventReason = iota
	ReasonStarted
	ReasonCompleted
	ReasonIO
	ReasonQuantumOver
	ReasonUnblocked
)

var reasonNames = [...]string{
	ReasonNone:        "none",
	ReasonStarted:     "started",
	ReasonCompleted:   "completed",
	ReasonIO:          "io",
	ReasonQuantumOver: "quantumOver",
	ReasonUnblocked:   "unblocked",
}

// String returns the display text used in traces.
func (r EventReason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("EventReason(%d)", int(r))
	}
	return reasonNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r EventReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *EventReason) UnmarshalText(b []byte) error {
	reason, err := ParseEventReason(string(b))
	if err != nil {
		return err
	}
	*r = reason
	return nil
}

// ParseEventReason maps display text back to an EventReason.
func ParseEventReason(s string) (EventReason, error) {
	for i, name := range reasonNames {
		if name == s {
			return EventReason(i), nil
		}
	}
	return ReasonNone, fmt.Errorf("unknown event reason %q", s)
}

// TraceKind identifies which trace call produced an event.
type TraceKind string

const (
	KindGeneric      TraceKind = "generic"
	KindPid          TraceKind = "pid"
	KindValue        TraceKind = "value"
	KindEvent        TraceKind = "event"
	KindCompleteness TraceKind = "completeness"
	KindIOReady      TraceKind = "io_ready"
)

// TraceEvent is one recorded trace line in structured form.
type TraceEvent struct {
	Seq     int         `json:"seq"`
	Time    Tick        `json:"time"`
	Kind    TraceKind   `json:"kind"`
	PID     PID         `json:"pid,omitempty"`
	Reason  EventReason `json:"reason"`
	Message string      `json:"message"`
	// Detail carries the second message of a value trace.
	Detail string `json:"detail,omitempty"`
	// Value is the done/ready-at/remaining figure, depending on Kind.
	Value  uint64 `json:"value,omitempty"`
	Length uint64 `json:"length,omitempty"`
}
