package model

// ProcessStatus represents the lifecycle state of a process control record.
type ProcessStatus string

const (
	StatusNew     ProcessStatus = "new"
	StatusReady   ProcessStatus = "ready"
	StatusRunning ProcessStatus = "running"
	StatusBlocked ProcessStatus = "blocked"
	StatusEnded   ProcessStatus = "ended"
)

// String returns the string representation of the process status.
func (s ProcessStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the process has ended.
func (s ProcessStatus) IsTerminal() bool {
	return s == StatusEnded
}

// IsWaiting returns true if the process sits in one of the waiting queues.
func (s ProcessStatus) IsWaiting() bool {
	switch s {
	case StatusReady, StatusBlocked:
		return true
	}
	return false
}

// ValidStatusTransitions defines the allowed process state transitions.
var ValidStatusTransitions = map[ProcessStatus][]ProcessStatus{
	StatusNew:     {StatusReady},
	StatusReady:   {StatusRunning},
	StatusRunning: {StatusReady, StatusBlocked, StatusEnded},
	StatusBlocked: {StatusReady},
}

// CanTransitionTo returns true if moving from the current status to next is valid.
func (s ProcessStatus) CanTransitionTo(next ProcessStatus) bool {
	for _, allowed := range ValidStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseProcessStatus converts a stored status string back to a ProcessStatus.
// Unknown values map to StatusEnded.
func ParseProcessStatus(s string) ProcessStatus {
	switch ProcessStatus(s) {
	case StatusNew, StatusReady, StatusRunning, StatusBlocked, StatusEnded:
		return ProcessStatus(s)
	}
	return StatusEnded
}

// ProcessType classifies a process. It carries no scheduling weight.
type ProcessType string

const (
	ProcessTypeOS   ProcessType = "os"
	ProcessTypeUser ProcessType = "user"
)

// Valid reports whether t is a known process type.
func (t ProcessType) Valid() bool {
	return t == ProcessTypeOS || t == ProcessTypeUser
}
