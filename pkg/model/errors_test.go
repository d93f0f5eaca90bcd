package model

import (
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "run 'run_123' not found"}
	want := "NOT_FOUND: run 'run_123' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAPIError_ErrorWithDetails(t *testing.T) {
	err := NewValidationError("invalid workload",
		FieldError{Field: "jobs[0].duration", Message: "must be positive"})
	if got := err.Error(); !strings.Contains(got, "jobs[0].duration") {
		t.Errorf("Error() = %q, want it to name the first field", got)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("run", "run_abc")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "run 'run_abc' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "run 'run_abc' not found")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("invalid workload",
		FieldError{Field: "jobs[0].duration", Message: "must be positive"},
		FieldError{Field: "jobs[1].type", Message: "expected os or user"},
	)
	if err.Code != ErrValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidation)
	}
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{PID: 3, From: StatusEnded, To: StatusReady}
	want := "invalid process state transition: ended → ready (pid 3)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
