package trace

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/me/batchsim/internal/clock"
	"github.com/me/batchsim/pkg/model"
)

// NewWriter returns an Emitter printing the classic text trace to w.
// Write errors are dropped.
func NewWriter(w io.Writer, clk clock.Reader) *Observer {
	return NewObserver(clk, func(ev model.TraceEvent) {
		fmt.Fprintln(w, Format(ev))
	})
}

// NewSlog returns an Emitter mirroring every event into logger as a
// structured record at debug level (info for event-with-reason calls).
func NewSlog(logger *slog.Logger, clk clock.Reader) *Observer {
	logger = logger.With("component", "trace")
	return NewObserver(clk, func(ev model.TraceEvent) {
		attrs := []any{"time", uint64(ev.Time), "kind", string(ev.Kind)}
		if ev.PID != model.NoProcess {
			attrs = append(attrs, "pid", uint(ev.PID))
		}
		switch ev.Kind {
		case model.KindEvent:
			attrs = append(attrs, "reason", ev.Reason.String())
			logger.Info(ev.Message, attrs...)
			return
		case model.KindValue:
			attrs = append(attrs, "detail", ev.Detail, "value", ev.Value)
		case model.KindCompleteness:
			attrs = append(attrs, "done", ev.Value, "length", ev.Length)
		case model.KindIOReady:
			attrs = append(attrs, "ready_at", ev.Value)
			logger.Info("io completed", attrs...)
			return
		}
		logger.Debug(ev.Message, attrs...)
	})
}

// Recorder keeps every event in memory.
type Recorder struct {
	*Observer
	mu     sync.Mutex
	events []model.TraceEvent
}

// NewRecorder creates an empty Recorder.
func NewRecorder(clk clock.Reader) *Recorder {
	r := &Recorder{}
	r.Observer = NewObserver(clk, r.record)
	return r
}

func (r *Recorder) record(ev model.TraceEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []model.TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events of the given kind.
func (r *Recorder) Filter(kind model.TraceKind) []model.TraceEvent {
	var out []model.TraceEvent
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Multi fans each call out to all emitters in order.
type Multi []Emitter

func (m Multi) Generic(msg string) {
	for _, e := range m {
		e.Generic(msg)
	}
}

func (m Multi) Pid(pid model.PID, msg string) {
	for _, e := range m {
		e.Pid(pid, msg)
	}
}

func (m Multi) Value(pid model.PID, msg1, msg2 string, value model.Tick) {
	for _, e := range m {
		e.Value(pid, msg1, msg2, value)
	}
}

func (m Multi) PidEvent(pid model.PID, reason model.EventReason, msg string) {
	for _, e := range m {
		e.PidEvent(pid, reason, msg)
	}
}

func (m Multi) Completeness(pid model.PID, done, length model.Tick, msg string) {
	for _, e := range m {
		e.Completeness(pid, done, length, msg)
	}
}

func (m Multi) IOReady(pid model.PID, readyAt model.Tick) {
	for _, e := range m {
		e.IOReady(pid, readyAt)
	}
}

// Discard is an Emitter that drops everything.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Generic(string)                                         {}
func (discard) Pid(model.PID, string)                                  {}
func (discard) Value(model.PID, string, string, model.Tick)            {}
func (discard) PidEvent(model.PID, model.EventReason, string)          {}
func (discard) Completeness(model.PID, model.Tick, model.Tick, string) {}
func (discard) IOReady(model.PID, model.Tick)                          {}
