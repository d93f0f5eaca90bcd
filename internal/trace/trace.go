// Package trace carries the simulator's event trace: every admission, block,
// unblock, dispatch and completion is reported through an Emitter.
//
// Emitters are fire-and-forget. None of their methods return errors, and a
// failing sink never fails the engine operation that produced the event.
package trace

import (
	"fmt"

	"github.com/me/batchsim/internal/clock"
	"github.com/me/batchsim/pkg/model"
)

// Emitter receives trace calls from the engine and the runner.
type Emitter interface {
	// Generic emits a plain message.
	Generic(msg string)
	// Pid emits a message about one process.
	Pid(pid model.PID, msg string)
	// Value emits a two-part message followed by a figure, e.g. the
	// remaining time of a process entering the ready queue.
	Value(pid model.PID, msg1, msg2 string, value model.Tick)
	// PidEvent emits a scheduling event with its reason.
	PidEvent(pid model.PID, reason model.EventReason, msg string)
	// Completeness emits the progress of a process.
	Completeness(pid model.PID, done, length model.Tick, msg string)
	// IOReady emits the end of an I/O wait.
	IOReady(pid model.PID, readyAt model.Tick)
}

// Observer turns trace calls into model.TraceEvent values stamped with the
// simulated time and hands them to fn.
type Observer struct {
	clock clock.Reader
	seq   int
	fn    func(model.TraceEvent)
}

// NewObserver creates an Observer reading time from clk.
func NewObserver(clk clock.Reader, fn func(model.TraceEvent)) *Observer {
	return &Observer{clock: clk, fn: fn}
}

func (o *Observer) emit(ev model.TraceEvent) {
	o.seq++
	ev.Seq = o.seq
	if o.clock != nil {
		ev.Time = o.clock.Now()
	}
	if o.fn != nil {
		o.fn(ev)
	}
}

func (o *Observer) Generic(msg string) {
	o.emit(model.TraceEvent{Kind: model.KindGeneric, Message: msg})
}

func (o *Observer) Pid(pid model.PID, msg string) {
	o.emit(model.TraceEvent{Kind: model.KindPid, PID: pid, Message: msg})
}

func (o *Observer) Value(pid model.PID, msg1, msg2 string, value model.Tick) {
	o.emit(model.TraceEvent{Kind: model.KindValue, PID: pid, Message: msg1, Detail: msg2, Value: uint64(value)})
}

func (o *Observer) PidEvent(pid model.PID, reason model.EventReason, msg string) {
	o.emit(model.TraceEvent{Kind: model.KindEvent, PID: pid, Reason: reason, Message: msg})
}

func (o *Observer) Completeness(pid model.PID, done, length model.Tick, msg string) {
	o.emit(model.TraceEvent{Kind: model.KindCompleteness, PID: pid, Message: msg, Value: uint64(done), Length: uint64(length)})
}

func (o *Observer) IOReady(pid model.PID, readyAt model.Tick) {
	o.emit(model.TraceEvent{Kind: model.KindIOReady, PID: pid, Reason: model.ReasonUnblocked, Value: uint64(readyAt)})
}

// Format renders ev as one line of the classic simulator trace.
func Format(ev model.TraceEvent) string {
	switch ev.Kind {
	case model.KindPid:
		return fmt.Sprintf("%6d : PID %3d : %s", ev.Time, ev.PID, ev.Message)
	case model.KindValue:
		return fmt.Sprintf("%6d : PID %3d : %s %s %d", ev.Time, ev.PID, ev.Message, ev.Detail, ev.Value)
	case model.KindEvent:
		return fmt.Sprintf("%6d : PID %3d : Event: %s | %s", ev.Time, ev.PID, ev.Reason, ev.Message)
	case model.KindCompleteness:
		return fmt.Sprintf("%6d : PID %3d : completeness: %d/%d | %s", ev.Time, ev.PID, ev.Value, ev.Length, ev.Message)
	case model.KindIOReady:
		return fmt.Sprintf("%6d : PID %3d : IO completed at %d , process unblocked and switched to ready state", ev.Time, ev.PID, ev.Value)
	default:
		return fmt.Sprintf("%6d : %s", ev.Time, ev.Message)
	}
}
