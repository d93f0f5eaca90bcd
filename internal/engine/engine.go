// Package engine implements the process-state engine: the ready and blocked
// queues over a process table, and the dispatch decision between them.
//
// An Engine is owned by exactly one simulation run. It is not safe for
// concurrent use, but independent engines share nothing and may run side by
// side.
package engine

import (
	"log/slog"

	"github.com/me/batchsim/internal/clock"
	"github.com/me/batchsim/internal/proctable"
	"github.com/me/batchsim/internal/queue"
	"github.com/me/batchsim/internal/trace"
	"github.com/me/batchsim/pkg/model"
)

// core is the state shared by both queues.
type core struct {
	clock  clock.Reader
	table  *proctable.Table
	trace  trace.Emitter
	logger *slog.Logger

	// busy is set while a mutation (and the trace calls it makes) is in
	// progress. Mutations attempted while busy are rejected.
	busy bool

	ready   queue.List[model.Tick]
	blocked queue.List[model.Tick]
}

func (c *core) enter(op string, pid model.PID) bool {
	if c.busy {
		c.logger.Warn("reentrant queue mutation rejected", "op", op, "pid", pid)
		return false
	}
	c.busy = true
	return true
}

func (c *core) leave() {
	c.busy = false
}

// queued reports whether pid waits in either queue. Entries left behind by
// a slot released straight through the table no longer match the slot's
// status; they are dropped here so the pid can be queued again.
func (c *core) queued(pid model.PID) bool {
	p, live := c.table.Get(pid)
	if c.ready.Contains(pid) {
		if live && p.Status == model.StatusReady {
			return true
		}
		c.ready.Remove(pid)
		c.logger.Warn("dropped stale ready entry", "pid", pid)
	}
	if c.blocked.Contains(pid) {
		if live && p.Status == model.StatusBlocked {
			return true
		}
		c.blocked.Remove(pid)
		c.logger.Warn("dropped stale blocked entry", "pid", pid)
	}
	return false
}

// stale reports whether a queue entry for pid outlived its table slot.
func (c *core) stale(pid model.PID, want model.ProcessStatus) bool {
	p, ok := c.table.Get(pid)
	return !ok || p.Status != want
}

// Engine ties a process table to its ready and blocked queues.
type Engine struct {
	core    *core
	ready   *ReadyQueue
	blocked *BlockedQueue
}

// New creates an engine over table. Time is read from clk and every queue
// mutation is reported to em; a nil emitter discards the trace.
func New(clk clock.Reader, table *proctable.Table, em trace.Emitter, logger *slog.Logger) *Engine {
	if em == nil {
		em = trace.Discard
	}
	c := &core{
		clock:  clk,
		table:  table,
		trace:  em,
		logger: logger.With("component", "engine"),
	}
	return &Engine{
		core:    c,
		ready:   &ReadyQueue{c: c},
		blocked: &BlockedQueue{c: c},
	}
}

// Table returns the process table the engine operates on.
func (e *Engine) Table() *proctable.Table { return e.core.table }

// Ready returns the ready queue.
func (e *Engine) Ready() *ReadyQueue { return e.ready }

// Blocked returns the blocked queue.
func (e *Engine) Blocked() *BlockedQueue { return e.blocked }

// Now returns the engine's current simulated time.
func (e *Engine) Now() model.Tick { return e.core.clock.Now() }

// Unblock moves the head of the blocked queue to the ready queue if it is due
// at the current time. It returns false when nothing was moved. Heads whose
// process was released while blocked are discarded on the way.
func (e *Engine) Unblock() bool {
	c := e.core
	head, ok := e.blocked.PeekHead()
	for ok && c.stale(head.PID, model.StatusBlocked) {
		if !e.blocked.RemoveHead() {
			return false
		}
		c.logger.Warn("dropped stale blocked entry", "pid", head.PID)
		head, ok = e.blocked.PeekHead()
	}
	if !ok || head.ReadyAt > c.clock.Now() {
		return false
	}

	if !c.enter("unblock", head.PID) {
		return false
	}
	c.trace.IOReady(head.PID, c.clock.Now())
	c.leave()

	pid := e.blocked.PopIfDue(c.clock.Now())
	if pid == model.NoProcess {
		return false
	}
	return e.ready.Insert(pid)
}

// Dispatch selects the next process to run. The returned process is marked
// running; model.NoProcess means the CPU stays idle. Entries whose process
// was released while queued are skipped.
func (e *Engine) Dispatch() model.PID {
	c := e.core
	pid := Schedule(e.ready)
	for pid != model.NoProcess && c.stale(pid, model.StatusReady) {
		c.logger.Warn("dropped stale ready entry", "pid", pid)
		pid = Schedule(e.ready)
	}
	if pid == model.NoProcess {
		return model.NoProcess
	}
	if err := c.table.Transition(pid, model.StatusRunning); err != nil {
		c.logger.Error("dispatch", "pid", pid, "error", err)
		return model.NoProcess
	}

	if c.enter("dispatch", pid) {
		c.trace.PidEvent(pid, model.ReasonStarted, "process dispatched and switched to running state")
		c.leave()
	}
	c.logger.Debug("dispatched", "pid", pid)
	return pid
}

// Kill removes pid from whichever queue holds it and releases its table
// slot. It returns false for pids that are not live.
func (e *Engine) Kill(pid model.PID) bool {
	c := e.core
	if !c.table.Valid(pid) {
		return false
	}
	if !c.enter("kill", pid) {
		return false
	}
	defer c.leave()

	if _, ok := c.ready.Remove(pid); ok {
		c.trace.Pid(pid, "removed the process out of readyList")
	} else if _, ok := c.blocked.Remove(pid); ok {
		c.trace.Pid(pid, "removed the process out of blockedList")
	}
	c.trace.PidEvent(pid, model.ReasonNone, "process killed")
	c.table.Release(pid)
	c.logger.Debug("killed", "pid", pid)
	return true
}

// Idle reports whether both queues are empty.
func (e *Engine) Idle() bool {
	return e.core.ready.IsEmpty() && e.core.blocked.IsEmpty()
}
