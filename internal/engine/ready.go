package engine

import "github.com/me/batchsim/pkg/model"

// ReadyQueue holds runnable processes in ascending order of remaining
// service time.
type ReadyQueue struct {
	c *core
}

// Insert marks pid ready and queues it under its current remaining time.
// It fails for pids that are not live, that already wait in a queue, or
// when called from inside a trace callback.
func (q *ReadyQueue) Insert(pid model.PID) bool {
	c := q.c
	p, ok := c.table.Get(pid)
	if !ok {
		c.logger.Debug("ready insert: no such process", "pid", pid)
		return false
	}
	if !c.enter("ready insert", pid) {
		return false
	}
	defer c.leave()
	if c.queued(pid) {
		c.logger.Debug("ready insert: already queued", "pid", pid)
		return false
	}

	remaining := p.Remaining()
	c.table.SetStatus(pid, model.StatusReady)
	pos := c.ready.Insert(pid, remaining)
	c.trace.Value(pid, "added the process to the readyList", "with the remaining time:", remaining)
	c.logger.Debug("ready insert", "pid", pid, "remaining", remaining, "position", pos)
	return true
}

// RemoveHead discards the head entry. It fails when the queue is empty.
func (q *ReadyQueue) RemoveHead() bool {
	c := q.c
	head, ok := c.ready.Head()
	if !ok {
		return false
	}
	if !c.enter("ready remove head", head.PID) {
		return false
	}
	defer c.leave()

	c.ready.PopHead()
	c.trace.Pid(head.PID, "removed the process out of readyList")
	c.logger.Debug("ready remove head", "pid", head.PID)
	return true
}

// Remove discards the entry for pid wherever it sits in the queue.
func (q *ReadyQueue) Remove(pid model.PID) bool {
	c := q.c
	if !c.ready.Contains(pid) {
		return false
	}
	if !c.enter("ready remove", pid) {
		return false
	}
	defer c.leave()

	c.ready.Remove(pid)
	c.trace.Pid(pid, "removed the process out of readyList")
	return true
}

// IsEmpty reports whether no process is ready.
func (q *ReadyQueue) IsEmpty() bool { return q.c.ready.IsEmpty() }

// Len returns the number of ready processes.
func (q *ReadyQueue) Len() int { return q.c.ready.Len() }

// Contains reports whether pid is waiting in the queue.
func (q *ReadyQueue) Contains(pid model.PID) bool { return q.c.ready.Contains(pid) }

// PeekHead returns the head entry without removing it.
func (q *ReadyQueue) PeekHead() (model.ReadyEntry, bool) {
	e, ok := q.c.ready.Head()
	if !ok {
		return model.ReadyEntry{}, false
	}
	return model.ReadyEntry{PID: e.PID, Remaining: e.Key}, true
}

// Entries returns the queue contents from head to tail.
func (q *ReadyQueue) Entries() []model.ReadyEntry {
	out := make([]model.ReadyEntry, 0, q.c.ready.Len())
	q.c.ready.Each(func(e queueEntry) bool {
		out = append(out, model.ReadyEntry{PID: e.PID, Remaining: e.Key})
		return true
	})
	return out
}
