package engine

import (
	"github.com/me/batchsim/internal/queue"
	"github.com/me/batchsim/pkg/model"
)

type queueEntry = queue.Entry[model.Tick]

// BlockedQueue holds processes waiting for simulated I/O, earliest ready-at
// time first.
type BlockedQueue struct {
	c *core
}

// Insert marks pid blocked until now+d. Entries with the same ready-at time
// keep their insertion order. A ready-at time past the end of the clock's
// range is rejected.
func (q *BlockedQueue) Insert(pid model.PID, d model.Tick) bool {
	c := q.c
	if !c.table.Valid(pid) {
		c.logger.Debug("blocked insert: no such process", "pid", pid)
		return false
	}
	now := c.clock.Now()
	if d > model.MaxTick-now {
		c.logger.Debug("blocked insert: ready-at overflows", "pid", pid, "now", now, "duration", d)
		return false
	}
	if !c.enter("blocked insert", pid) {
		return false
	}
	defer c.leave()
	if c.queued(pid) {
		c.logger.Debug("blocked insert: already queued", "pid", pid)
		return false
	}

	readyAt := now + d
	c.table.SetStatus(pid, model.StatusBlocked)
	pos := c.blocked.Insert(pid, readyAt)
	c.trace.Value(pid, "added the process to the blockedList", "and will blocked until:", readyAt)
	c.logger.Debug("blocked insert", "pid", pid, "ready_at", readyAt, "position", pos)
	return true
}

// PopIfDue removes and returns the head if its ready-at time is not after
// now. model.NoProcess means nothing is due yet. The caller is responsible
// for moving the process on to the ready queue.
func (q *BlockedQueue) PopIfDue(now model.Tick) model.PID {
	c := q.c
	head, ok := c.blocked.Head()
	if !ok || head.Key > now {
		return model.NoProcess
	}
	if !c.enter("blocked pop", head.PID) {
		return model.NoProcess
	}
	defer c.leave()

	c.blocked.PopHead()
	c.trace.Pid(head.PID, "removed the process out of blockedList")
	c.logger.Debug("blocked pop", "pid", head.PID, "ready_at", head.Key, "now", now)
	return head.PID
}

// RemoveHead discards the head entry. It fails when the queue is empty.
func (q *BlockedQueue) RemoveHead() bool {
	c := q.c
	head, ok := c.blocked.Head()
	if !ok {
		return false
	}
	if !c.enter("blocked remove head", head.PID) {
		return false
	}
	defer c.leave()

	c.blocked.PopHead()
	c.trace.Pid(head.PID, "removed the process out of blockedList")
	return true
}

// Remove discards the entry for pid wherever it sits in the queue.
func (q *BlockedQueue) Remove(pid model.PID) bool {
	c := q.c
	if !c.blocked.Contains(pid) {
		return false
	}
	if !c.enter("blocked remove", pid) {
		return false
	}
	defer c.leave()

	c.blocked.Remove(pid)
	c.trace.Pid(pid, "removed the process out of blockedList")
	return true
}

// IsEmpty reports whether no process is blocked.
func (q *BlockedQueue) IsEmpty() bool { return q.c.blocked.IsEmpty() }

// Len returns the number of blocked processes.
func (q *BlockedQueue) Len() int { return q.c.blocked.Len() }

// Contains reports whether pid is waiting in the queue.
func (q *BlockedQueue) Contains(pid model.PID) bool { return q.c.blocked.Contains(pid) }

// PeekHead returns the head entry without removing it.
func (q *BlockedQueue) PeekHead() (model.BlockedEntry, bool) {
	e, ok := q.c.blocked.Head()
	if !ok {
		return model.BlockedEntry{}, false
	}
	return model.BlockedEntry{PID: e.PID, ReadyAt: e.Key}, true
}

// Entries returns the queue contents from head to tail.
func (q *BlockedQueue) Entries() []model.BlockedEntry {
	out := make([]model.BlockedEntry, 0, q.c.blocked.Len())
	q.c.blocked.Each(func(e queueEntry) bool {
		out = append(out, model.BlockedEntry{PID: e.PID, ReadyAt: e.Key})
		return true
	})
	return out
}
