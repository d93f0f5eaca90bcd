// Package proctable implements the fixed-capacity process table.
//
// The pid of a process is its index into the table. Slot 0 is never used so
// that model.NoProcess can serve as the "no process" sentinel.
package proctable

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/batchsim/pkg/model"
)

var (
	// ErrNotReserved is returned by Admit when the pid was not handed out by
	// the preceding Allocate call.
	ErrNotReserved = errors.New("pid was not reserved by Allocate")
	// ErrInvalidPID is returned for the sentinel or out-of-range pids.
	ErrInvalidPID = errors.New("invalid pid")
)

// Table is the process table. It is not safe for concurrent use; each
// simulation owns its own table.
type Table struct {
	slots    []model.PCB // index 0 unused
	last     model.PID
	reserved model.PID
	logger   *slog.Logger
}

// New creates a table able to hold capacity concurrently valid processes.
func New(capacity int, logger *slog.Logger) *Table {
	if capacity < 1 {
		capacity = 1
	}
	t := &Table{
		slots:  make([]model.PCB, capacity+1),
		logger: logger.With("component", "proctable"),
	}
	for i := range t.slots {
		t.slots[i] = model.EmptyPCB()
	}
	return t
}

// Capacity returns the maximum number of concurrently valid processes.
func (t *Table) Capacity() int {
	return len(t.slots) - 1
}

// Allocate returns the next free pid, scanning forward from the last issued
// one and wrapping at capacity. It returns model.NoProcess when the table is
// full or when the result of a previous Allocate has not been consumed yet.
// The returned slot stays reserved until Admit or Release.
func (t *Table) Allocate() model.PID {
	if t.reserved != model.NoProcess {
		t.logger.Warn("allocate while a reservation is pending", "reserved", t.reserved)
		return model.NoProcess
	}
	n := model.PID(t.Capacity())
	pid := t.last
	for i := model.PID(0); i < n; i++ {
		pid++
		if pid > n {
			pid = 1
		}
		if !t.slots[pid].Valid {
			t.last = pid
			t.reserved = pid
			t.logger.Debug("pid allocated", "pid", pid)
			return pid
		}
	}
	t.logger.Debug("process table full", "capacity", n)
	return model.NoProcess
}

// Reserved returns the pid handed out by Allocate and not yet consumed.
func (t *Table) Reserved() model.PID {
	return t.reserved
}

// Admit stores pcb in the slot reserved for pcb.PID. The record becomes valid
// with status new.
func (t *Table) Admit(pcb model.PCB) error {
	if !t.inRange(pcb.PID) {
		return fmt.Errorf("admit pid %d: %w", pcb.PID, ErrInvalidPID)
	}
	if pcb.PID != t.reserved {
		return fmt.Errorf("admit pid %d: %w", pcb.PID, ErrNotReserved)
	}
	if pcb.UsedCPU > pcb.Duration {
		return fmt.Errorf("admit pid %d: used cpu %d exceeds duration %d", pcb.PID, pcb.UsedCPU, pcb.Duration)
	}
	if pcb.Type == "" {
		pcb.Type = model.ProcessTypeUser
	}
	pcb.Valid = true
	pcb.Status = model.StatusNew
	t.slots[pcb.PID] = pcb
	t.reserved = model.NoProcess
	t.logger.Debug("process admitted", "pid", pcb.PID, "duration", pcb.Duration, "start", pcb.Start)
	return nil
}

// Release voids the record of pid so the identifier can be reused. It fails
// only for the sentinel (or an out-of-range pid) and is idempotent otherwise.
func (t *Table) Release(pid model.PID) bool {
	if !t.inRange(pid) {
		return false
	}
	t.slots[pid] = model.EmptyPCB()
	if t.reserved == pid {
		t.reserved = model.NoProcess
	}
	t.logger.Debug("process released", "pid", pid)
	return true
}

// Get returns a copy of the record for pid. ok is false for invalid slots.
func (t *Table) Get(pid model.PID) (model.PCB, bool) {
	if !t.inRange(pid) || !t.slots[pid].Valid {
		return model.PCB{}, false
	}
	return t.slots[pid], true
}

// Valid reports whether pid names a live process.
func (t *Table) Valid(pid model.PID) bool {
	return t.inRange(pid) && t.slots[pid].Valid
}

// SetStatus overwrites the status of a live process.
func (t *Table) SetStatus(pid model.PID, status model.ProcessStatus) bool {
	if !t.Valid(pid) {
		return false
	}
	t.slots[pid].Status = status
	return true
}

// Transition moves pid to next if the move is allowed from its current status.
func (t *Table) Transition(pid model.PID, next model.ProcessStatus) error {
	if !t.Valid(pid) {
		return fmt.Errorf("transition pid %d: %w", pid, ErrInvalidPID)
	}
	cur := t.slots[pid].Status
	if !cur.CanTransitionTo(next) {
		return &model.InvalidTransitionError{PID: pid, From: cur, To: next}
	}
	t.slots[pid].Status = next
	return nil
}

// AddUsedCPU credits n ticks of service to pid, clamped to its duration, and
// returns the new total.
func (t *Table) AddUsedCPU(pid model.PID, n model.Tick) (model.Tick, bool) {
	if !t.Valid(pid) {
		return 0, false
	}
	p := &t.slots[pid]
	p.UsedCPU += n
	if p.UsedCPU > p.Duration {
		p.UsedCPU = p.Duration
	}
	return p.UsedCPU, true
}

// Live returns copies of all valid records in pid order.
func (t *Table) Live() []model.PCB {
	var out []model.PCB
	for _, p := range t.slots[1:] {
		if p.Valid {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of valid records.
func (t *Table) Count() int {
	n := 0
	for _, p := range t.slots[1:] {
		if p.Valid {
			n++
		}
	}
	return n
}

func (t *Table) inRange(pid model.PID) bool {
	return pid != model.NoProcess && int(pid) < len(t.slots)
}
