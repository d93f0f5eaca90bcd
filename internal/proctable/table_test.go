package proctable

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/batchsim/pkg/model"
)

func testTable(t *testing.T, capacity int) *Table {
	t.Helper()
	return New(capacity, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// admit allocates a pid and admits a process with the given duration.
func admit(t *testing.T, tbl *Table, duration model.Tick) model.PID {
	t.Helper()
	pid := tbl.Allocate()
	require.NotEqual(t, model.NoProcess, pid, "table unexpectedly full")
	require.NoError(t, tbl.Admit(model.PCB{PID: pid, Duration: duration, Type: model.ProcessTypeUser}))
	return pid
}

func TestAllocate_SequentialPIDs(t *testing.T) {
	tbl := testTable(t, 3)
	assert.Equal(t, model.PID(1), admit(t, tbl, 5))
	assert.Equal(t, model.PID(2), admit(t, tbl, 5))
	assert.Equal(t, model.PID(3), admit(t, tbl, 5))
}

func TestAllocate_FullTableReturnsSentinel(t *testing.T) {
	tbl := testTable(t, 4)
	for i := 0; i < 4; i++ {
		admit(t, tbl, 1)
	}
	assert.Equal(t, model.NoProcess, tbl.Allocate())
	assert.Equal(t, 4, tbl.Count())
}

func TestAllocate_ReusesReleasedPID(t *testing.T) {
	tbl := testTable(t, 5)
	for i := 0; i < 5; i++ {
		admit(t, tbl, 1)
	}
	require.True(t, tbl.Release(3))
	assert.Equal(t, model.PID(3), tbl.Allocate())
}

func TestAllocate_WrapsFromLastIssued(t *testing.T) {
	tbl := testTable(t, 3)
	admit(t, tbl, 1) // 1
	admit(t, tbl, 1) // 2
	require.True(t, tbl.Release(1))
	// Scanning continues after 2, so 3 comes before the freed 1.
	assert.Equal(t, model.PID(3), admit(t, tbl, 1))
	assert.Equal(t, model.PID(1), admit(t, tbl, 1))
}

func TestAllocate_PendingReservationBlocksSecondCall(t *testing.T) {
	tbl := testTable(t, 3)
	first := tbl.Allocate()
	require.Equal(t, model.PID(1), first)
	assert.Equal(t, model.NoProcess, tbl.Allocate(), "second allocate before admit must not hand out a slot")
	assert.Equal(t, first, tbl.Reserved())

	require.NoError(t, tbl.Admit(model.PCB{PID: first, Duration: 2}))
	assert.Equal(t, model.NoProcess, tbl.Reserved())
	assert.Equal(t, model.PID(2), tbl.Allocate())
}

func TestAdmit_Errors(t *testing.T) {
	tbl := testTable(t, 2)

	err := tbl.Admit(model.PCB{PID: 1, Duration: 3})
	assert.True(t, errors.Is(err, ErrNotReserved), "admit without allocate: %v", err)

	err = tbl.Admit(model.PCB{PID: model.NoProcess})
	assert.True(t, errors.Is(err, ErrInvalidPID))

	pid := tbl.Allocate()
	err = tbl.Admit(model.PCB{PID: pid, Duration: 3, UsedCPU: 4})
	assert.Error(t, err)
	assert.Equal(t, pid, tbl.Reserved(), "failed admit keeps the reservation")
}

func TestAdmit_SetsNewStatus(t *testing.T) {
	tbl := testTable(t, 2)
	pid := tbl.Allocate()
	require.NoError(t, tbl.Admit(model.PCB{PID: pid, Duration: 3, Status: model.StatusRunning}))

	p, ok := tbl.Get(pid)
	require.True(t, ok)
	assert.True(t, p.Valid)
	assert.Equal(t, model.StatusNew, p.Status)
	assert.Equal(t, model.ProcessTypeUser, p.Type)
}

func TestRelease(t *testing.T) {
	tbl := testTable(t, 2)
	assert.False(t, tbl.Release(model.NoProcess), "sentinel release must fail")
	assert.False(t, tbl.Release(99), "out-of-range release must fail")

	pid := admit(t, tbl, 4)
	require.True(t, tbl.Release(pid))
	once := tbl.slots[pid]

	require.True(t, tbl.Release(pid), "release is idempotent")
	assert.Equal(t, once, tbl.slots[pid])
	assert.Equal(t, model.EmptyPCB(), once)
	assert.False(t, tbl.Valid(pid))
}

func TestRelease_ClearsPendingReservation(t *testing.T) {
	tbl := testTable(t, 2)
	pid := tbl.Allocate()
	require.True(t, tbl.Release(pid))
	assert.Equal(t, model.NoProcess, tbl.Reserved())
	assert.NotEqual(t, model.NoProcess, tbl.Allocate())
}

func TestTransition(t *testing.T) {
	tbl := testTable(t, 2)
	pid := admit(t, tbl, 4)

	require.NoError(t, tbl.Transition(pid, model.StatusReady))
	require.NoError(t, tbl.Transition(pid, model.StatusRunning))

	err := tbl.Transition(pid, model.StatusNew)
	var te *model.InvalidTransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, model.StatusRunning, te.From)

	assert.Error(t, tbl.Transition(2, model.StatusReady), "invalid slot")
}

func TestAddUsedCPU_Clamps(t *testing.T) {
	tbl := testTable(t, 1)
	pid := admit(t, tbl, 5)

	used, ok := tbl.AddUsedCPU(pid, 3)
	require.True(t, ok)
	assert.Equal(t, model.Tick(3), used)

	used, _ = tbl.AddUsedCPU(pid, 10)
	assert.Equal(t, model.Tick(5), used)

	_, ok = tbl.AddUsedCPU(model.NoProcess, 1)
	assert.False(t, ok)
}

func TestLive(t *testing.T) {
	tbl := testTable(t, 3)
	admit(t, tbl, 1)
	p2 := admit(t, tbl, 2)
	admit(t, tbl, 3)
	tbl.Release(p2)

	live := tbl.Live()
	require.Len(t, live, 2)
	assert.Equal(t, model.PID(1), live[0].PID)
	assert.Equal(t, model.PID(3), live[1].PID)
}
