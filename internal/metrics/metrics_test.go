package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/batchsim/pkg/model"
)

func TestCollector_SingleProcess(t *testing.T) {
	c := NewCollector()
	c.Admitted(1, model.Job{Name: "a", Start: 2, Duration: 5}, 2)
	c.Dispatched(1)
	c.Busy(2)
	c.Blocked(1, 3)
	c.Idle(3)
	c.Dispatched(1)
	c.Busy(3)
	c.Finished(1, 12)

	res := c.Results()
	require.Len(t, res, 1)
	r := res[0]
	assert.Equal(t, model.Tick(10), r.Turnaround)
	assert.Equal(t, model.Tick(3), r.IOTime)
	assert.Equal(t, model.Tick(2), r.Waiting, "turnaround minus service minus io")
	assert.Equal(t, 2, r.Dispatches)

	s := c.Finalize(12)
	assert.Equal(t, 1, s.Processes)
	assert.Equal(t, 0, s.ContextSwitches, "redispatching the same process is not a switch")
	assert.Equal(t, model.Tick(5), s.BusyTicks)
	assert.Equal(t, model.Tick(3), s.IdleTicks)
	assert.InDelta(t, 5.0/12.0, s.Utilization, 1e-9)
	assert.Equal(t, 10.0, s.AvgTurnaround)
}

func TestCollector_PIDReuse(t *testing.T) {
	c := NewCollector()
	c.Admitted(1, model.Job{Name: "first", Duration: 1}, 0)
	c.Finished(1, 1)
	c.Admitted(1, model.Job{Name: "second", Start: 1, Duration: 1}, 1)
	c.Finished(1, 2)

	res := c.Results()
	require.Len(t, res, 2)
	assert.Equal(t, "first", res[0].Name)
	assert.Equal(t, "second", res[1].Name)
}

func TestCollector_UnknownPIDIgnored(t *testing.T) {
	c := NewCollector()
	c.Dispatched(9)
	c.Blocked(9, 4)
	c.Finished(9, 10)
	assert.Empty(t, c.Results())
}

func TestFinalize_Percentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 10; i++ {
		pid := model.PID(i)
		c.Admitted(pid, model.Job{Duration: 1}, 0)
		c.Dispatched(pid)
		c.Finished(pid, model.Tick(i))
	}

	s := c.Finalize(10)
	assert.Equal(t, 5.5, s.AvgTurnaround)
	assert.Equal(t, 5.0, s.P50Turnaround)
	assert.Equal(t, 9.0, s.P90Turnaround)
	assert.Equal(t, 10.0, s.P99Turnaround)
	assert.Equal(t, 9, s.ContextSwitches)
	assert.Equal(t, 9.0, s.MaxWaiting)
	assert.InDelta(t, 1.0, s.Throughput, 1e-9)
}

func TestFinalize_Empty(t *testing.T) {
	s := NewCollector().Finalize(0)
	assert.Equal(t, model.RunSummary{}, s)
}
