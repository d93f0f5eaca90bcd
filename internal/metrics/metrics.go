// Package metrics accumulates per-process accounting during a run and
// reduces it to a RunSummary.
package metrics

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/me/batchsim/pkg/model"
)

// Collector is fed by the runner as processes move through the engine.
// Pids are recycled, so entries are keyed by pid only while a process is
// live and moved to the finished list on completion.
type Collector struct {
	live     map[model.PID]*model.ProcessResult
	finished []model.ProcessResult

	busy     model.Tick
	idle     model.Tick
	switches int
	lastPID  model.PID
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{live: make(map[model.PID]*model.ProcessResult)}
}

// Admitted records the admission of job under pid at time now.
func (c *Collector) Admitted(pid model.PID, job model.Job, now model.Tick) {
	c.live[pid] = &model.ProcessResult{
		PID:      pid,
		Name:     job.Name,
		Type:     job.Type,
		Start:    job.Start,
		Admitted: now,
		Duration: job.Duration,
	}
}

// Dispatched counts a dispatch of pid. A dispatch of a different process
// than the previous one counts as a context switch.
func (c *Collector) Dispatched(pid model.PID) {
	if r, ok := c.live[pid]; ok {
		r.Dispatches++
	}
	if c.lastPID != model.NoProcess && c.lastPID != pid {
		c.switches++
	}
	c.lastPID = pid
}

// Blocked adds an I/O wait of d ticks to pid.
func (c *Collector) Blocked(pid model.PID, d model.Tick) {
	if r, ok := c.live[pid]; ok {
		r.IOTime += d
	}
}

// Busy adds n ticks of CPU time.
func (c *Collector) Busy(n model.Tick) { c.busy += n }

// Idle adds n ticks without a running process.
func (c *Collector) Idle(n model.Tick) { c.idle += n }

// Finished closes the record of pid at time now.
func (c *Collector) Finished(pid model.PID, now model.Tick) {
	r, ok := c.live[pid]
	if !ok {
		return
	}
	delete(c.live, pid)

	r.End = now
	r.Turnaround = now - r.Start
	if spent := r.Duration + r.IOTime; r.Turnaround > spent {
		r.Waiting = r.Turnaround - spent
	}
	c.finished = append(c.finished, *r)
}

// Results returns the finished processes in completion order.
func (c *Collector) Results() []model.ProcessResult {
	out := make([]model.ProcessResult, len(c.finished))
	copy(out, c.finished)
	sort.SliceStable(out, func(i, j int) bool { return out[i].End < out[j].End })
	return out
}

// Finalize summarizes the run ending at makespan.
func (c *Collector) Finalize(makespan model.Tick) model.RunSummary {
	s := model.RunSummary{
		Processes:       len(c.finished),
		Makespan:        makespan,
		BusyTicks:       c.busy,
		IdleTicks:       c.idle,
		ContextSwitches: c.switches,
	}
	if makespan > 0 {
		s.Utilization = float64(c.busy) / float64(makespan)
		s.Throughput = float64(len(c.finished)) / float64(makespan)
	}
	if len(c.finished) == 0 {
		return s
	}

	turnaround := make(stats.Float64Data, 0, len(c.finished))
	waiting := make(stats.Float64Data, 0, len(c.finished))
	for _, r := range c.finished {
		turnaround = append(turnaround, float64(r.Turnaround))
		waiting = append(waiting, float64(r.Waiting))
	}

	// The inputs are non-empty and the percents in range, so errors cannot
	// occur here.
	s.AvgTurnaround, _ = stats.Mean(turnaround)
	s.P50Turnaround, _ = stats.PercentileNearestRank(turnaround, 50)
	s.P90Turnaround, _ = stats.PercentileNearestRank(turnaround, 90)
	s.P99Turnaround, _ = stats.PercentileNearestRank(turnaround, 99)
	s.AvgWaiting, _ = stats.Mean(waiting)
	s.MaxWaiting, _ = stats.Max(waiting)
	s.StddevWaiting, _ = stats.StandardDeviation(waiting)

	s.AvgTurnaround, _ = stats.Round(s.AvgTurnaround, 3)
	s.AvgWaiting, _ = stats.Round(s.AvgWaiting, 3)
	s.StddevWaiting, _ = stats.Round(s.StddevWaiting, 3)
	return s
}
