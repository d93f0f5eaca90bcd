package model

import "time"

// Run is an archived simulation run.
type Run struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Config    RunConfig   `json:"config"`
	Summary   *RunSummary `json:"summary,omitempty"`
	JobCount  int         `json:"job_count"`
	CreatedAt time.Time   `json:"created_at"`

	// Workload is the YAML the run was executed from.
	Workload string `json:"workload,omitempty"`
	// Error is set when the run was cut short (time limit, cancellation).
	Error string `json:"error,omitempty"`

	// Processes and Events are only populated on detail reads.
	Processes []ProcessResult `json:"processes,omitempty"`
	Events    []TraceEvent    `json:"events,omitempty"`
}

// RunConfig records the simulation parameters a run was executed with.
type RunConfig struct {
	Capacity int   `json:"capacity"`
	Quantum  Tick  `json:"quantum"`
	MaxTicks Tick  `json:"max_ticks"`
	Seed     int64 `json:"seed,omitempty"`
}

// ProcessResult describes how one job fared during a run.
type ProcessResult struct {
	PID        PID         `json:"pid"`
	Name       string      `json:"name"`
	Type       ProcessType `json:"type"`
	Start      Tick        `json:"start"`
	Admitted   Tick        `json:"admitted"`
	End        Tick        `json:"end"`
	Duration   Tick        `json:"duration"`
	IOTime     Tick        `json:"io_time"`
	Turnaround Tick        `json:"turnaround"`
	Waiting    Tick        `json:"waiting"`
	Dispatches int         `json:"dispatches"`
}

// RunSummary aggregates the results of a run.
type RunSummary struct {
	Processes       int     `json:"processes"`
	Makespan        Tick    `json:"makespan"`
	BusyTicks       Tick    `json:"busy_ticks"`
	IdleTicks       Tick    `json:"idle_ticks"`
	Utilization     float64 `json:"utilization"`
	Throughput      float64 `json:"throughput"`
	AvgTurnaround   float64 `json:"avg_turnaround"`
	P50Turnaround   float64 `json:"p50_turnaround"`
	P90Turnaround   float64 `json:"p90_turnaround"`
	P99Turnaround   float64 `json:"p99_turnaround"`
	AvgWaiting      float64 `json:"avg_waiting"`
	MaxWaiting      float64 `json:"max_waiting"`
	StddevWaiting   float64 `json:"stddev_waiting"`
	ContextSwitches int     `json:"context_switches"`
}

// RunReport is the in-memory outcome of a simulation before archiving.
type RunReport struct {
	Config    RunConfig       `json:"config"`
	Processes []ProcessResult `json:"processes"`
	Summary   RunSummary      `json:"summary"`
	Events    []TraceEvent    `json:"events,omitempty"`
}
