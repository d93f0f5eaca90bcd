// Package scheduler runs a workload through the process-state engine on a
// simulated clock.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/me/batchsim/internal/clock"
	"github.com/me/batchsim/internal/config"
	"github.com/me/batchsim/internal/engine"
	"github.com/me/batchsim/internal/metrics"
	"github.com/me/batchsim/internal/proctable"
	"github.com/me/batchsim/internal/trace"
	"github.com/me/batchsim/internal/workload"
	"github.com/me/batchsim/pkg/model"
)

var (
	// ErrMaxTicks is returned when a run passes its configured time limit.
	ErrMaxTicks = errors.New("simulation exceeded max ticks")
	// ErrStalled is returned when live processes remain but no future event
	// can make progress.
	ErrStalled = errors.New("simulation stalled")
)

// Options configures a Loop.
type Options struct {
	Config config.SimConfig
	// Clock is the simulated clock to drive. Pass the clock used to build
	// Trace so its lines carry the right times. Nil creates a fresh clock.
	Clock *clock.Sim
	// Trace receives the event trace in addition to the loop's own recorder.
	Trace trace.Emitter
}

type proc struct {
	job    model.Job
	nextIO int // index of the next I/O burst in job.IO
}

// Loop implements the Scheduler interface for one workload.
type Loop struct {
	config   config.SimConfig
	clock    *clock.Sim
	engine   *engine.Engine
	trace    trace.Emitter
	recorder *trace.Recorder
	metrics  *metrics.Collector
	logger   *slog.Logger

	pending  []model.Job // sorted by start, not yet admitted
	procs    map[model.PID]*proc
	finished bool

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewLoop prepares a simulation of w. Non-zero values in the workload's own
// config block override opts.Config.
func NewLoop(w *workload.Workload, opts Options, logger *slog.Logger) (*Loop, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	cfg := opts.Config.Merge(w.Config)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.New(0)
	}
	rec := trace.NewRecorder(clk)
	em := trace.Emitter(rec)
	if opts.Trace != nil {
		em = trace.Multi{rec, opts.Trace}
	}

	table := proctable.New(cfg.Capacity, logger)
	return &Loop{
		config:   cfg,
		clock:    clk,
		engine:   engine.New(clk, table, em, logger),
		trace:    em,
		recorder: rec,
		metrics:  metrics.NewCollector(),
		logger:   logger.With("component", "scheduler"),
		pending:  w.Sorted(),
		procs:    make(map[model.PID]*proc),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Engine exposes the underlying engine, mainly for tests.
func (l *Loop) Engine() *engine.Engine { return l.engine }

// Now returns the current simulated time.
func (l *Loop) Now() model.Tick { return l.clock.Now() }

// Done reports whether the simulation has ended.
func (l *Loop) Done() bool { return l.finished }

// Run executes the whole simulation and returns its report. The report is
// returned even when the run was cut short.
func (l *Loop) Run(ctx context.Context) (*model.RunReport, error) {
	err := l.Start(ctx)
	return l.Report(), err
}

// Start runs ticks until the simulation ends. Blocks until ctx is cancelled
// or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("scheduler already started")
	}
	defer close(l.doneCh)

	l.logger.Info("simulation started",
		"jobs", len(l.pending),
		"capacity", l.config.Capacity,
		"quantum", l.config.Quantum,
	)
	l.trace.Generic(fmt.Sprintf("simulation started with %d jobs", len(l.pending)))

	for !l.finished {
		select {
		case <-ctx.Done():
			l.logger.Info("simulation stopping (context cancelled)")
			l.abort("simulation cancelled")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("simulation stopping (stop called)")
			l.abort("simulation stopped")
			return nil
		default:
		}
		if err := l.Tick(ctx); err != nil {
			l.logger.Error("tick error", "time", l.clock.Now(), "error", err)
			return err
		}
	}

	l.logger.Info("simulation finished", "makespan", l.clock.Now())
	return nil
}

// Stop aborts the simulation and waits for Start to return. It is a no-op
// if Start was never called.
func (l *Loop) Stop() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if l.started.Load() {
		<-l.doneCh
	}
	return nil
}

// Tick runs one scheduling iteration: it admits arrivals, moves due I/O
// completions to the ready queue, dispatches and runs one slice, then
// requeues or finishes the process that ran. With nothing to run it jumps
// the clock to the next event instead.
func (l *Loop) Tick(ctx context.Context) error {
	if l.finished {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Phase 1: admit jobs that have arrived.
	if err := l.admitArrivals(); err != nil {
		return fmt.Errorf("phase 1 (admit): %w", err)
	}

	// Phase 2: unblock every process whose I/O is due.
	for l.engine.Unblock() {
	}

	// Phase 3: dispatch.
	pid := l.engine.Dispatch()
	if pid == model.NoProcess {
		if err := l.idle(); err != nil {
			return fmt.Errorf("phase 3 (idle): %w", err)
		}
		return l.checkLimit()
	}
	l.metrics.Dispatched(pid)

	// Phase 4: run one slice.
	reason, err := l.run(pid)
	if err != nil {
		return fmt.Errorf("phase 4 (run): %w", err)
	}

	// Phase 5: requeue or finish.
	if err := l.requeue(pid, reason); err != nil {
		return fmt.Errorf("phase 5 (requeue): %w", err)
	}
	return l.checkLimit()
}

// admitArrivals moves pending jobs into the process table and the ready
// queue. A full table leaves the remaining jobs pending.
func (l *Loop) admitArrivals() error {
	table := l.engine.Table()
	now := l.clock.Now()

	for len(l.pending) > 0 && l.pending[0].Start <= now {
		pid := table.Allocate()
		if pid == model.NoProcess {
			l.logger.Debug("process table full, admission deferred", "pending", len(l.pending))
			return nil
		}
		job := l.pending[0]
		pcb := model.PCB{
			PID:      pid,
			PPID:     job.PPID,
			OwnerID:  job.OwnerID,
			Start:    job.Start,
			Duration: job.Duration,
			Type:     job.Type,
		}
		if err := table.Admit(pcb); err != nil {
			table.Release(pid)
			return fmt.Errorf("admit %s: %w", job.Name, err)
		}
		l.pending = l.pending[1:]
		l.procs[pid] = &proc{job: job}
		l.metrics.Admitted(pid, job, now)
		l.trace.Pid(pid, fmt.Sprintf("process %s admitted with duration %d", job.Name, job.Duration))

		if !l.engine.Ready().Insert(pid) {
			return fmt.Errorf("admit %s: ready insert failed for pid %d", job.Name, pid)
		}
	}
	return nil
}

// idle advances the clock to the next arrival or I/O completion, or ends
// the simulation when nothing is left.
func (l *Loop) idle() error {
	now := l.clock.Now()
	next, ok := l.nextEvent()
	if !ok {
		if len(l.procs) == 0 && len(l.pending) == 0 {
			l.finish()
			return nil
		}
		return fmt.Errorf("%w at tick %d: %d live, %d pending", ErrStalled, now, len(l.procs), len(l.pending))
	}
	if err := l.clock.AdvanceTo(next); err != nil {
		return err
	}
	l.metrics.Idle(next - now)
	l.logger.Debug("cpu idle", "from", now, "to", next)
	return nil
}

// nextEvent returns the earliest future arrival or ready-at time.
func (l *Loop) nextEvent() (model.Tick, bool) {
	now := l.clock.Now()
	var next model.Tick
	found := false
	consider := func(t model.Tick) {
		if t > now && (!found || t < next) {
			next, found = t, true
		}
	}
	if len(l.pending) > 0 {
		consider(l.pending[0].Start)
	}
	if head, ok := l.engine.Blocked().PeekHead(); ok {
		consider(head.ReadyAt)
	}
	return next, found
}

// run gives pid the CPU for one slice: up to the quantum, its next I/O
// request or its completion, whichever comes first.
func (l *Loop) run(pid model.PID) (model.EventReason, error) {
	table := l.engine.Table()
	p, ok := table.Get(pid)
	if !ok {
		return model.ReasonNone, fmt.Errorf("dispatched pid %d is not live", pid)
	}
	pr := l.procs[pid]

	slice, reason := p.Remaining(), model.ReasonCompleted
	if pr != nil && pr.nextIO < len(pr.job.IO) {
		if d := pr.job.IO[pr.nextIO].After - p.UsedCPU; d < slice {
			slice, reason = d, model.ReasonIO
		}
	}
	if q := l.config.Quantum; q > 0 && q < slice {
		slice, reason = q, model.ReasonQuantumOver
	}

	l.clock.Advance(slice)
	used, _ := table.AddUsedCPU(pid, slice)
	l.metrics.Busy(slice)
	l.trace.Completeness(pid, used, p.Duration, fmt.Sprintf("ran for %d ticks", slice))
	return reason, nil
}

func (l *Loop) requeue(pid model.PID, reason model.EventReason) error {
	table := l.engine.Table()
	pr := l.procs[pid]

	switch reason {
	case model.ReasonCompleted:
		l.trace.PidEvent(pid, reason, "process finished, switched to ended state")
		if err := table.Transition(pid, model.StatusEnded); err != nil {
			return err
		}
		l.metrics.Finished(pid, l.clock.Now())
		table.Release(pid)
		delete(l.procs, pid)
		if len(l.procs) == 0 && len(l.pending) == 0 {
			l.finish()
		}

	case model.ReasonIO:
		burst := pr.job.IO[pr.nextIO]
		pr.nextIO++
		l.trace.PidEvent(pid, reason, "process requested I/O, switched to blocked state")
		l.metrics.Blocked(pid, burst.Duration)
		if !l.engine.Blocked().Insert(pid, burst.Duration) {
			return fmt.Errorf("blocked insert failed for pid %d", pid)
		}

	case model.ReasonQuantumOver:
		l.trace.PidEvent(pid, reason, "quantum expired, switched to ready state")
		if !l.engine.Ready().Insert(pid) {
			return fmt.Errorf("ready insert failed for pid %d", pid)
		}

	default:
		return fmt.Errorf("unexpected slice outcome %s for pid %d", reason, pid)
	}
	return nil
}

func (l *Loop) checkLimit() error {
	if l.finished || l.config.MaxTicks == 0 || l.clock.Now() <= l.config.MaxTicks {
		return nil
	}
	l.abort(fmt.Sprintf("simulation exceeded %d ticks", l.config.MaxTicks))
	return fmt.Errorf("%w (%d)", ErrMaxTicks, l.config.MaxTicks)
}

func (l *Loop) finish() {
	l.finished = true
	l.trace.Generic("simulation finished")
}

// abort kills every live process and ends the simulation.
func (l *Loop) abort(msg string) {
	for _, p := range l.engine.Table().Live() {
		l.engine.Kill(p.PID)
		delete(l.procs, p.PID)
	}
	l.finished = true
	l.trace.Generic(msg)
}

// Report assembles the outcome of the run so far.
func (l *Loop) Report() *model.RunReport {
	now := l.clock.Now()
	return &model.RunReport{
		Config:    l.config.RunConfig(),
		Processes: l.metrics.Results(),
		Summary:   l.metrics.Finalize(now),
		Events:    l.recorder.Events(),
	}
}
