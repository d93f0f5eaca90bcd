package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/me/batchsim/internal/clock"
	"github.com/me/batchsim/internal/config"
	"github.com/me/batchsim/internal/scheduler"
	"github.com/me/batchsim/internal/trace"
	"github.com/me/batchsim/internal/workload"
	"github.com/me/batchsim/pkg/model"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		quantum   uint64
		capacity  int
		maxTicks  uint64
		traceMode string
		save      bool
		name      string
	)

	cmd := &cobra.Command{
		Use:   "run <workload.yaml>",
		Short: "Simulate a workload and print its trace and summary",
		Long: `Runs every job of the workload through the scheduler on a simulated
clock. Flags override the workload's own config block, which overrides the
built-in defaults. --quantum 0 selects batch mode (no preemption).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := workload.Load(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				wl.Name = name
			}

			cfg := config.DefaultSimConfig()
			flags := cmd.Flags()
			if flags.Changed("quantum") {
				// Zero is meaningful here, so the flag replaces any workload value.
				cfg.Quantum = model.Tick(quantum)
				wl.Config.Quantum = 0
			}
			if flags.Changed("capacity") {
				wl.Config.Capacity = capacity
			}
			if flags.Changed("max-ticks") {
				wl.Config.MaxTicks = model.Tick(maxTicks)
			}

			out := cmd.OutOrStdout()
			clk := clock.New(0)
			em, err := traceSink(traceMode, out, clk)
			if err != nil {
				return err
			}

			loop, err := scheduler.NewLoop(wl, scheduler.Options{Config: cfg, Clock: clk, Trace: em}, logger)
			if err != nil {
				return err
			}
			rep, runErr := loop.Run(cmd.Context())
			if errors.Is(runErr, context.Canceled) {
				return runErr
			}

			if traceMode != "none" {
				fmt.Fprintln(out)
			}
			printReport(out, rep)

			if save {
				if err := saveRun(cmd.Context(), out, wl, rep, runErr); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().Uint64Var(&quantum, "quantum", 0, "Time slice in ticks; 0 runs each dispatch to completion or I/O (default from workload, else 4)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "Process table size (default from workload, else 20)")
	cmd.Flags().Uint64Var(&maxTicks, "max-ticks", 0, "Abort the run past this simulated time")
	cmd.Flags().StringVar(&traceMode, "trace", "text", "Trace output: text, json or none")
	cmd.Flags().BoolVar(&save, "save", false, "Archive the run in the database")
	cmd.Flags().StringVar(&name, "name", "", "Run name (default: workload name)")

	return cmd
}

// traceSink builds the emitter for the --trace flag.
func traceSink(mode string, out io.Writer, clk clock.Reader) (trace.Emitter, error) {
	switch mode {
	case "text":
		return trace.NewWriter(out, clk), nil
	case "json":
		h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
		return trace.NewSlog(slog.New(h), clk), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown trace mode %q (want text, json or none)", mode)
	}
}

func saveRun(ctx context.Context, out io.Writer, wl *workload.Workload, rep *model.RunReport, runErr error) error {
	run, err := scheduler.NewRun(wl, rep, runErr)
	if err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	logger.Info("run archived", "id", run.ID, "events", len(run.Events))
	fmt.Fprintf(out, "\nRun archived: %s\n", run.ID)
	return nil
}
