package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/me/batchsim/pkg/model"
)

func ticks(t model.Tick) string {
	return humanize.Comma(int64(t))
}

// printReport writes the per-process table followed by the run summary.
func printReport(out io.Writer, rep *model.RunReport) {
	printProcesses(out, rep.Processes)
	fmt.Fprintln(out)
	printSummary(out, rep.Config, rep.Summary)
}

func printProcesses(out io.Writer, procs []model.ProcessResult) {
	if len(procs) == 0 {
		fmt.Fprintln(out, "No process finished.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PID\tNAME\tTYPE\tSTART\tEND\tBURST\tIO\tTURNAROUND\tWAITING\tDISPATCHES\t")
	for _, p := range procs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t\n",
			p.PID, p.Name, p.Type, ticks(p.Start), ticks(p.End), ticks(p.Duration),
			ticks(p.IOTime), ticks(p.Turnaround), ticks(p.Waiting), p.Dispatches)
	}
	tw.Flush()
}

func printSummary(out io.Writer, cfg model.RunConfig, s model.RunSummary) {
	quantum := ticks(cfg.Quantum)
	if cfg.Quantum == 0 {
		quantum = "none (batch)"
	}
	fmt.Fprintf(out, "Capacity:          %d\n", cfg.Capacity)
	fmt.Fprintf(out, "Quantum:           %s\n", quantum)
	fmt.Fprintf(out, "Processes:         %d\n", s.Processes)
	fmt.Fprintf(out, "Makespan:          %s ticks\n", ticks(s.Makespan))
	fmt.Fprintf(out, "CPU busy/idle:     %s / %s ticks\n", ticks(s.BusyTicks), ticks(s.IdleTicks))
	fmt.Fprintf(out, "Utilization:       %s%%\n", humanize.FtoaWithDigits(s.Utilization*100, 1))
	fmt.Fprintf(out, "Throughput:        %s jobs/tick\n", humanize.FtoaWithDigits(s.Throughput, 3))
	fmt.Fprintf(out, "Turnaround:        avg %s  p50 %s  p90 %s  p99 %s\n",
		humanize.FtoaWithDigits(s.AvgTurnaround, 2), humanize.FtoaWithDigits(s.P50Turnaround, 2),
		humanize.FtoaWithDigits(s.P90Turnaround, 2), humanize.FtoaWithDigits(s.P99Turnaround, 2))
	fmt.Fprintf(out, "Waiting:           avg %s  max %s  stddev %s\n",
		humanize.FtoaWithDigits(s.AvgWaiting, 2), humanize.FtoaWithDigits(s.MaxWaiting, 2),
		humanize.FtoaWithDigits(s.StddevWaiting, 2))
	fmt.Fprintf(out, "Context switches:  %d\n", s.ContextSwitches)
}
