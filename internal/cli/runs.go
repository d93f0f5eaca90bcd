package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/me/batchsim/internal/trace"
	"github.com/me/batchsim/pkg/model"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse archived runs",
	}
	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsEventsCmd(),
		newRunsDeleteCmd(),
	)
	return cmd
}

func newRunsListCmd() *cobra.Command {
	opts := model.DefaultListOptions()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, err := openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer ar.Close()

			runs, total, err := ar.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tJOBS\tMAKESPAN\tUTIL\tCREATED\tERROR")
			for _, r := range runs {
				var makespan, util string
				if r.Summary != nil {
					makespan = ticks(r.Summary.Makespan)
					util = humanize.FtoaWithDigits(r.Summary.Utilization*100, 1) + "%"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					r.ID, r.Name, r.JobCount, makespan, util, humanize.Time(r.CreatedAt), r.Error)
			}
			tw.Flush()

			if len(runs) < total {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(runs), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum runs to show")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Skip this many runs")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Only runs with this name")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	var showWorkload bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the summary and per-process results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, err := openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer ar.Close()

			run, err := ar.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:      %s\n", run.ID)
			fmt.Fprintf(out, "Name:     %s\n", run.Name)
			fmt.Fprintf(out, "Created:  %s (%s)\n", run.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))
			if run.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", run.Error)
			}
			fmt.Fprintln(out)

			rep := &model.RunReport{Config: run.Config, Processes: run.Processes}
			if run.Summary != nil {
				rep.Summary = *run.Summary
			}
			printReport(out, rep)

			if showWorkload && run.Workload != "" {
				fmt.Fprintln(out)
				fmt.Fprint(out, run.Workload)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showWorkload, "workload", false, "Also print the workload the run was executed from")
	return cmd
}

func newRunsEventsCmd() *cobra.Command {
	var pid uint

	cmd := &cobra.Command{
		Use:   "events <run-id>",
		Short: "Print the archived trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, err := openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer ar.Close()

			events, err := ar.Events(cmd.Context(), args[0], model.PID(pid))
			if err != nil {
				return err
			}

			var sb strings.Builder
			for _, ev := range events {
				sb.WriteString(trace.Format(ev))
				sb.WriteByte('\n')
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
			return err
		},
	}

	cmd.Flags().UintVar(&pid, "pid", 0, "Only events of this process")
	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, err := openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer ar.Close()

			if err := ar.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run deleted: %s\n", args[0])
			return nil
		},
	}
}
