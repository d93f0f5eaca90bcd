package cli

import (
	"fmt"
	"os"

	"github.com/me/batchsim/internal/workload"
	"github.com/me/batchsim/pkg/model"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	gc := workload.DefaultGenerateConfig()
	var (
		output      string
		name        string
		maxDuration uint64
		maxIO       uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic workload with Poisson arrivals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gc.MaxDuration = model.Tick(maxDuration)
			gc.MaxIO = model.Tick(maxIO)
			wl, err := workload.Generate(gc)
			if err != nil {
				return err
			}
			if name != "" {
				wl.Name = name
			}

			if output == "" || output == "-" {
				return wl.Marshal(cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := wl.Marshal(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("workload written", "path", output, "jobs", len(wl.Jobs), "seed", gc.Seed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "", "Workload name (default generated-<seed>)")
	cmd.Flags().IntVar(&gc.Jobs, "jobs", gc.Jobs, "Number of jobs")
	cmd.Flags().Float64Var(&gc.Rate, "rate", gc.Rate, "Mean arrivals per tick")
	cmd.Flags().Uint64Var(&maxDuration, "max-duration", uint64(gc.MaxDuration), "Longest CPU burst in ticks")
	cmd.Flags().Float64Var(&gc.IOChance, "io-chance", gc.IOChance, "Probability that a job performs I/O")
	cmd.Flags().IntVar(&gc.MaxBursts, "max-bursts", gc.MaxBursts, "Maximum I/O requests per job")
	cmd.Flags().Uint64Var(&maxIO, "max-io", uint64(gc.MaxIO), "Longest I/O wait in ticks")
	cmd.Flags().Float64Var(&gc.OSShare, "os-share", gc.OSShare, "Fraction of jobs typed as os")
	cmd.Flags().Int64Var(&gc.Seed, "seed", gc.Seed, "Random seed")

	return cmd
}
