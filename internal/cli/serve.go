package cli

import (
	"github.com/me/batchsim/internal/config"
	"github.com/me/batchsim/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cfg := config.DefaultServerConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the batchsim HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			cfg.LogLevel = flagLogLevel
			cfg.LogFormat = flagLogFormat
			cfg.DBPath, _ = dbPath()
			logger.Info("database ready", "path", cfg.DBPath)

			return server.New(cfg, st, logger).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	cmd.Flags().IntVar(&cfg.Sim.Capacity, "capacity", cfg.Sim.Capacity, "Default process table size for submitted runs")
	cmd.Flags().Uint64Var((*uint64)(&cfg.Sim.Quantum), "quantum", uint64(cfg.Sim.Quantum), "Default quantum for submitted runs")
	cmd.Flags().Uint64Var((*uint64)(&cfg.Sim.MaxTicks), "max-ticks", uint64(cfg.Sim.MaxTicks), "Time limit for submitted runs")
	cmd.Flags().IntVar(&cfg.MaxConcurrentRuns, "max-runs", cfg.MaxConcurrentRuns, "Simulations executing at once (0 for unlimited)")
	return cmd
}
