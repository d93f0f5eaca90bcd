package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/me/batchsim/internal/config"
	"github.com/me/batchsim/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDB        string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// defaultServer returns the API server URL from BATCHSIM_SERVER. Empty means
// the run archive is read from the local database.
func defaultServer() string {
	return os.Getenv("BATCHSIM_SERVER")
}

// defaultDB returns the database path from BATCHSIM_DB.
func defaultDB() string {
	return os.Getenv("BATCHSIM_DB")
}

// NewRootCmd creates the root cobra command for the batchsim CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "batchsim",
		Short: "batchsim: single-processor batch job scheduling simulator",
		Long: `batchsim replays batch workloads on a simulated single CPU using
shortest-remaining-time-first scheduling, traces every state change and
archives the results.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logging.ParseFormat(flagLogFormat); err != nil {
				return err
			}
			logger = logging.NewLogger(logging.ResolveLevel(flagLogLevel, flagDebug), flagLogFormat)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "batchsim API server URL for archive commands (or BATCHSIM_SERVER env)")
	root.PersistentFlags().StringVar(&flagDB, "db", defaultDB(), "Run archive database path (default ~/.batchsim/runs.db, or BATCHSIM_DB env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newGenerateCmd(),
		newRunsCmd(),
		newSubmitCmd(),
		newServeCmd(),
	)

	return root
}

// dbPath resolves the --db flag, falling back to the default location.
func dbPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	p, err := config.DefaultDBPath()
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	return p, nil
}
