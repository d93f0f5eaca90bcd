package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/me/batchsim/internal/workload"
	"github.com/me/batchsim/pkg/model"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "submit <workload.yaml>",
		Short: "Run a workload on a batchsim server and archive it there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagServer == "" {
				return errors.New("submit needs --server (or BATCHSIM_SERVER)")
			}
			// Validate locally first so mistakes are reported with file context.
			if _, err := workload.Load(args[0]); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read workload: %w", err)
			}

			path := "/api/v1/runs/"
			if name != "" {
				path += "?name=" + url.QueryEscape(name)
			}
			client := NewClient(flagServer, logger)
			resp, err := client.PostYAML(cmd.Context(), path, data)
			if err != nil {
				return fmt.Errorf("submit workload: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run created: %s\n", run.ID)
			if run.Error != "" {
				fmt.Fprintf(out, "Run ended early: %s\n", run.Error)
			}
			fmt.Fprintln(out)
			rep := &model.RunReport{Config: run.Config, Processes: run.Processes}
			if run.Summary != nil {
				rep.Summary = *run.Summary
			}
			printReport(out, rep)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Run name (default: workload name)")
	return cmd
}
