package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Whole-session commands",
	}

	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionResetStatsCmd())
	cmd.AddCommand(newSessionClearCmd())
	cmd.AddCommand(newSessionExportCmd())
	cmd.AddCommand(newSessionRestoreCmd())

	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show courts, the waiting queue and teammate history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSession(cmd, http.MethodGet, "/api/v1/session")
		},
	}
}

func newSessionResetStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stats",
		Short: "Zero every player's games and waiting rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSession(cmd, http.MethodPost, "/api/v1/stats/reset")
		},
	}
}

func newSessionClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all players, courts and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return &UsageError{Message: "clear removes every player; pass --yes to confirm"}
			}
			return printSession(cmd, http.MethodDelete, "/api/v1/session")
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the session")

	return cmd
}

func newSessionExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the session state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := client.DoRaw(http.MethodGet, "/api/v1/session/export", "", nil)
			if err != nil {
				return err
			}

			if file == "" {
				_, err = cmd.OutOrStdout().Write(blob)
				return err
			}
			if err := os.WriteFile(file, blob, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Exported session to %s", file))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default: stdout)")

	return cmd
}

func newSessionRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the session with an exported state (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			body, err := client.DoRaw(http.MethodPut, "/api/v1/session/export", "application/json", data)
			if err != nil {
				return err
			}

			var result Session
			if err := decodeResult(body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func printSession(cmd *cobra.Command, method, path string) error {
	var result Session

	if err := client.Do(method, path, nil, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result)
	return nil
}
