package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCourtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "court",
		Short: "Court and match commands",
	}

	cmd.AddCommand(newCourtAutoCmd())
	cmd.AddCommand(newCourtSuggestCmd())
	cmd.AddCommand(newCourtSetCmd())
	cmd.AddCommand(newCourtStartAllCmd())
	cmd.AddCommand(newCourtCountCmd())
	cmd.AddCommand(newCourtLifecycleCmd("start", "Start the proposed match on a court", "start"))
	cmd.AddCommand(newCourtLifecycleCmd("cancel", "Cancel an active match and restore the queue", "cancel"))
	cmd.AddCommand(newCourtLifecycleCmd("end", "End an active match", "end"))
	cmd.AddCommand(newCourtClearCmd())

	return cmd
}

func newCourtAutoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Propose the best pairing on the first idle court",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Proposal

			if err := client.Post("/api/v1/courts/auto-pair", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCourtSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Show the best pairing without proposing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Proposal

			if err := client.Get("/api/v1/courts/suggestion", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCourtSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <court> <p1> <p2> <p3> <p4>",
		Short: "Propose teams by hand: p1 & p2 against p3 & p4",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			courtID, err := parseCourt(args[0])
			if err != nil {
				return err
			}

			ids := make([]string, 4)
			for i, arg := range args[1:] {
				if ids[i], err = resolvePlayer(arg); err != nil {
					return err
				}
			}

			req := map[string][2][2]string{
				"teams": {{ids[0], ids[1]}, {ids[2], ids[3]}},
			}
			var result Court

			if err := client.Put(fmt.Sprintf("/api/v1/courts/%d/pairs", courtID), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCourtStartAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-all",
		Short: "Start every proposed court",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StartAllResult

			if err := client.Post("/api/v1/courts/start-all", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCourtCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <n>",
		Short: "Change the number of courts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return &UsageError{Message: fmt.Sprintf("invalid court count %q", args[0])}
			}

			var result Session
			if err := client.Put("/api/v1/courts/count", map[string]int{"count": count}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCourtLifecycleCmd(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <court>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courtID, err := parseCourt(args[0])
			if err != nil {
				return err
			}

			var result Court
			if err := client.Post(fmt.Sprintf("/api/v1/courts/%d/%s", courtID, action), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCourtClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <court>",
		Short: "Discard the proposal on a court",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courtID, err := parseCourt(args[0])
			if err != nil {
				return err
			}

			var result Court
			if err := client.Delete(fmt.Sprintf("/api/v1/courts/%d/pairs", courtID), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func parseCourt(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, &UsageError{Message: fmt.Sprintf("invalid court %q", arg)}
	}
	return id, nil
}
