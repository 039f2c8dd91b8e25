package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player roster commands",
	}

	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerAddCmd())
	cmd.AddCommand(newPlayerEditCmd())
	cmd.AddCommand(newPlayerRemoveCmd())
	cmd.AddCommand(newPlayerRestCmd())
	cmd.AddCommand(newPlayerImportCmd())

	return cmd
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Player

			if err := client.Get("/api/v1/players", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newPlayerAddCmd() *cobra.Command {
	var level int

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a player to the back of the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"name":  args[0],
				"level": level,
			}
			var result Player

			if err := client.Post("/api/v1/players", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "Skill level (required)")
	_ = cmd.MarkFlagRequired("level")

	return cmd
}

func newPlayerEditCmd() *cobra.Command {
	var level, games, rounds int

	cmd := &cobra.Command{
		Use:   "edit <player>",
		Short: "Edit a player's level or counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]int{}
			if cmd.Flags().Changed("level") {
				req["level"] = level
			}
			if cmd.Flags().Changed("games") {
				req["games_played"] = games
			}
			if cmd.Flags().Changed("rounds") {
				req["waiting_rounds"] = rounds
			}
			if len(req) == 0 {
				return &UsageError{Message: "at least one of --level, --games or --rounds is required"}
			}

			id, err := resolvePlayer(args[0])
			if err != nil {
				return err
			}

			var result Player
			if err := client.Patch("/api/v1/players/"+url.PathEscape(id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "New skill level")
	cmd.Flags().IntVar(&games, "games", 0, "Games played")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Waiting rounds")

	return cmd
}

func newPlayerRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <player>",
		Short: "Remove a player from the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolvePlayer(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete("/api/v1/players/"+url.PathEscape(id), nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Removed player %s", args[0]))
			return nil
		},
	}
}

func newPlayerRestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rest <player>",
		Short: "Toggle a player between waiting and resting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolvePlayer(args[0])
			if err != nil {
				return err
			}

			var result Player
			if err := client.Post("/api/v1/players/"+url.PathEscape(id)+"/rest", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newPlayerImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import players from a YAML or JSON list (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			body, err := client.DoRaw(http.MethodPost, "/api/v1/players/import", contentTypeOf(args[0]), data)
			if err != nil {
				return err
			}

			var result ImportReport
			if err := decodeResult(body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

// resolvePlayer accepts a player ID or a case-insensitive name
func resolvePlayer(arg string) (string, error) {
	var players []Player
	if err := client.Get("/api/v1/players", &players); err != nil {
		return "", err
	}

	for _, p := range players {
		if p.ID == arg {
			return p.ID, nil
		}
	}
	for _, p := range players {
		if strings.EqualFold(p.Name, strings.TrimSpace(arg)) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no player named %q", arg)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func contentTypeOf(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return "application/json"
	}
	return "application/yaml"
}
