package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live session updates",
		Long: `Connect to the session event stream and print the session every time it changes.

The current session is printed on connect. Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return streamSession(ctx, cmd.OutOrStdout(), count)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many session updates (0: run until interrupted)")

	return cmd
}

// StreamEvent is one event as printed in json output
type StreamEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamSession(ctx context.Context, w io.Writer, count int) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout for the stream
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	out := NewOutput(cfg.Output, w)
	seen := 0

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent == "session" {
				if err := printSessionEvent(out, w, strings.Join(dataLines, "\n")); err != nil {
					return err
				}
				seen++
				if count > 0 && seen >= count {
					return nil
				}
			} else if currentEvent != "" && cfg.Verbose {
				fmt.Fprintf(os.Stderr, "event: %s\n", currentEvent)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}

func printSessionEvent(out *Output, w io.Writer, data string) error {
	if cfg.Output == "json" {
		line, err := json.Marshal(StreamEvent{Time: time.Now(), Event: "session", Data: json.RawMessage(data)})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(line))
		return nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return fmt.Errorf("failed to parse session event: %w", err)
	}
	fmt.Fprintf(w, "--- %s ---\n", time.Now().Format("15:04:05"))
	out.Print(sess)
	return nil
}
