package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/o1/internal/config"
	"github.com/ShayCichocki/o1/internal/progress"
)

var watchURL string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow progress of runs published to NATS",
	Long: `Subscribe to o1.progress.> and print every progress line other o1
processes publish. Runs publish when progress.nats_url is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := watchURL
		if url == "" {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			url = cfg.Progress.NATSURL
		}
		if url == "" {
			url = nats.DefaultURL
		}
		return watch(cmd.Context(), url, cmd.OutOrStdout())
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "", "NATS server URL (defaults to progress.nats_url)")
}

// watch prints events until ctx is canceled.
func watch(ctx context.Context, url string, w io.Writer) error {
	conn, err := nats.Connect(url, nats.Name("o1-watch"))
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer conn.Close()

	var mu sync.Mutex
	sub, err := progress.Watch(conn, func(ev progress.Event) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, formatEvent(ev))
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	if err := conn.Flush(); err != nil {
		return fmt.Errorf("flush subscription: %w", err)
	}
	mu.Lock()
	fmt.Fprintf(w, "Watching %s on %s\n", progress.SubjectAll, url)
	mu.Unlock()

	<-ctx.Done()
	return nil
}

func formatEvent(ev progress.Event) string {
	return fmt.Sprintf("%s %s %s",
		color.HiBlackString(ev.Timestamp.Local().Format("15:04:05")),
		color.CyanString(shortID(ev.RunID)),
		ev.Text)
}
