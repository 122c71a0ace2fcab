package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/o1/internal/config"
	"github.com/ShayCichocki/o1/internal/state"
)

var (
	historyLimit     int
	historyArtifacts bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recent runs from the ledger",
	Long: `List recent runs recorded in <output dir>/o1.db.

With a run ID, shows that run and every artifact it saved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("output") {
			cfg.Output.Dir, _ = cmd.Flags().GetString("output")
		}

		db, err := state.OpenLedger(cfg.Output.Dir)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer db.Close()

		if len(args) == 1 {
			return showRun(cmd.OutOrStdout(), db, args[0])
		}
		return listRuns(cmd.OutOrStdout(), db, historyLimit, historyArtifacts)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of runs to show (0 for all)")
	historyCmd.Flags().BoolVarP(&historyArtifacts, "artifacts", "a", false, "Show artifact counts")
	historyCmd.Flags().StringP("output", "o", "output", "Base directory holding the ledger")
}

// listRuns prints runs newest first.
func listRuns(w io.Writer, db *state.DB, limit int, withArtifacts bool) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "RUN\tPASS\tSTATUS\tSTARTED\tDURATION\tTASK"
	if withArtifacts {
		header += "\tARTIFACTS"
	}
	fmt.Fprintln(tw, header)

	for _, r := range runs {
		line := fmt.Sprintf("%s\t%d\t%s\t%s\t%s\t%s",
			shortID(r.ID), r.Pass, statusLabel(r.Status),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(r), truncate(r.Task, 50))
		if withArtifacts {
			arts, err := db.ListArtifacts(r.ID)
			if err != nil {
				return fmt.Errorf("list artifacts for %s: %w", r.ID, err)
			}
			line += fmt.Sprintf("\t%d", len(arts))
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// showRun prints one run and its artifacts. id may be a unique prefix.
func showRun(w io.Writer, db *state.DB, id string) error {
	run, err := findRun(db, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Pass:     %d\n", run.Pass)
	fmt.Fprintf(w, "Status:   %s\n", statusLabel(run.Status))
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n", runDuration(*run))
	if run.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", run.Error)
	}
	fmt.Fprintf(w, "Task:     %s\n", run.Task)

	arts, err := db.ListArtifacts(run.ID)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	if len(arts) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nArtifacts:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range arts {
		step := "-"
		if a.Step > 0 {
			step = fmt.Sprintf("%d", a.Step)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", a.Stage, step, a.Name, a.Location)
	}
	return tw.Flush()
}

// findRun resolves a full ID or a unique prefix against the ledger.
func findRun(db *state.DB, id string) (*state.Run, error) {
	run, err := db.GetRun(id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if run != nil {
		return run, nil
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var match *state.Run
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("run ID prefix %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no run matches %q", id)
	}
	return match, nil
}

func statusLabel(s state.RunStatus) string {
	switch s {
	case state.RunCompleted:
		return color.GreenString(string(s))
	case state.RunFailed:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}

func runDuration(r state.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(100 * time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
