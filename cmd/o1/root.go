package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/o1/internal/config"
	"github.com/ShayCichocki/o1/internal/tui"
)

// runFlags holds the root command's flags. Only flags the user set
// override the loaded configuration.
type runFlags struct {
	workers  int
	parallel bool
	noRefine bool
	output   string
	provider string
	model    string
	quiet    bool
	noColor  bool
	timeout  time.Duration
}

var rootFlags runFlags

var rootCmd = &cobra.Command{
	Use:   "o1 [task...]",
	Short: "Plan, implement and refine a task with a team of agents",
	Long: `o1 hands a task to a CEO agent that writes a step-by-step plan,
lets one worker agent implement each step, and has the CEO condense the
plan and implementations into a final strategy. A refinement pass then
runs the whole pipeline again over that strategy.

Every response is saved as markdown under output/YYYYMMDD_HHMM.

With no arguments, o1 asks for the task interactively.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := applyFlags(cmd, cfg, rootFlags); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		task := strings.TrimSpace(strings.Join(args, " "))
		if task == "" {
			task, err = tui.Ask(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, tui.ErrCanceled) {
				return nil
			}
			if err != nil {
				return err
			}
		}

		llm, mdl, err := newCompleter(cfg)
		if err != nil {
			return err
		}

		_, err = runTask(cmd.Context(), cfg, llm, mdl, task, runIO{
			out:     cmd.OutOrStdout(),
			errOut:  cmd.ErrOrStderr(),
			quiet:   rootFlags.quiet,
			noColor: rootFlags.noColor,
		})
		return err
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var failed *runFailedError
		if !errors.As(err, &failed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	addRunFlags(rootCmd, &rootFlags)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func addRunFlags(cmd *cobra.Command, fl *runFlags) {
	f := cmd.Flags()
	f.IntVarP(&fl.workers, "workers", "n", 4, "Number of step workers per pass")
	f.BoolVar(&fl.parallel, "parallel", false, "Run the step workers of a pass concurrently")
	f.BoolVar(&fl.noRefine, "no-refine", false, "Skip the refinement pass")
	f.StringVarP(&fl.output, "output", "o", "output", "Base directory for run output")
	f.StringVar(&fl.provider, "provider", config.ProviderOllama, "Model backend: ollama, anthropic or bedrock")
	f.StringVarP(&fl.model, "model", "m", "", "Model used by every agent (overrides models.capable)")
	f.BoolVarP(&fl.quiet, "quiet", "q", false, "Only print the final output")
	f.BoolVar(&fl.noColor, "no-color", false, "Disable colored output")
	f.DurationVar(&fl.timeout, "timeout", 10*time.Minute, "Limit for each model call (0 disables)")
}

// applyFlags copies the flags the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config, fl runFlags) error {
	changed := cmd.Flags().Changed

	if changed("workers") {
		if fl.workers < 1 {
			return fmt.Errorf("--workers must be at least 1, got %d", fl.workers)
		}
		cfg.Pipeline.Workers = fl.workers
	}
	if changed("parallel") {
		cfg.Pipeline.Parallel = fl.parallel
	}
	if changed("no-refine") {
		cfg.Pipeline.Refine = !fl.noRefine
	}
	if changed("output") {
		cfg.Output.Dir = fl.output
	}
	if changed("provider") {
		cfg.Provider = strings.ToLower(fl.provider)
	}
	if changed("model") {
		cfg.Models.Capable = fl.model
	}
	if changed("timeout") {
		cfg.Pipeline.CallTimeout = fl.timeout
	}
	return nil
}
