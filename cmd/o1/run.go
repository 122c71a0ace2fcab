package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/o1/internal/api"
	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/config"
	"github.com/ShayCichocki/o1/internal/orchestrator"
	"github.com/ShayCichocki/o1/internal/progress"
	"github.com/ShayCichocki/o1/internal/state"
	"github.com/ShayCichocki/o1/pkg/models"
)

// flushTimeout bounds how long the final output waits for queued progress.
const flushTimeout = 2 * time.Minute

// runIO is where a run writes.
type runIO struct {
	out     io.Writer
	errOut  io.Writer
	quiet   bool
	noColor bool
	now     func() time.Time
}

// runFailedError marks a failure that has already been reported to the user.
type runFailedError struct {
	err error
}

func (e *runFailedError) Error() string { return e.err.Error() }
func (e *runFailedError) Unwrap() error { return e.err }

// runTask runs the refined pipeline over task and prints the final output.
func runTask(ctx context.Context, cfg *config.Config, llm api.Completer, mdl api.Models, task string, rio runIO) (*models.Result, error) {
	now := rio.now
	if now == nil {
		now = time.Now
	}
	runDir := artifact.RunDir(cfg.Output.Dir, now())

	var sinks progress.Multi
	var printer *progress.Printer
	if !rio.quiet {
		printer = progress.NewPrinter(rio.out, progress.PrinterConfig{
			Pace:    cfg.Output.Pace,
			NoColor: rio.noColor,
		})
		defer printer.Close()
		sinks = append(sinks, printer)
	}
	if cfg.Progress.NATSURL != "" {
		bus, err := progress.NewNATSSink(cfg.Progress.NATSURL, "")
		if err != nil {
			log.Printf("[o1] progress bus unavailable: %v", err)
		} else {
			defer bus.Close()
			sinks = append(sinks, bus)
		}
	}

	opts := []orchestrator.Option{
		orchestrator.WithWorkers(cfg.Pipeline.Workers),
		orchestrator.WithParallel(cfg.Pipeline.Parallel),
		orchestrator.WithRefine(cfg.Pipeline.Refine),
		orchestrator.WithRunDir(runDir),
		orchestrator.WithProgress(sinks),
		orchestrator.WithSummaryNaming(artifact.Naming(cfg.Output.Naming), cfg.Output.SummaryWords),
		orchestrator.WithClock(now),
	}

	ledger, err := state.OpenLedger(cfg.Output.Dir)
	if err != nil {
		log.Printf("[o1] run ledger unavailable: %v", err)
	} else {
		defer ledger.Close()
		opts = append(opts, orchestrator.WithRecorder(ledger))
	}

	pipeline, err := orchestrator.New(orchestrator.RequiredConfig{
		LLM:    api.WithTimeout(llm, cfg.Pipeline.CallTimeout),
		Models: mdl,
	}, opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Close()

	result, runErr := pipeline.RunWithRefinement(ctx, task)

	if printer != nil {
		flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
		if err := printer.Flush(flushCtx); err != nil {
			log.Printf("[o1] progress flush: %v", err)
		}
		cancel()
	}

	if runErr != nil {
		printFailure(rio.errOut, runErr, rio.noColor)
		return result, &runFailedError{err: runErr}
	}

	printFinal(rio.out, result.Final(), rio.noColor)
	return result, nil
}

// printFinal prints the final output between banners.
func printFinal(w io.Writer, final string, noColor bool) {
	banner := color.New(color.FgGreen, color.Bold)
	if noColor {
		banner.DisableColor()
	}
	banner.Fprintln(w, "\n"+progress.Heading("FINAL OUTPUT"))
	fmt.Fprintln(w, final)
	banner.Fprintln(w, "\n"+progress.Heading("Process Completed"))
}

// printFailure prints a failure banner naming the stage and step that failed.
func printFailure(w io.Writer, err error, noColor bool) {
	banner := color.New(color.FgRed, color.Bold)
	if noColor {
		banner.DisableColor()
	}
	banner.Fprintln(w, "\n"+progress.Heading("Run Failed"))

	var stageErr *orchestrator.StageError
	if errors.As(err, &stageErr) {
		where := fmt.Sprintf("pass %d, stage %s", stageErr.Pass, stageErr.Stage)
		if stageErr.Step > 0 {
			where += fmt.Sprintf(", step %d", stageErr.Step)
		}
		fmt.Fprintf(w, "Failed at: %s\n", where)
	}

	var genErr *api.GenerationError
	switch {
	case errors.As(err, &genErr):
		fmt.Fprintf(w, "Model call failed (%s, %s): %v\n", genErr.Backend, genErr.Model, genErr.Err)
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "Run canceled")
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
