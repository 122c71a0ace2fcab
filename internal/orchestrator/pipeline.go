package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/o1/internal/agent"
	"github.com/ShayCichocki/o1/internal/api"
	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/progress"
	"github.com/ShayCichocki/o1/pkg/models"
)

// Pipeline runs plan, implement and synthesize passes over a task.
// A Pipeline is meant for one top-level run; it is not safe to call Run
// concurrently.
type Pipeline struct {
	llm   api.Completer
	model string
	opts  pipelineOptions

	artifacts artifact.Sink
	progress  progress.Sink
	logger    *DebugLogger
	ownLogger bool
	manifest  *artifact.Manifest
}

// New builds a pipeline.
func New(req RequiredConfig, options ...Option) (*Pipeline, error) {
	if req.LLM == nil {
		return nil, fmt.Errorf("pipeline requires an LLM client")
	}
	model, err := req.Models.Resolve(models.TierCapable)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if opts.workers < 1 {
		return nil, ErrInvalidWorkers
	}
	if opts.now == nil {
		opts.now = defaultOptions().now
	}

	p := &Pipeline{
		llm:       req.LLM,
		model:     model,
		opts:      opts,
		artifacts: opts.artifacts,
		progress:  opts.progress,
		logger:    opts.logger,
	}
	if p.progress == nil {
		p.progress = progress.Nop{}
	}
	if p.artifacts == nil && opts.runDir != "" {
		p.artifacts = artifact.NewFileSink(opts.runDir)
	}
	if p.logger == nil {
		if opts.runDir != "" {
			p.logger = NewDebugLoggerForRun(opts.runDir)
			p.ownLogger = true
		} else {
			p.logger = NopLogger()
		}
	}
	return p, nil
}

// Close releases the debug log the pipeline opened itself.
func (p *Pipeline) Close() error {
	if p.ownLogger {
		return p.logger.Close()
	}
	return nil
}

// RunDir returns the configured run directory, empty if none.
func (p *Pipeline) RunDir() string {
	return p.opts.runDir
}

// Workers returns the number of step workers per pass.
func (p *Pipeline) Workers() int {
	return p.opts.workers
}

// Run executes a single pass over task.
func (p *Pipeline) Run(ctx context.Context, task string) (*models.PassResult, error) {
	return p.runPass(ctx, 1, task)
}

// RunWithRefinement executes pass 1 over task and, unless refinement is
// disabled, pass 2 over pass 1's final text. The returned result holds
// every pass that completed; its Final is the last pass's output.
func (p *Pipeline) RunWithRefinement(ctx context.Context, task string) (*models.Result, error) {
	result := &models.Result{}

	first, err := p.runPass(ctx, 1, task)
	if err != nil {
		return result, err
	}
	result.Passes = append(result.Passes, *first)

	if !p.opts.refine {
		return result, nil
	}

	p.progress.Emit(progress.Heading("Refinement Pass Started"))
	second, err := p.runPass(ctx, 2, first.Final)
	if err != nil {
		return result, err
	}
	result.Passes = append(result.Passes, *second)
	return result, nil
}

func (p *Pipeline) runPass(ctx context.Context, pass int, task string) (*models.PassResult, error) {
	if strings.TrimSpace(task) == "" {
		return nil, ErrEmptyTask
	}

	started := p.opts.now()
	res := &models.PassResult{
		Number:    pass,
		RunID:     uuid.NewString(),
		Task:      task,
		StartedAt: started,
	}
	if p.opts.runDir != "" && p.manifest == nil {
		p.manifest = artifact.NewManifest(task, started)
	}
	if setter, ok := p.progress.(progress.RunIDSetter); ok {
		setter.SetRunID(res.RunID)
	}

	p.logger.Log("pass %d started: run=%s workers=%d parallel=%v", pass, res.RunID, p.opts.workers, p.opts.parallel)
	p.record("run started", p.recorderCall(func(r Recorder) error {
		return r.RunStarted(res.RunID, pass, task, started)
	}))

	err := p.stages(ctx, res)
	res.Duration = p.opts.now().Sub(started)

	if err != nil {
		p.logger.Log("pass %d failed after %s: %v", pass, res.Duration, err)
	} else {
		p.logger.Log("pass %d completed in %s", pass, res.Duration)
	}
	p.record("run finished", p.recorderCall(func(r Recorder) error {
		return r.RunFinished(res.RunID, err, p.opts.now())
	}))
	p.writeManifest()

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) stages(ctx context.Context, res *models.PassResult) error {
	deps := p.agentDeps(res.Number)

	p.progress.Emit(progress.Heading("Task Processing Initiated"))
	p.progress.Emit("User Input: " + res.Task)

	// PLAN
	if err := p.enter(ctx, res.Number, models.StagePlan); err != nil {
		return err
	}
	p.progress.Emit(progress.Heading("Step 1: Retrieving Initial Plan"))
	plan, err := agent.CEO{}.Plan(ctx, deps, res.Task)
	if err != nil {
		return &StageError{Pass: res.Number, Stage: models.StagePlan, Err: err}
	}
	res.Plan = plan.Content
	res.PlanLocation = plan.Location
	p.saved(res, models.StagePlan, plan.Kind, 0, plan.Name, plan.Location)
	p.progress.Emit("Initial Plan Generated.")

	// IMPLEMENT
	if err := p.enter(ctx, res.Number, models.StageImplement); err != nil {
		return err
	}
	p.progress.Emit(progress.Heading("Step 2: Activating Agents for Detailed Implementations"))
	impls, err := p.implement(ctx, deps, res, plan.Content)
	if err != nil {
		return err
	}
	res.Implementations = impls

	// SYNTHESIZE
	if err := p.enter(ctx, res.Number, models.StageSynthesize); err != nil {
		return err
	}
	p.progress.Emit(progress.Heading("Step 3: Generating Final Summary"))
	final, err := agent.CEO{}.Summarize(ctx, deps, agent.RenderBundle(plan.Content, impls))
	if err != nil {
		return &StageError{Pass: res.Number, Stage: models.StageSynthesize, Err: err}
	}
	res.Final = final.Content
	res.FinalLocation = final.Location
	p.saved(res, models.StageSynthesize, final.Kind, 0, final.Name, final.Location)
	p.progress.Emit(progress.Heading("Final Result Generated"))
	return nil
}

// implement runs workers 1..N over plan. Output is ordered by step
// identity whether or not the workers ran concurrently.
func (p *Pipeline) implement(ctx context.Context, deps agent.Deps, res *models.PassResult, plan string) ([]models.Implementation, error) {
	impls := make([]models.Implementation, p.opts.workers)

	runStep := func(ctx context.Context, step int) error {
		impl, err := agent.NewWorker(step).Implement(ctx, deps, plan)
		if err != nil {
			return &StageError{Pass: res.Number, Stage: models.StageImplement, Step: step, Err: err}
		}
		impls[step-1] = impl
		p.logger.Log("pass %d: step %d implemented (%d chars)", res.Number, step, len(impl.Content))
		p.saved(res, models.StageImplement, models.ArtifactImplementation, step, artifact.WorkerName(step), impl.Location)
		return nil
	}

	if !p.opts.parallel {
		for step := 1; step <= p.opts.workers; step++ {
			if err := ctx.Err(); err != nil {
				return nil, &StageError{Pass: res.Number, Stage: models.StageImplement, Step: step, Err: err}
			}
			if err := runStep(ctx, step); err != nil {
				return nil, err
			}
		}
		return impls, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for step := 1; step <= p.opts.workers; step++ {
		g.Go(func() error {
			return runStep(gctx, step)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return impls, nil
}

// enter logs a stage transition and refuses to start once ctx is done.
func (p *Pipeline) enter(ctx context.Context, pass int, stage models.Stage) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Pass: pass, Stage: stage, Err: err}
	}
	p.logger.Log("pass %d: %s", pass, stage)
	return nil
}

func (p *Pipeline) agentDeps(pass int) agent.Deps {
	var sink artifact.Sink
	if p.artifacts != nil {
		sink = artifact.ForPass(p.artifacts, pass)
	}
	return agent.Deps{
		LLM:           p.llm,
		Model:         p.model,
		Artifacts:     sink,
		Progress:      p.progress,
		SummaryNaming: p.opts.naming,
		SummaryWords:  p.opts.summaryWords,
		Now:           p.opts.now,
		Logf: func(format string, args ...interface{}) {
			log.Printf(format, args...)
			p.logger.Log(format, args...)
		},
	}
}

// saved records a persisted artifact in the manifest and the ledger.
// Artifacts that failed to persist have no location and are skipped.
func (p *Pipeline) saved(res *models.PassResult, stage models.Stage, kind models.ArtifactKind, step int, name, location string) {
	if location == "" {
		return
	}
	name = artifact.PassName(name, res.Number)
	entry := artifact.Entry{
		Pass:      res.Number,
		Stage:     stage,
		Kind:      kind,
		Step:      step,
		Name:      name,
		Location:  location,
		CreatedAt: p.opts.now(),
	}
	if p.manifest != nil {
		p.manifest.Add(entry)
	}
	p.record("artifact "+name, p.recorderCall(func(r Recorder) error {
		return r.ArtifactSaved(res.RunID, entry)
	}))
}

func (p *Pipeline) recorderCall(fn func(Recorder) error) error {
	if p.opts.recorder == nil {
		return nil
	}
	return fn(p.opts.recorder)
}

func (p *Pipeline) record(what string, err error) {
	if err != nil {
		log.Printf("[orchestrator] ledger: %s: %v", what, err)
		p.logger.Log("ledger: %s: %v", what, err)
	}
}

func (p *Pipeline) writeManifest() {
	if p.manifest == nil {
		return
	}
	if _, err := p.manifest.WriteTo(p.opts.runDir); err != nil {
		log.Printf("[orchestrator] manifest: %v", err)
		p.logger.Log("manifest: %v", err)
	}
}
