package experiment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ybeven/4D-ARE/internal/config"
	"github.com/ybeven/4D-ARE/internal/llm"
	"github.com/ybeven/4D-ARE/internal/metrics"
	"github.com/ybeven/4D-ARE/internal/report"
	"github.com/ybeven/4D-ARE/internal/store"
)

// Courtesy pacing between API calls, tuned to typical completion-API rate
// limits.
const (
	generatePause = 1 * time.Second        // after each generation batch
	agentPause    = 500 * time.Millisecond // after each scenario in the agent phase
	judgePause    = 300 * time.Millisecond // after each scenario in the judge phase
)

// The generator produces banking scenarios, so stored rows and the 4d-are
// arm both use the banking template.
const scenarioDomain = "banking"

// PartialError indicates that some scenario steps failed but the run
// carried on and produced output for the rest.
type PartialError struct {
	Errors []error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial failure: %d scenario step(s) failed", len(e.Errors))
}

// Runner orchestrates the generate -> respond -> evaluate experiment flow.
type Runner struct {
	cfg       *config.Config
	store     *store.Store
	generator *Generator
	agent     llm.Client
	judge     *Judge
}

// New initializes all components and returns a ready-to-run Runner.
func New(cfg *config.Config) (*Runner, error) {
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	generatorClient, err := newClient(cfg, cfg.LLM.GeneratorModel)
	if err != nil {
		s.Close()
		return nil, err
	}
	agentClient, err := newClient(cfg, cfg.LLM.AgentModel)
	if err != nil {
		s.Close()
		return nil, err
	}
	judgeClient, err := newClient(cfg, cfg.LLM.JudgeModel)
	if err != nil {
		s.Close()
		return nil, err
	}

	return &Runner{
		cfg:       cfg,
		store:     s,
		generator: NewGenerator(generatorClient),
		agent:     agentClient,
		judge:     NewJudge(judgeClient),
	}, nil
}

// newClient builds a provider client for the given model, wrapped with the
// configured retry policy.
func newClient(cfg *config.Config, model string) (llm.Client, error) {
	var client llm.Client
	switch cfg.LLM.Provider {
	case "anthropic":
		client = llm.NewAnthropicClient(cfg.LLM.AnthropicKey, model)
	case "openai":
		client = llm.NewOpenAIClient(cfg.LLM.OpenAIKey, cfg.LLM.BaseURL, model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
	return llm.NewRetryClient(client, cfg.LLM.MaxRetries, cfg.LLM.RetryDelay), nil
}

// Close releases all resources held by the runner.
func (r *Runner) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// Store exposes the underlying store for reporting commands.
func (r *Runner) Store() *store.Store {
	return r.store
}

// Run executes the full experiment: generate scenarios, run every arm,
// evaluate every response. Partial failures from the phases are collected
// and returned at the end; any other error aborts immediately.
func (r *Runner) Run(ctx context.Context) error {
	log.Println("experiment: starting full run")

	var failures []error
	for _, phase := range []struct {
		name string
		run  func(context.Context) error
	}{
		{"generate", r.Generate},
		{"agents", r.RunAgents},
		{"evaluate", r.Evaluate},
	} {
		err := phase.run(ctx)
		if err == nil {
			continue
		}
		var pe *PartialError
		if !errors.As(err, &pe) {
			return fmt.Errorf("%s phase: %w", phase.name, err)
		}
		failures = append(failures, pe.Errors...)
	}

	log.Println("experiment: run complete")
	if len(failures) > 0 {
		return &PartialError{Errors: failures}
	}
	return nil
}

// Generate produces the configured number of scenarios, persisting each to
// the store and exporting the full set as scenarios.json. Scenarios already
// in the store are kept as-is, so an interrupted run resumes where it
// stopped. Generation failures skip the scenario and surface as a
// PartialError.
func (r *Runner) Generate(ctx context.Context) error {
	log.Printf("experiment: generating %d scenarios", r.cfg.Experiment.NumScenarios)

	var failures []error
	var scenarios []*Scenario
	for i := 0; i < r.cfg.Experiment.NumScenarios; i++ {
		id := fmt.Sprintf("scenario_%03d", i+1)
		sc, err := r.loadScenario(id)
		if err == nil {
			scenarios = append(scenarios, sc)
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking store for %s: %w", id, err)
		}

		rootCauseType := RootCauseTypes[i%len(RootCauseTypes)]
		sc, err = r.generator.Generate(ctx, i+1, rootCauseType)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("warning: failed to generate scenario %d: %v", i+1, err)
			failures = append(failures, err)
			continue
		}

		if err := r.saveScenario(sc); err != nil {
			return fmt.Errorf("storing scenario %s: %w", sc.ID, err)
		}
		scenarios = append(scenarios, sc)

		if (i+1)%r.cfg.Experiment.BatchSize == 0 {
			if err := pause(ctx, generatePause); err != nil {
				return err
			}
		}
	}

	path := r.cfg.ScenariosPath()
	if err := SaveScenarios(path, scenarios); err != nil {
		return err
	}
	log.Printf("experiment: generated %d scenarios, saved to %s", len(scenarios), path)

	if len(failures) > 0 {
		return &PartialError{Errors: failures}
	}
	return nil
}

// RunAgents runs every arm against every stored scenario, persisting each
// response, then exports the detailed results file. Responses already in
// the store are not re-run.
func (r *Runner) RunAgents(ctx context.Context) error {
	scenarios, err := r.loadScenarios()
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios in store (run generate first)")
	}

	log.Printf("experiment: running %d arms on %d scenarios", len(Arms), len(scenarios))

	var mu sync.Mutex
	var failures []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, sc := range scenarios {
		sc := sc
		g.Go(func() error {
			for _, arm := range Arms {
				if err := r.runArm(gctx, sc, arm); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					log.Printf("warning: %s arm failed for %s: %v", arm, sc.ID, err)
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}
			return pause(gctx, agentPause)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("running agents: %w", err)
	}

	if err := r.exportDetailedResults(); err != nil {
		log.Printf("warning: failed to export detailed results: %v", err)
	}

	log.Println("experiment: agent phase complete")
	if len(failures) > 0 {
		return &PartialError{Errors: failures}
	}
	return nil
}

// runArm produces and stores one arm's response for one scenario.
func (r *Runner) runArm(ctx context.Context, sc *Scenario, arm Arm) error {
	if _, err := r.store.GetResponse(sc.ID, string(arm)); err == nil {
		return nil
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("checking response cache: %w", err)
	}

	system, user, err := ArmMessages(arm, sc.DataContext, sc.Query)
	if err != nil {
		return err
	}

	rec := &store.Response{ScenarioID: sc.ID, Arm: string(arm)}
	resp, err := r.agent.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A failed arm still gets a marker row for the judge to score.
		rec.Response = "ERROR: No response"
		if storeErr := r.store.UpsertResponse(rec); storeErr != nil {
			return fmt.Errorf("storing failure marker: %w", storeErr)
		}
		return fmt.Errorf("%s arm for %s: %w", arm, sc.ID, err)
	}

	rec.Response = resp.Content
	rec.Model = resp.Model
	rec.TokensUsed = resp.TokensUsed
	if err := r.store.UpsertResponse(rec); err != nil {
		return fmt.Errorf("storing response: %w", err)
	}
	return nil
}

// Evaluate scores every stored response with the judge, then exports
// results.csv. Pairs that already have an evaluation are skipped.
func (r *Runner) Evaluate(ctx context.Context) error {
	scenarios, err := r.loadScenarios()
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios in store (run generate first)")
	}

	log.Printf("experiment: evaluating responses for %d scenarios", len(scenarios))

	var mu sync.Mutex
	var failures []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, sc := range scenarios {
		sc := sc
		g.Go(func() error {
			for _, arm := range Arms {
				if err := r.evaluateArm(gctx, sc, arm); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					log.Printf("warning: evaluating %s arm for %s: %v", arm, sc.ID, err)
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
			}
			return pause(gctx, judgePause)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("evaluating responses: %w", err)
	}

	if err := r.exportResults(); err != nil {
		log.Printf("warning: failed to export results: %v", err)
	}

	log.Println("experiment: evaluation phase complete")
	if len(failures) > 0 {
		return &PartialError{Errors: failures}
	}
	return nil
}

// evaluateArm scores one stored response and persists the verdict.
func (r *Runner) evaluateArm(ctx context.Context, sc *Scenario, arm Arm) error {
	if _, err := r.store.GetEvaluation(sc.ID, string(arm)); err == nil {
		return nil
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("checking evaluation cache: %w", err)
	}

	resp, err := r.store.GetResponse(sc.ID, string(arm))
	if err == sql.ErrNoRows {
		return fmt.Errorf("no %s response for %s (run agents first)", arm, sc.ID)
	}
	if err != nil {
		return fmt.Errorf("loading response: %w", err)
	}

	scores, err := r.judge.Evaluate(ctx, sc, resp.Response)
	if err != nil {
		return err
	}

	if err := r.store.UpsertEvaluation(&store.Evaluation{
		ScenarioID:    sc.ID,
		Arm:           string(arm),
		CausalChain:   scores.CausalChain,
		DimSeparation: scores.DimSeparation,
		Actionability: scores.Actionability,
		Boundary:      scores.Boundary,
		Reasoning:     scores.Reasoning,
		Model:         r.cfg.LLM.JudgeModel,
	}); err != nil {
		return fmt.Errorf("storing evaluation: %w", err)
	}
	return nil
}

// exportDetailedResults writes scenarios and responses as
// detailed_results.json.
func (r *Runner) exportDetailedResults() error {
	scenarios, err := r.store.ListScenarios()
	if err != nil {
		return fmt.Errorf("listing scenarios: %w", err)
	}
	responses, err := r.store.ListResponses()
	if err != nil {
		return fmt.Errorf("listing responses: %w", err)
	}

	path := r.cfg.DetailedResultsPath()
	if err := report.WriteDetailedResults(path, scenarios, responses); err != nil {
		return err
	}
	log.Printf("experiment: wrote detailed results %s", path)
	return nil
}

// exportResults writes the per-scenario score matrix as results.csv.
func (r *Runner) exportResults() error {
	evals, err := r.store.ListEvaluations()
	if err != nil {
		return fmt.Errorf("listing evaluations: %w", err)
	}

	path := r.cfg.ResultsPath()
	if err := report.WriteResultsCSV(path, evals); err != nil {
		return err
	}
	log.Printf("experiment: wrote evaluation results %s", path)
	return nil
}

// loadScenarios returns all stored scenarios in ID order.
func (r *Runner) loadScenarios() ([]*Scenario, error) {
	recs, err := r.store.ListScenarios()
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	scenarios := make([]*Scenario, 0, len(recs))
	for _, rec := range recs {
		sc, err := scenarioFromRecord(rec)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// loadScenario fetches one scenario from the store.
func (r *Runner) loadScenario(id string) (*Scenario, error) {
	rec, err := r.store.GetScenario(id)
	if err != nil {
		return nil, err
	}
	return scenarioFromRecord(rec)
}

// saveScenario persists one scenario to the store.
func (r *Runner) saveScenario(sc *Scenario) error {
	data, err := json.Marshal(sc.DataContext)
	if err != nil {
		return fmt.Errorf("encoding data context: %w", err)
	}
	return r.store.UpsertScenario(&store.Scenario{
		ID:            sc.ID,
		Domain:        scenarioDomain,
		Query:         sc.Query,
		DataContext:   string(data),
		GroundTruth:   sc.GroundTruth,
		BoundaryTrap:  sc.BoundaryTrap,
		FalseLead:     sc.FalseLead,
		RootCauseType: sc.RootCauseType,
	})
}

// scenarioFromRecord rebuilds a Scenario from its stored form.
func scenarioFromRecord(rec *store.Scenario) (*Scenario, error) {
	data, err := metrics.ParseJSON([]byte(rec.DataContext))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", rec.ID, err)
	}
	return &Scenario{
		ID:            rec.ID,
		Query:         rec.Query,
		DataContext:   data,
		GroundTruth:   rec.GroundTruth,
		BoundaryTrap:  rec.BoundaryTrap,
		FalseLead:     rec.FalseLead,
		RootCauseType: rec.RootCauseType,
	}, nil
}

// pause sleeps for the given duration unless the context ends first.
func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
