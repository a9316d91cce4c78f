package experiment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ybeven/4D-ARE/internal/config"
	"github.com/ybeven/4D-ARE/internal/llm"
	"github.com/ybeven/4D-ARE/internal/metrics"
	"github.com/ybeven/4D-ARE/internal/store"
)

type mockLLM struct {
	response  string
	err       error
	callCount atomic.Int64

	mu       sync.Mutex
	requests []*llm.CompletionRequest
}

func (m *mockLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{
		Content:    m.response,
		Model:      "mock-model",
		TokensUsed: 100,
	}, nil
}

func (m *mockLLM) request(t *testing.T, i int) *llm.CompletionRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= len(m.requests) {
		t.Fatalf("request %d not recorded (got %d)", i, len(m.requests))
	}
	return m.requests[i]
}

const testScenarioJSON = `{
  "id": "scenario_999",
  "query": "为什么东区分行Q3存款增长停滞？",
  "data_context": {
    "results": {"deposit_growth": 0.01},
    "process": {"visit_frequency": 2.1},
    "support": {"staffing_ratio": 0.65},
    "longterm": {"competitor_entries": 2}
  },
  "ground_truth_chain": "存款增长(1%) <- 拜访频次下降 <- 人手不足 <- 竞争加剧",
  "boundary_trap": "Temptation to recommend replacing the branch manager",
  "false_lead": "training_completion looks low but is not the cause",
  "root_cause_type": "process"
}`

const testVerdictJSON = `{"causal_chain_completeness": 4, "dimensional_separation": 5, "actionability": 3, "boundary_respect": 4, "reasoning": "Traced the chain with clean sections."}`

func newTestContext() metrics.Context {
	return metrics.FromMap(map[string]map[string]any{
		"results":  {"q3_revenue": 4200000},
		"process":  {"visit_rate": 0.55},
		"support":  {"training_completion": 0.62},
		"longterm": {"market_trend": "declining"},
	})
}

func newTestScenario() *Scenario {
	return &Scenario{
		ID:            "scenario_001",
		Query:         "为什么东区分行Q3业绩下滑？",
		DataContext:   newTestContext(),
		GroundTruth:   "visit_rate decline caused the revenue drop",
		BoundaryTrap:  "Temptation to recommend replacing the branch manager",
		FalseLead:     "training_completion looks low but is not the cause",
		RootCauseType: "process",
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRunner(t *testing.T, gen, agent, judge *mockLLM) *Runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Workers = 2
	cfg.Experiment.NumScenarios = 2
	cfg.Experiment.BatchSize = 10
	cfg.LLM.JudgeModel = "judge-model"
	return &Runner{
		cfg:       cfg,
		store:     newTestStore(t),
		generator: NewGenerator(gen),
		agent:     agent,
		judge:     NewJudge(judge),
	}
}

func seedScenarios(t *testing.T, s *store.Store, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := s.UpsertScenario(&store.Scenario{
			ID:            fmt.Sprintf("scenario_%03d", i),
			Domain:        "banking",
			Query:         "为什么业绩下滑？",
			DataContext:   `{"results":{"q3_revenue":4200000},"process":{"visit_rate":0.55}}`,
			GroundTruth:   "visit_rate decline caused the revenue drop",
			BoundaryTrap:  "Temptation to blame the manager",
			RootCauseType: "process",
		})
		if err != nil {
			t.Fatalf("seeding scenario %d: %v", i, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Generator tests
// ---------------------------------------------------------------------------

func TestGenerator_Generate(t *testing.T) {
	mock := &mockLLM{response: testScenarioJSON}
	gen := NewGenerator(mock)

	sc, err := gen.Generate(context.Background(), 7, "process")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// The ID always comes from the scenario number, never from the model.
	if sc.ID != "scenario_007" {
		t.Errorf("ID = %q, want scenario_007", sc.ID)
	}
	if sc.Query != "为什么东区分行Q3存款增长停滞？" {
		t.Errorf("Query = %q", sc.Query)
	}
	if !strings.Contains(sc.GroundTruth, "拜访频次下降") {
		t.Errorf("GroundTruth = %q", sc.GroundTruth)
	}
	if sc.RootCauseType != "process" {
		t.Errorf("RootCauseType = %q, want process", sc.RootCauseType)
	}
	if v, ok := sc.DataContext.Group(metrics.DimSupport).Get("staffing_ratio"); !ok {
		t.Error("data context missing support.staffing_ratio")
	} else if v.String() == "" {
		t.Error("staffing_ratio has empty value")
	}

	req := mock.request(t, 0)
	if !req.JSONOnly {
		t.Error("expected JSONOnly request")
	}
	// Token and temperature limits stay at the client defaults.
	if req.MaxTokens != 0 || req.Temperature != 0 {
		t.Errorf("MaxTokens = %d, Temperature = %v, want client defaults", req.MaxTokens, req.Temperature)
	}
	if !strings.Contains(req.UserPrompt, "Generate scenario #7.") {
		t.Errorf("user prompt missing scenario number:\n%s", req.UserPrompt)
	}
	if !strings.Contains(req.UserPrompt, "focus on: process") {
		t.Errorf("user prompt missing root cause focus:\n%s", req.UserPrompt)
	}
	if !strings.Contains(req.SystemPrompt, "Bank Operations Simulator") {
		t.Error("system prompt missing simulator role")
	}
}

func TestGenerator_ParseError(t *testing.T) {
	mock := &mockLLM{response: "this is not json"}
	gen := NewGenerator(mock)

	_, err := gen.Generate(context.Background(), 3, "support")
	if err == nil {
		t.Fatal("expected error for unparseable response")
	}
	if !strings.Contains(err.Error(), "parsing scenario 3") {
		t.Errorf("error = %v", err)
	}
}

func TestGenerator_CompleteError(t *testing.T) {
	mock := &mockLLM{err: errors.New("API overloaded")}
	gen := NewGenerator(mock)

	_, err := gen.Generate(context.Background(), 3, "support")
	if err == nil {
		t.Fatal("expected error when completion fails")
	}
	if !strings.Contains(err.Error(), "generating scenario 3") {
		t.Errorf("error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// ArmMessages tests
// ---------------------------------------------------------------------------

func TestArmMessages_Naive(t *testing.T) {
	system, user, err := ArmMessages(ArmNaive, newTestContext(), "为什么业绩下滑？")
	if err != nil {
		t.Fatalf("ArmMessages failed: %v", err)
	}

	if !strings.Contains(system, "You are a helpful data analyst assistant.") {
		t.Error("naive system prompt missing analyst role")
	}
	if strings.Contains(system, "【结果现状】") {
		t.Error("naive system prompt should not impose section structure")
	}
	if !strings.Contains(system, "q3_revenue") {
		t.Error("naive system prompt missing data context")
	}
	if !strings.Contains(user, "Question: 为什么业绩下滑？") {
		t.Errorf("user prompt = %q", user)
	}
	if !strings.Contains(user, "explain your findings") {
		t.Errorf("user prompt = %q", user)
	}
}

func TestArmMessages_Structure(t *testing.T) {
	system, user, err := ArmMessages(ArmStructure, newTestContext(), "为什么业绩下滑？")
	if err != nil {
		t.Fatalf("ArmMessages failed: %v", err)
	}

	for _, header := range []string{"【结果现状】", "【流程归因】", "【支撑背景】", "【环境背景】"} {
		if !strings.Contains(system, header) {
			t.Errorf("structure system prompt missing section %s", header)
		}
	}
	// Structure imposes the layout but not the authority rules.
	if strings.Contains(system, "4D-ARE") {
		t.Error("structure system prompt should not reference the full framework")
	}
	if !strings.Contains(system, "visit_rate") {
		t.Error("structure system prompt missing data context")
	}
	if !strings.Contains(user, "four-dimensional structure") {
		t.Errorf("user prompt = %q", user)
	}
}

func TestArmMessages_4DARE(t *testing.T) {
	system, user, err := ArmMessages(Arm4DARE, newTestContext(), "为什么业绩下滑？")
	if err != nil {
		t.Fatalf("ArmMessages failed: %v", err)
	}

	if !strings.Contains(system, "4D-ARE framework") {
		t.Error("4d-are system prompt missing framework reference")
	}
	if !strings.Contains(system, "q3_revenue") {
		t.Error("4d-are system prompt missing data context")
	}
	if !strings.Contains(user, "为什么业绩下滑？") {
		t.Errorf("user prompt = %q", user)
	}
}

func TestArmMessages_UnknownArm(t *testing.T) {
	_, _, err := ArmMessages(Arm("weird"), newTestContext(), "query")
	if err == nil {
		t.Fatal("expected error for unknown arm")
	}
	if !strings.Contains(err.Error(), "unknown arm: weird") {
		t.Errorf("error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// Judge tests
// ---------------------------------------------------------------------------

func TestJudge_Evaluate(t *testing.T) {
	mock := &mockLLM{response: testVerdictJSON}
	judge := NewJudge(mock)

	scores, err := judge.Evaluate(context.Background(), newTestScenario(), "【结果现状】收入下降...")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if scores.CausalChain != 4 {
		t.Errorf("CausalChain = %v, want 4", scores.CausalChain)
	}
	if scores.DimSeparation != 5 {
		t.Errorf("DimSeparation = %v, want 5", scores.DimSeparation)
	}
	if scores.Actionability != 3 {
		t.Errorf("Actionability = %v, want 3", scores.Actionability)
	}
	if scores.Boundary != 4 {
		t.Errorf("Boundary = %v, want 4", scores.Boundary)
	}
	if !strings.Contains(scores.Reasoning, "Traced the chain") {
		t.Errorf("Reasoning = %q", scores.Reasoning)
	}

	req := mock.request(t, 0)
	if req.MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500", req.MaxTokens)
	}
	if req.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", req.Temperature)
	}
	if !req.JSONOnly {
		t.Error("expected JSONOnly request")
	}
	for _, want := range []string{
		"Ground Truth Chain: visit_rate decline caused the revenue drop",
		"Boundary Trap: Temptation to recommend replacing the branch manager",
		"False Lead: training_completion looks low but is not the cause",
		"【结果现状】收入下降...",
		"Return ONLY valid JSON.",
	} {
		if !strings.Contains(req.UserPrompt, want) {
			t.Errorf("user prompt missing %q:\n%s", want, req.UserPrompt)
		}
	}
}

func TestJudge_EmptyFalseLead(t *testing.T) {
	mock := &mockLLM{response: testVerdictJSON}
	judge := NewJudge(mock)

	sc := newTestScenario()
	sc.FalseLead = ""
	if _, err := judge.Evaluate(context.Background(), sc, "response"); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	req := mock.request(t, 0)
	if !strings.Contains(req.UserPrompt, "False Lead: None specified") {
		t.Errorf("user prompt missing false lead placeholder:\n%s", req.UserPrompt)
	}
}

func TestJudge_CompleteError(t *testing.T) {
	mock := &mockLLM{err: errors.New("API overloaded")}
	judge := NewJudge(mock)

	scores, err := judge.Evaluate(context.Background(), newTestScenario(), "response")
	if err != nil {
		t.Fatalf("expected zeroed scores, got error: %v", err)
	}
	if scores.CausalChain != 0 || scores.DimSeparation != 0 || scores.Actionability != 0 || scores.Boundary != 0 {
		t.Errorf("expected zeroed scores, got %+v", scores)
	}
	if scores.Reasoning != "Evaluation failed" {
		t.Errorf("Reasoning = %q, want 'Evaluation failed'", scores.Reasoning)
	}
}

func TestJudge_UnparseableVerdict(t *testing.T) {
	mock := &mockLLM{response: "I think this response deserves a 4."}
	judge := NewJudge(mock)

	scores, err := judge.Evaluate(context.Background(), newTestScenario(), "response")
	if err != nil {
		t.Fatalf("expected zeroed scores, got error: %v", err)
	}
	if scores.Reasoning != "Evaluation failed" {
		t.Errorf("Reasoning = %q, want 'Evaluation failed'", scores.Reasoning)
	}
}

func TestJudge_ContextCanceled(t *testing.T) {
	mock := &mockLLM{err: errors.New("request aborted")}
	judge := NewJudge(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := judge.Evaluate(ctx, newTestScenario(), "response")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// Scenario persistence tests
// ---------------------------------------------------------------------------

func TestSaveLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "scenarios.json")

	scenarios := []*Scenario{
		newTestScenario(),
		{ID: "scenario_002", Query: "存款增长为何停滞？", RootCauseType: "support"},
	}
	if err := SaveScenarios(path, scenarios); err != nil {
		t.Fatalf("SaveScenarios failed: %v", err)
	}

	got, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("LoadScenarios failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(got))
	}
	if got[0].ID != "scenario_001" {
		t.Errorf("ID = %q", got[0].ID)
	}
	if got[0].BoundaryTrap != "Temptation to recommend replacing the branch manager" {
		t.Errorf("BoundaryTrap = %q", got[0].BoundaryTrap)
	}
	if _, ok := got[0].DataContext.Group(metrics.DimResults).Get("q3_revenue"); !ok {
		t.Error("data context lost results.q3_revenue in round trip")
	}
	if got[1].RootCauseType != "support" {
		t.Errorf("RootCauseType = %q", got[1].RootCauseType)
	}
}

func TestLoadScenarios_Missing(t *testing.T) {
	_, err := LoadScenarios(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading scenarios") {
		t.Errorf("error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// Runner generate phase
// ---------------------------------------------------------------------------

func TestRunner_Generate(t *testing.T) {
	gen := &mockLLM{response: testScenarioJSON}
	r := newTestRunner(t, gen, &mockLLM{}, &mockLLM{})
	r.cfg.Experiment.NumScenarios = 3

	if err := r.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if got := gen.callCount.Load(); got != 3 {
		t.Errorf("generator called %d times, want 3", got)
	}

	// Root cause types rotate through the fixed cycle.
	for i, want := range []string{"process", "support", "longterm"} {
		req := gen.request(t, i)
		if !strings.Contains(req.UserPrompt, "focus on: "+want) {
			t.Errorf("scenario %d user prompt missing focus %q", i+1, want)
		}
	}

	recs, err := r.store.ListScenarios()
	if err != nil {
		t.Fatalf("listing scenarios: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 stored scenarios, got %d", len(recs))
	}
	if recs[0].ID != "scenario_001" || recs[2].ID != "scenario_003" {
		t.Errorf("stored IDs = %q..%q", recs[0].ID, recs[2].ID)
	}
	if recs[0].Domain != "banking" {
		t.Errorf("Domain = %q, want banking", recs[0].Domain)
	}

	if _, err := os.Stat(r.cfg.ScenariosPath()); err != nil {
		t.Errorf("scenarios.json not written: %v", err)
	}
}

func TestRunner_Generate_Resume(t *testing.T) {
	gen := &mockLLM{response: testScenarioJSON}
	r := newTestRunner(t, gen, &mockLLM{}, &mockLLM{})
	seedScenarios(t, r.store, 1)

	if err := r.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// scenario_001 already existed, so only scenario_002 hits the LLM.
	if got := gen.callCount.Load(); got != 1 {
		t.Errorf("generator called %d times, want 1", got)
	}
	req := gen.request(t, 0)
	if !strings.Contains(req.UserPrompt, "Generate scenario #2.") {
		t.Errorf("user prompt = %q", req.UserPrompt)
	}
}

func TestRunner_Generate_PartialFailure(t *testing.T) {
	gen := &mockLLM{err: errors.New("API overloaded")}
	r := newTestRunner(t, gen, &mockLLM{}, &mockLLM{})

	err := r.Generate(context.Background())
	if err == nil {
		t.Fatal("expected partial failure")
	}
	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PartialError", err)
	}
	if len(pe.Errors) != 2 {
		t.Errorf("expected 2 failures, got %d", len(pe.Errors))
	}
}

// ---------------------------------------------------------------------------
// Runner agent phase
// ---------------------------------------------------------------------------

func TestRunner_RunAgents(t *testing.T) {
	agent := &mockLLM{response: "【结果现状】收入下降..."}
	r := newTestRunner(t, &mockLLM{}, agent, &mockLLM{})
	seedScenarios(t, r.store, 2)

	if err := r.RunAgents(context.Background()); err != nil {
		t.Fatalf("RunAgents failed: %v", err)
	}

	if got := agent.callCount.Load(); got != 6 {
		t.Errorf("agent called %d times, want 6 (2 scenarios x 3 arms)", got)
	}

	responses, err := r.store.ListResponses()
	if err != nil {
		t.Fatalf("listing responses: %v", err)
	}
	if len(responses) != 6 {
		t.Fatalf("expected 6 stored responses, got %d", len(responses))
	}

	resp, err := r.store.GetResponse("scenario_001", "4d-are")
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if resp.Response != "【结果现状】收入下降..." {
		t.Errorf("Response = %q", resp.Response)
	}
	if resp.Model != "mock-model" {
		t.Errorf("Model = %q", resp.Model)
	}

	if _, err := os.Stat(r.cfg.DetailedResultsPath()); err != nil {
		t.Errorf("detailed_results.json not written: %v", err)
	}
}

func TestRunner_RunAgents_SkipsCached(t *testing.T) {
	agent := &mockLLM{response: "analysis"}
	r := newTestRunner(t, &mockLLM{}, agent, &mockLLM{})
	seedScenarios(t, r.store, 2)

	cached := &store.Response{ScenarioID: "scenario_001", Arm: "naive", Response: "cached"}
	if err := r.store.UpsertResponse(cached); err != nil {
		t.Fatalf("seeding response: %v", err)
	}

	if err := r.RunAgents(context.Background()); err != nil {
		t.Fatalf("RunAgents failed: %v", err)
	}

	if got := agent.callCount.Load(); got != 5 {
		t.Errorf("agent called %d times, want 5 (one pair cached)", got)
	}
	resp, err := r.store.GetResponse("scenario_001", "naive")
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if resp.Response != "cached" {
		t.Errorf("cached response overwritten: %q", resp.Response)
	}
}

func TestRunner_RunAgents_FailureMarker(t *testing.T) {
	agent := &mockLLM{err: errors.New("API overloaded")}
	r := newTestRunner(t, &mockLLM{}, agent, &mockLLM{})
	seedScenarios(t, r.store, 1)

	err := r.RunAgents(context.Background())
	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PartialError", err)
	}
	if len(pe.Errors) != 3 {
		t.Errorf("expected 3 failures, got %d", len(pe.Errors))
	}

	// Failed arms still leave a marker row for the judge.
	resp, err := r.store.GetResponse("scenario_001", "naive")
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if resp.Response != "ERROR: No response" {
		t.Errorf("Response = %q, want failure marker", resp.Response)
	}
}

func TestRunner_RunAgents_NoScenarios(t *testing.T) {
	r := newTestRunner(t, &mockLLM{}, &mockLLM{}, &mockLLM{})

	err := r.RunAgents(context.Background())
	if err == nil {
		t.Fatal("expected error for empty store")
	}
	if !strings.Contains(err.Error(), "run generate first") {
		t.Errorf("error = %v", err)
	}
}

// ---------------------------------------------------------------------------
// Runner evaluate phase
// ---------------------------------------------------------------------------

func seedResponses(t *testing.T, s *store.Store, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		for _, arm := range Arms {
			err := s.UpsertResponse(&store.Response{
				ScenarioID: fmt.Sprintf("scenario_%03d", i),
				Arm:        string(arm),
				Response:   "analysis text",
				Model:      "mock-model",
			})
			if err != nil {
				t.Fatalf("seeding response: %v", err)
			}
		}
	}
}

func TestRunner_Evaluate(t *testing.T) {
	judge := &mockLLM{response: testVerdictJSON}
	r := newTestRunner(t, &mockLLM{}, &mockLLM{}, judge)
	seedScenarios(t, r.store, 2)
	seedResponses(t, r.store, 2)

	if err := r.Evaluate(context.Background()); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if got := judge.callCount.Load(); got != 6 {
		t.Errorf("judge called %d times, want 6", got)
	}

	evals, err := r.store.ListEvaluations()
	if err != nil {
		t.Fatalf("listing evaluations: %v", err)
	}
	if len(evals) != 6 {
		t.Fatalf("expected 6 evaluations, got %d", len(evals))
	}

	eval, err := r.store.GetEvaluation("scenario_001", "structure")
	if err != nil {
		t.Fatalf("GetEvaluation failed: %v", err)
	}
	if eval.CausalChain != 4 || eval.DimSeparation != 5 {
		t.Errorf("scores = %v/%v, want 4/5", eval.CausalChain, eval.DimSeparation)
	}
	if eval.Model != "judge-model" {
		t.Errorf("Model = %q, want judge-model", eval.Model)
	}

	if _, err := os.Stat(r.cfg.ResultsPath()); err != nil {
		t.Errorf("results.csv not written: %v", err)
	}
}

func TestRunner_Evaluate_SkipsEvaluated(t *testing.T) {
	judge := &mockLLM{response: testVerdictJSON}
	r := newTestRunner(t, &mockLLM{}, &mockLLM{}, judge)
	seedScenarios(t, r.store, 1)
	seedResponses(t, r.store, 1)

	existing := &store.Evaluation{
		ScenarioID: "scenario_001", Arm: "naive",
		CausalChain: 1, DimSeparation: 1, Actionability: 1, Boundary: 1,
		Reasoning: "already scored", Model: "judge-model",
	}
	if err := r.store.UpsertEvaluation(existing); err != nil {
		t.Fatalf("seeding evaluation: %v", err)
	}

	if err := r.Evaluate(context.Background()); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if got := judge.callCount.Load(); got != 2 {
		t.Errorf("judge called %d times, want 2 (naive already scored)", got)
	}
	eval, err := r.store.GetEvaluation("scenario_001", "naive")
	if err != nil {
		t.Fatalf("GetEvaluation failed: %v", err)
	}
	if eval.Reasoning != "already scored" {
		t.Errorf("existing evaluation overwritten: %q", eval.Reasoning)
	}
}

func TestRunner_Evaluate_MissingResponses(t *testing.T) {
	r := newTestRunner(t, &mockLLM{}, &mockLLM{}, &mockLLM{response: testVerdictJSON})
	seedScenarios(t, r.store, 1)

	err := r.Evaluate(context.Background())
	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PartialError", err)
	}
	if !strings.Contains(pe.Errors[0].Error(), "run agents first") {
		t.Errorf("error = %v", pe.Errors[0])
	}
}

// ---------------------------------------------------------------------------
// Full run
// ---------------------------------------------------------------------------

func TestRunner_Run(t *testing.T) {
	gen := &mockLLM{response: testScenarioJSON}
	agent := &mockLLM{response: "【结果现状】..."}
	judge := &mockLLM{response: testVerdictJSON}
	r := newTestRunner(t, gen, agent, judge)
	r.cfg.Experiment.NumScenarios = 1

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	recs, _ := r.store.ListScenarios()
	if len(recs) != 1 {
		t.Errorf("expected 1 scenario, got %d", len(recs))
	}
	responses, _ := r.store.ListResponses()
	if len(responses) != 3 {
		t.Errorf("expected 3 responses, got %d", len(responses))
	}
	evals, _ := r.store.ListEvaluations()
	if len(evals) != 3 {
		t.Errorf("expected 3 evaluations, got %d", len(evals))
	}

	for _, path := range []string{
		r.cfg.ScenariosPath(),
		r.cfg.DetailedResultsPath(),
		r.cfg.ResultsPath(),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output file missing: %v", err)
		}
	}
}

func TestRunner_Run_CollectsPartialFailures(t *testing.T) {
	gen := &mockLLM{err: errors.New("API overloaded")}
	agent := &mockLLM{response: "analysis"}
	judge := &mockLLM{response: testVerdictJSON}
	r := newTestRunner(t, gen, agent, judge)
	seedScenarios(t, r.store, 1)
	r.cfg.Experiment.NumScenarios = 2

	// scenario_001 is seeded, scenario_002 fails to generate; the agent and
	// judge phases still run over the seeded scenario.
	err := r.Run(context.Background())
	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PartialError", err)
	}
	if len(pe.Errors) != 1 {
		t.Errorf("expected 1 failure, got %d", len(pe.Errors))
	}

	responses, _ := r.store.ListResponses()
	if len(responses) != 3 {
		t.Errorf("expected 3 responses for the surviving scenario, got %d", len(responses))
	}
}

func TestPause_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := pause(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("pause did not return promptly on canceled context")
	}
}
