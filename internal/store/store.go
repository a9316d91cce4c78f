package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Scenario is a stored experiment scenario.
type Scenario struct {
	ID            string
	Domain        string
	Query         string
	DataContext   string // JSON-encoded dimension groups
	GroundTruth   string
	BoundaryTrap  string
	FalseLead     string
	RootCauseType string
	CreatedAt     time.Time
}

// Response is a stored prompt-arm response for a scenario.
type Response struct {
	ID         int64
	ScenarioID string
	Arm        string
	Response   string
	Model      string
	TokensUsed int
	CreatedAt  time.Time
}

// Evaluation is a stored judge evaluation of one response.
type Evaluation struct {
	ID            int64
	ScenarioID    string
	Arm           string
	CausalChain   float64
	DimSeparation float64
	Actionability float64
	Boundary      float64
	Reasoning     string
	Model         string
	CreatedAt     time.Time
}

// Store provides database operations for the application.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// UpsertScenario inserts or updates a scenario.
func (s *Store) UpsertScenario(sc *Scenario) error {
	_, err := s.db.Exec(`
		INSERT INTO scenarios (id, domain, query, data_context, ground_truth, boundary_trap, false_lead, root_cause_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			domain=excluded.domain,
			query=excluded.query,
			data_context=excluded.data_context,
			ground_truth=excluded.ground_truth,
			boundary_trap=excluded.boundary_trap,
			false_lead=excluded.false_lead,
			root_cause_type=excluded.root_cause_type
	`, sc.ID, sc.Domain, sc.Query, sc.DataContext, sc.GroundTruth, sc.BoundaryTrap, sc.FalseLead, sc.RootCauseType)
	return err
}

// GetScenario retrieves a single scenario by ID.
func (s *Store) GetScenario(id string) (*Scenario, error) {
	sc := &Scenario{}
	err := s.db.QueryRow(`
		SELECT id, domain, query, data_context, ground_truth, boundary_trap, false_lead, root_cause_type, created_at
		FROM scenarios WHERE id = ?`, id).Scan(
		&sc.ID, &sc.Domain, &sc.Query, &sc.DataContext, &sc.GroundTruth,
		&sc.BoundaryTrap, &sc.FalseLead, &sc.RootCauseType, &sc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// ListScenarios retrieves all scenarios ordered by ID.
func (s *Store) ListScenarios() ([]*Scenario, error) {
	rows, err := s.db.Query(`
		SELECT id, domain, query, data_context, ground_truth, boundary_trap, false_lead, root_cause_type, created_at
		FROM scenarios ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []*Scenario
	for rows.Next() {
		sc := &Scenario{}
		if err := rows.Scan(&sc.ID, &sc.Domain, &sc.Query, &sc.DataContext, &sc.GroundTruth,
			&sc.BoundaryTrap, &sc.FalseLead, &sc.RootCauseType, &sc.CreatedAt); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, rows.Err()
}

// UpsertResponse inserts or updates an arm response.
func (s *Store) UpsertResponse(r *Response) error {
	_, err := s.db.Exec(`
		INSERT INTO responses (scenario_id, arm, response, model, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scenario_id, arm) DO UPDATE SET
			response=excluded.response,
			model=excluded.model,
			tokens_used=excluded.tokens_used,
			created_at=CURRENT_TIMESTAMP
	`, r.ScenarioID, r.Arm, r.Response, r.Model, r.TokensUsed)
	return err
}

// GetResponse retrieves the response for a scenario and arm.
func (s *Store) GetResponse(scenarioID, arm string) (*Response, error) {
	r := &Response{}
	err := s.db.QueryRow(`
		SELECT id, scenario_id, arm, response, model, tokens_used, created_at
		FROM responses WHERE scenario_id = ? AND arm = ?`, scenarioID, arm).Scan(
		&r.ID, &r.ScenarioID, &r.Arm, &r.Response, &r.Model, &r.TokensUsed, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListResponses retrieves all responses ordered by scenario and arm.
func (s *Store) ListResponses() ([]*Response, error) {
	rows, err := s.db.Query(`
		SELECT id, scenario_id, arm, response, model, tokens_used, created_at
		FROM responses ORDER BY scenario_id, arm`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []*Response
	for rows.Next() {
		r := &Response{}
		if err := rows.Scan(&r.ID, &r.ScenarioID, &r.Arm, &r.Response,
			&r.Model, &r.TokensUsed, &r.CreatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// UpsertEvaluation inserts or updates a judge evaluation.
func (s *Store) UpsertEvaluation(e *Evaluation) error {
	_, err := s.db.Exec(`
		INSERT INTO evaluations (scenario_id, arm, causal_chain_completeness, dimensional_separation,
			actionability, boundary_respect, reasoning, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(scenario_id, arm) DO UPDATE SET
			causal_chain_completeness=excluded.causal_chain_completeness,
			dimensional_separation=excluded.dimensional_separation,
			actionability=excluded.actionability,
			boundary_respect=excluded.boundary_respect,
			reasoning=excluded.reasoning,
			model=excluded.model,
			created_at=CURRENT_TIMESTAMP
	`, e.ScenarioID, e.Arm, e.CausalChain, e.DimSeparation,
		e.Actionability, e.Boundary, e.Reasoning, e.Model)
	return err
}

// GetEvaluation retrieves the evaluation for a scenario and arm.
func (s *Store) GetEvaluation(scenarioID, arm string) (*Evaluation, error) {
	e := &Evaluation{}
	err := s.db.QueryRow(`
		SELECT id, scenario_id, arm, causal_chain_completeness, dimensional_separation,
			actionability, boundary_respect, reasoning, model, created_at
		FROM evaluations WHERE scenario_id = ? AND arm = ?`, scenarioID, arm).Scan(
		&e.ID, &e.ScenarioID, &e.Arm, &e.CausalChain, &e.DimSeparation,
		&e.Actionability, &e.Boundary, &e.Reasoning, &e.Model, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEvaluations retrieves all evaluations ordered by scenario and arm.
func (s *Store) ListEvaluations() ([]*Evaluation, error) {
	rows, err := s.db.Query(`
		SELECT id, scenario_id, arm, causal_chain_completeness, dimensional_separation,
			actionability, boundary_respect, reasoning, model, created_at
		FROM evaluations ORDER BY scenario_id, arm`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evals []*Evaluation
	for rows.Next() {
		e := &Evaluation{}
		if err := rows.Scan(&e.ID, &e.ScenarioID, &e.Arm, &e.CausalChain, &e.DimSeparation,
			&e.Actionability, &e.Boundary, &e.Reasoning, &e.Model, &e.CreatedAt); err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}
