package store

import "fmt"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		query TEXT NOT NULL,
		data_context TEXT NOT NULL,
		ground_truth TEXT,
		boundary_trap TEXT,
		false_lead TEXT,
		root_cause_type TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario_id TEXT NOT NULL REFERENCES scenarios(id),
		arm TEXT NOT NULL,
		response TEXT NOT NULL,
		model TEXT,
		tokens_used INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(scenario_id, arm)
	)`,

	`CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario_id TEXT NOT NULL REFERENCES scenarios(id),
		arm TEXT NOT NULL,
		causal_chain_completeness REAL NOT NULL,
		dimensional_separation REAL NOT NULL,
		actionability REAL NOT NULL,
		boundary_respect REAL NOT NULL,
		reasoning TEXT,
		model TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(scenario_id, arm)
	)`,

	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	)`,
}

func (s *Store) migrate() error {
	// Create schema_version table if it doesn't exist
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("getting schema version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("updating schema version to %d: %w", i+1, err)
		}
	}

	return nil
}
