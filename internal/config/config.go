package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Template    string // domain template ID
	CatalogFile string // optional YAML file with custom templates
	OutputDir   string
	Format      string // "markdown" or "json"
	DBPath      string
	Workers     int
	Verbose     bool
	ConfigFile  string

	LLM        LLMConfig
	Source     SourceConfig
	Experiment ExperimentConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider     string // "openai" or "anthropic"
	BaseURL      string // OpenAI-compatible endpoint override
	OpenAIKey    string
	AnthropicKey string

	// Per-role models. The agent answers attribution queries, the
	// generator produces synthetic scenarios, the judge scores responses.
	AgentModel     string
	GeneratorModel string
	JudgeModel     string

	MaxRetries int
	RetryDelay time.Duration
}

// SourceConfig holds metric source configuration.
type SourceConfig struct {
	Type       string // "demo", "mysql", "postgres", "sqlite", or "csv"
	CSVPath    string
	SQLitePath string
	MySQL      MySQLConfig
	Postgres   PostgresConfig
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN returns a go-sql-driver/mysql connection string.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns a pgx-compatible connection URL.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ExperimentConfig holds experiment harness settings.
type ExperimentConfig struct {
	NumScenarios int
	BatchSize    int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Template:  "banking",
		OutputDir: "./output",
		Format:    "markdown",
		DBPath:    "./4d-are.db",
		Workers:   4,
		LLM: LLMConfig{
			Provider:       "openai",
			AgentModel:     "gpt-4o",
			GeneratorModel: "gpt-4-turbo",
			JudgeModel:     "gpt-4o",
			MaxRetries:     3,
			RetryDelay:     2 * time.Second,
		},
		Source: SourceConfig{
			Type:    "demo",
			CSVPath: "./data/metrics.csv",
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Database: "analytics",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Database: "analytics",
				SSLMode:  "disable",
			},
		},
		Experiment: ExperimentConfig{
			NumScenarios: 150,
			BatchSize:    10,
		},
	}
}

// ScenariosPath returns the location of the generated scenarios file.
func (c *Config) ScenariosPath() string {
	return filepath.Join(c.OutputDir, "scenarios.json")
}

// ResultsPath returns the location of the experiment results CSV.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.OutputDir, "results.csv")
}

// DetailedResultsPath returns the location of the detailed results JSON.
func (c *Config) DetailedResultsPath() string {
	return filepath.Join(c.OutputDir, "detailed_results.json")
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.Format != "markdown" && c.Format != "json" {
		return fmt.Errorf("format must be 'markdown' or 'json', got %q", c.Format)
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
		return fmt.Errorf("llm provider must be 'openai' or 'anthropic', got %q", c.LLM.Provider)
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when using openai provider")
		}
	case "anthropic":
		if c.LLM.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when using anthropic provider")
		}
	}
	switch c.Source.Type {
	case "demo", "mysql", "postgres", "sqlite", "csv":
	default:
		return fmt.Errorf("source type must be one of demo, mysql, postgres, sqlite, csv; got %q", c.Source.Type)
	}
	if c.Experiment.NumScenarios < 1 {
		return fmt.Errorf("num-scenarios must be >= 1, got %d", c.Experiment.NumScenarios)
	}
	if c.Experiment.BatchSize < 1 {
		return fmt.Errorf("batch-size must be >= 1, got %d", c.Experiment.BatchSize)
	}
	return nil
}
