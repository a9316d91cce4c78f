package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/ybeven/4D-ARE/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "four-d-are",
	Short: "Attribution-Driven Agent Requirements Engineering for LLMs",
	Long: `4D-ARE analyzes business metric questions with a four-dimensional
attribution framework: results (what happened), process (controllable
behaviors), support (organizational capacity), and long-term (environmental
trends). An LLM agent traces the causal chain across the dimensions and
reports its findings in fixed sections, keeping recommendations inside the
controllable process dimension.

Metric contexts come from JSON files or from a configured source (demo,
MySQL, PostgreSQL, SQLite, CSV). Any source can also be served to MCP
clients over stdio. The experiment subcommands run a synthetic ablation
study that measures what the framework buys over plain prompting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to YAML config file")
	pf.String("template", "banking", "Domain template: banking, healthcare, ecommerce, or a catalog entry")
	pf.String("catalog-file", "", "YAML file with additional domain templates")
	pf.String("output-dir", "./output", "Directory for reports and experiment artifacts")
	pf.String("format", "markdown", "Report format: markdown or json")
	pf.String("db-path", "./4d-are.db", "SQLite database for experiment state")
	pf.Int("workers", 4, "Concurrent workers for experiment phases")
	pf.Bool("verbose", false, "Verbose output")
	pf.String("llm-provider", "openai", "LLM provider: openai or anthropic")
	pf.String("openai-api-key", "", "OpenAI API key (or OPENAI_API_KEY)")
	pf.String("anthropic-api-key", "", "Anthropic API key (or ANTHROPIC_API_KEY)")
	pf.String("openai-base-url", "", "Base URL for OpenAI-compatible endpoints")
	pf.String("agent-model", "gpt-4o", "Model for attribution analysis")
	pf.String("generator-model", "gpt-4-turbo", "Model for scenario generation")
	pf.String("judge-model", "gpt-4o", "Model for response evaluation")
	pf.String("source", "demo", "Metric source: demo, mysql, postgres, sqlite, or csv")
	pf.String("csv-path", "./data/metrics.csv", "Metrics CSV file for the csv source")
	pf.String("sqlite-path", "", "SQLite database file for the sqlite source")
	pf.Int("num-scenarios", 150, "Scenarios to generate for the experiment")
	pf.Int("batch-size", 10, "Scenario generation batch size")

	flags := []string{
		"config", "template", "catalog-file", "output-dir", "format",
		"db-path", "workers", "verbose",
		"llm-provider", "openai-api-key", "anthropic-api-key", "openai-base-url",
		"agent-model", "generator-model", "judge-model",
		"source", "csv-path", "sqlite-path",
		"num-scenarios", "batch-size",
	}
	for _, name := range flags {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
}

// initConfig loads configuration with precedence: flags > env > config file >
// defaults. Called by cobra before any command runs.
func initConfig() {
	cfg = config.DefaultConfig()

	// A .env file in the working directory supplies missing variables.
	// Variables already set in the process environment win.
	_ = gotenv.Load()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("")
	viper.AutomaticEnv()

	_ = viper.BindEnv("openai-api-key", "OPENAI_API_KEY")
	_ = viper.BindEnv("anthropic-api-key", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("openai-base-url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("llm-provider", "LLM_PROVIDER")
	_ = viper.BindEnv("agent-model", "MODEL_AGENT")
	_ = viper.BindEnv("generator-model", "MODEL_GENERATOR")
	_ = viper.BindEnv("judge-model", "MODEL_JUDGE")
	_ = viper.BindEnv("source", "MCP_SERVER_TYPE")
	_ = viper.BindEnv("csv-path", "CSV_FILE_PATH")
	_ = viper.BindEnv("sqlite-path", "SQLITE_PATH")
	_ = viper.BindEnv("output-dir", "OUTPUT_DIR")
	_ = viper.BindEnv("db-path", "DB_PATH")
	_ = viper.BindEnv("workers", "WORKERS")
	_ = viper.BindEnv("num-scenarios", "NUM_SCENARIOS")
	_ = viper.BindEnv("batch-size", "BATCH_SIZE")
	_ = viper.BindEnv("mysql-host", "MYSQL_HOST")
	_ = viper.BindEnv("mysql-port", "MYSQL_PORT")
	_ = viper.BindEnv("mysql-user", "MYSQL_USER")
	_ = viper.BindEnv("mysql-password", "MYSQL_PASSWORD")
	_ = viper.BindEnv("mysql-database", "MYSQL_DATABASE")
	_ = viper.BindEnv("postgres-host", "POSTGRES_HOST")
	_ = viper.BindEnv("postgres-port", "POSTGRES_PORT")
	_ = viper.BindEnv("postgres-user", "POSTGRES_USER")
	_ = viper.BindEnv("postgres-password", "POSTGRES_PASSWORD")
	_ = viper.BindEnv("postgres-database", "POSTGRES_DATABASE")

	_ = viper.ReadInConfig()

	// Apply viper values to config
	if v := viper.GetString("config"); v != "" {
		cfg.ConfigFile = v
	}
	if v := viper.GetString("template"); v != "" {
		cfg.Template = v
	}
	if v := viper.GetString("catalog-file"); v != "" {
		cfg.CatalogFile = v
	}
	if v := viper.GetString("output-dir"); v != "" {
		cfg.OutputDir = v
	}
	if v := viper.GetString("format"); v != "" {
		cfg.Format = v
	}
	if v := viper.GetString("db-path"); v != "" {
		cfg.DBPath = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Workers = v
	}
	cfg.Verbose = viper.GetBool("verbose")
	if v := viper.GetString("llm-provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("openai-api-key"); v != "" {
		cfg.LLM.OpenAIKey = v
	}
	if v := viper.GetString("anthropic-api-key"); v != "" {
		cfg.LLM.AnthropicKey = v
	}
	if v := viper.GetString("openai-base-url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetString("agent-model"); v != "" {
		cfg.LLM.AgentModel = v
	}
	if v := viper.GetString("generator-model"); v != "" {
		cfg.LLM.GeneratorModel = v
	}
	if v := viper.GetString("judge-model"); v != "" {
		cfg.LLM.JudgeModel = v
	}
	if v := viper.GetString("source"); v != "" {
		cfg.Source.Type = v
	}
	if v := viper.GetString("csv-path"); v != "" {
		cfg.Source.CSVPath = v
	}
	if v := viper.GetString("sqlite-path"); v != "" {
		cfg.Source.SQLitePath = v
	}
	if v := viper.GetInt("num-scenarios"); v > 0 {
		cfg.Experiment.NumScenarios = v
	}
	if v := viper.GetInt("batch-size"); v > 0 {
		cfg.Experiment.BatchSize = v
	}
	if v := viper.GetString("mysql-host"); v != "" {
		cfg.Source.MySQL.Host = v
	}
	if v := viper.GetInt("mysql-port"); v > 0 {
		cfg.Source.MySQL.Port = v
	}
	if v := viper.GetString("mysql-user"); v != "" {
		cfg.Source.MySQL.User = v
	}
	if v := viper.GetString("mysql-password"); v != "" {
		cfg.Source.MySQL.Password = v
	}
	if v := viper.GetString("mysql-database"); v != "" {
		cfg.Source.MySQL.Database = v
	}
	if v := viper.GetString("postgres-host"); v != "" {
		cfg.Source.Postgres.Host = v
	}
	if v := viper.GetInt("postgres-port"); v > 0 {
		cfg.Source.Postgres.Port = v
	}
	if v := viper.GetString("postgres-user"); v != "" {
		cfg.Source.Postgres.User = v
	}
	if v := viper.GetString("postgres-password"); v != "" {
		cfg.Source.Postgres.Password = v
	}
	if v := viper.GetString("postgres-database"); v != "" {
		cfg.Source.Postgres.Database = v
	}
}
