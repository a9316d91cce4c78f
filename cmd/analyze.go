package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ybeven/4D-ARE/internal/attribution"
	"github.com/ybeven/4D-ARE/internal/llm"
	"github.com/ybeven/4D-ARE/internal/metrics"
	"github.com/ybeven/4D-ARE/internal/sources"
)

var analyzeDataFile string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <query>",
	Short: "Analyze a metric question with the 4D attribution framework",
	Long: `Renders the domain template and metric context into prompts, asks the
configured LLM for a four-dimensional attribution analysis, and prints the
sectioned result.

The data context comes from --data (a JSON file of dimension groups) or,
when omitted, from the configured metric source (--source). The default
demo source needs no setup.

Exit codes:
  0 - Success
  2 - Fatal error (LLM or source failure)
  3 - Configuration error`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}

		catalog, err := loadCatalog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}
		tmpl, err := catalog.Get(cfg.Template)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}

		data, err := loadDataContext(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading data context: %v\n", err)
			os.Exit(2)
		}

		client, err := newLLMClient(cfg.LLM.AgentModel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}

		agent := attribution.NewAgent(client, tmpl)
		result, err := agent.Analyze(cmd.Context(), args[0], data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: analysis failed: %v\n", err)
			os.Exit(2)
		}

		fmt.Fprintf(os.Stdout, "Query: %s\n\n", args[0])
		fmt.Fprintln(os.Stdout, result.Analysis)
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "\nmodel=%s tokens=%d\n", result.Model, result.TokensUsed)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDataFile, "data", "", "JSON file with the metric data context")
	rootCmd.AddCommand(analyzeCmd)
}

// loadDataContext resolves the metric context for an analysis: an explicit
// --data file wins, otherwise the configured source is queried.
func loadDataContext(ctx context.Context) (metrics.Context, error) {
	if analyzeDataFile != "" {
		return metrics.ParseFile(analyzeDataFile)
	}

	src, closeSource, err := newSource()
	if err != nil {
		return metrics.Context{}, err
	}
	if closeSource != nil {
		defer closeSource()
	}

	if cfg.Source.Type == "demo" {
		fmt.Fprintln(os.Stderr, "Using demo data context. Use --data to provide your own.")
	}
	return src.Fetch(ctx)
}

// newSource builds the configured metric source. The returned close func is
// nil for sources that hold no connection.
func newSource() (sources.Source, func() error, error) {
	switch cfg.Source.Type {
	case "demo":
		demo, err := sources.NewDemo("")
		if err != nil {
			return nil, nil, err
		}
		return demo, nil, nil
	case "mysql":
		sq, err := sources.OpenSQL("mysql", cfg.Source.MySQL.DSN(), nil)
		if err != nil {
			return nil, nil, err
		}
		return sq, sq.Close, nil
	case "postgres":
		sq, err := sources.OpenSQL("pgx", cfg.Source.Postgres.DSN(), nil)
		if err != nil {
			return nil, nil, err
		}
		return sq, sq.Close, nil
	case "sqlite":
		sq, err := sources.OpenSQL("sqlite", cfg.Source.SQLitePath, nil)
		if err != nil {
			return nil, nil, err
		}
		return sq, sq.Close, nil
	case "csv":
		return sources.NewCSV(cfg.Source.CSVPath), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}

// newLLMClient builds a retrying client for the configured provider.
func newLLMClient(model string) (llm.Client, error) {
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
