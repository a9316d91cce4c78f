package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const exampleContextJSON = `{
  "results": {
    "primary_metric": 0.62,
    "secondary_metric": 0.75
  },
  "process": {
    "visit_frequency": 2.1,
    "cross_sell_rate": 0.28,
    "quality_score": 0.82
  },
  "support": {
    "staffing_ratio": 0.68,
    "training_completion": 0.91
  },
  "longterm": {
    "market_trend": "declining",
    "competitor_entries": 3
  }
}
`

const exampleEnv = `# 4D-ARE Configuration
OPENAI_API_KEY=sk-your-key-here
# OPENAI_BASE_URL=https://api.openai.com/v1
# LLM_PROVIDER=openai
# MODEL_AGENT=gpt-4o
# MODEL_GENERATOR=gpt-4-turbo
# MODEL_JUDGE=gpt-4o
# MCP_SERVER_TYPE=demo
# OUTPUT_DIR=./output
`

var initOutputDir string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write starter files for a new project",
	Long: `Writes an example data-context JSON file and a .env.example listing the
environment variables the tool reads. An existing .env.example is left
alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := filepath.Join(initOutputDir, "data")
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		dataFile := filepath.Join(dataDir, "example_context.json")
		if err := os.WriteFile(dataFile, []byte(exampleContextJSON), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		envFile := filepath.Join(initOutputDir, ".env.example")
		wroteEnv := false
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			if err := os.WriteFile(envFile, []byte(exampleEnv), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			wroteEnv = true
		}

		fmt.Fprintf(os.Stdout, "Initialized project in %s\n\n", initOutputDir)
		fmt.Fprintln(os.Stdout, "Created files:")
		fmt.Fprintf(os.Stdout, "  - %s\n", dataFile)
		if wroteEnv {
			fmt.Fprintf(os.Stdout, "  - %s\n", envFile)
		}
		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, "Next steps:")
		fmt.Fprintln(os.Stdout, "  1. Copy .env.example to .env and add your API key")
		fmt.Fprintln(os.Stdout, "  2. Edit data/example_context.json with your metrics")
		fmt.Fprintln(os.Stdout, `  3. Run: four-d-are analyze "Your question" --data data/example_context.json`)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initOutputDir, "output", ".", "Directory to initialize")
	rootCmd.AddCommand(initCmd)
}
