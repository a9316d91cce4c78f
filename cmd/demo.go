package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ybeven/4D-ARE/internal/attribution"
	"github.com/ybeven/4D-ARE/internal/metrics"
	"github.com/ybeven/4D-ARE/internal/sources"
)

const demoQuery = "Why is customer retention rate only 56% when our target is 80%?"

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in retention scenario end to end",
	Long: `Runs the banking retention demo scenario: prints its metric context and
query, then asks the configured LLM for the attribution analysis. Without
an API key the command prints setup instructions instead of calling out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		demo, err := sources.NewDemo("banking_retention")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		sc := demo.Scenario()

		fmt.Fprintf(os.Stdout, "4D-ARE Demo: %s\n", sc.Name)
		fmt.Fprintf(os.Stdout, "%s\n\n", sc.Description)
		fmt.Fprintln(os.Stdout, metrics.FormatContext(sc.Data))
		fmt.Fprintf(os.Stdout, "\nQuery: %s\n\n", demoQuery)

		missingKey := (cfg.LLM.Provider == "openai" && cfg.LLM.OpenAIKey == "") ||
			(cfg.LLM.Provider == "anthropic" && cfg.LLM.AnthropicKey == "")
		if missingKey {
			fmt.Fprintln(os.Stdout, "No API key configured. Set one to run the analysis, e.g. in .env:")
			fmt.Fprintln(os.Stdout)
			fmt.Fprintln(os.Stdout, "  OPENAI_API_KEY=sk-your-key-here")
			fmt.Fprintln(os.Stdout)
			fmt.Fprintln(os.Stdout, "Then rerun this command, or try your own question:")
			fmt.Fprintln(os.Stdout, `  four-d-are analyze "Why is retention declining?"`)
			return nil
		}

		catalog, err := loadCatalog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}
		tmpl, err := catalog.Get("banking")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}
		client, err := newLLMClient(cfg.LLM.AgentModel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}

		agent := attribution.NewAgent(client, tmpl)
		result, err := agent.Analyze(cmd.Context(), demoQuery, sc.Data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: analysis failed: %v\n", err)
			os.Exit(2)
		}

		fmt.Fprintln(os.Stdout, result.Analysis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
