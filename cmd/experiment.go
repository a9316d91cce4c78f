package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ybeven/4D-ARE/internal/experiment"
	"github.com/ybeven/4D-ARE/internal/report"
	"github.com/ybeven/4D-ARE/internal/store"
)

var calibrationSample int

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Run the synthetic prompt ablation study",
	Long: `Measures what the 4D attribution framework buys over plain prompting.
The study generates synthetic banking scenarios with a known causal chain,
runs three prompt arms (naive, structure, 4d-are) against each scenario,
and scores every response with an LLM judge on four criteria.

All state lives in the SQLite database (--db-path), so every phase resumes
where it left off. Use 'run' for the whole study or the phase subcommands
to step through it.

Exit codes:
  0 - Success
  1 - Partial failure (some scenario steps failed; results cover the rest)
  2 - Fatal error
  3 - Configuration error`,
}

var experimentGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the synthetic scenario set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentPhase(cmd.Context(), (*experiment.Runner).Generate, "Scenario generation completed")
	},
}

var experimentAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Run the three prompt arms against stored scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentPhase(cmd.Context(), (*experiment.Runner).RunAgents, "Agent phase completed")
	},
}

var experimentEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score stored responses with the LLM judge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentPhase(cmd.Context(), (*experiment.Runner).Evaluate, "Evaluation completed")
	},
}

var experimentRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all phases: generate, agents, evaluate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentPhase(cmd.Context(), (*experiment.Runner).Run, "Experiment completed")
	},
}

var experimentReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the experiment summary from stored evaluations",
	Long: `Reads stored evaluations and writes the experiment summary: per-criterion
means and standard deviations for every arm, with deltas against the naive
baseline (--format markdown), or a refreshed detailed_results.json
(--format json).

With --calibration-sample N it also writes a CSV of N randomly sampled
scenarios with blank scoring columns for human raters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(2)
		}
		defer db.Close()

		switch cfg.Format {
		case "json":
			scenarios, responses, err := loadStudy(db)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			path := cfg.DetailedResultsPath()
			if err := report.WriteDetailedResults(path, scenarios, responses); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			fmt.Fprintf(os.Stdout, "Detailed results written to: %s\n", path)
		default:
			evals, err := db.ListEvaluations()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			path, err := report.NewMarkdownGenerator(cfg.OutputDir).GenerateReport(evals)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			fmt.Fprintf(os.Stdout, "Experiment report written to: %s\n", path)
		}

		if calibrationSample > 0 {
			scenarios, responses, err := loadStudy(db)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			path := filepath.Join(cfg.OutputDir, "human_calibration.csv")
			if err := report.WriteCalibrationSample(path, scenarios, responses, calibrationSample); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			fmt.Fprintf(os.Stdout, "Calibration sample written to: %s\n", path)
		}
		return nil
	},
}

func init() {
	experimentReportCmd.Flags().IntVar(&calibrationSample, "calibration-sample", 0,
		"Also write a human calibration CSV with this many sampled scenarios")

	experimentCmd.AddCommand(experimentGenerateCmd)
	experimentCmd.AddCommand(experimentAgentsCmd)
	experimentCmd.AddCommand(experimentEvaluateCmd)
	experimentCmd.AddCommand(experimentRunCmd)
	experimentCmd.AddCommand(experimentReportCmd)
	rootCmd.AddCommand(experimentCmd)
}

// runExperimentPhase validates config, runs one experiment phase, and maps
// the outcome to the documented exit codes.
func runExperimentPhase(ctx context.Context, phase func(*experiment.Runner, context.Context) error, done string) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(3)
	}

	runner, err := experiment.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer runner.Close()

	if err := phase(runner, ctx); err != nil {
		var pe *experiment.PartialError
		if errors.As(err, &pe) {
			fmt.Fprintf(os.Stderr, "Warning: partial failure — %d scenario step(s) failed:\n", len(pe.Errors))
			for _, e := range pe.Errors {
				fmt.Fprintf(os.Stderr, "  - %v\n", e)
			}
			fmt.Fprintf(os.Stdout, "\nResults cover the remaining scenarios in: %s\n", cfg.OutputDir)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	fmt.Fprintf(os.Stdout, "%s. Output in: %s\n", done, cfg.OutputDir)
	return nil
}

func loadStudy(db *store.Store) ([]*store.Scenario, []*store.Response, error) {
	scenarios, err := db.ListScenarios()
	if err != nil {
		return nil, nil, err
	}
	responses, err := db.ListResponses()
	if err != nil {
		return nil, nil, err
	}
	return scenarios, responses, nil
}
