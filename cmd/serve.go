package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ybeven/4D-ARE/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured metric source over MCP stdio",
	Long: `Starts an MCP server on stdin/stdout that exposes the configured metric
source as tools: get_results_metrics, get_process_metrics,
get_support_metrics, get_longterm_metrics, and get_all_metrics. The demo
source adds list_scenarios and set_scenario; SQL sources add query_custom.

Point an MCP client at the binary, e.g.:

  {"command": "four-d-are", "args": ["serve", "--source", "demo"]}

Exit codes:
  0 - Success
  2 - Fatal error
  3 - Configuration error`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSource, err := newSource()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}
		if closeSource != nil {
			defer closeSource()
		}

		// Stdout carries the protocol, so status goes to stderr.
		fmt.Fprintf(os.Stderr, "Serving %s metrics over MCP stdio...\n", src.Name())
		if err := mcpserver.New(src).ServeStdio(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: MCP server failed: %v\n", err)
			os.Exit(2)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
