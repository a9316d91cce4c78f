package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ybeven/4D-ARE/internal/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available domain templates",
	Long: `Lists the built-in domain templates plus any loaded from --catalog-file.
Each template carries per-dimension metric hints and authority boundaries
for its domain.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOMAIN\tMETRIC HINTS\tBOUNDARIES")
		for _, id := range catalog.IDs() {
			t, err := catalog.Get(id)
			if err != nil {
				continue
			}
			hints := len(t.Results) + len(t.Process) + len(t.Support) + len(t.Longterm)
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", id, t.Domain, hints, len(t.Boundaries))
		}
		return w.Flush()
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a template's rendered system prompt",
	Long: `Renders the template into the system prompt the analysis agent would use,
without calling any LLM.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}
		t, err := catalog.Get(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(3)
		}

		fmt.Fprintln(os.Stdout, prompt.RenderSystem(t))
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesShowCmd)
	rootCmd.AddCommand(templatesCmd)
}

// loadCatalog returns the built-in templates plus any configured catalog file.
func loadCatalog() (*prompt.Catalog, error) {
	catalog := prompt.NewCatalog()
	if cfg.CatalogFile != "" {
		if err := catalog.LoadFile(cfg.CatalogFile); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}
