package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/owid/lc-reconcile/pkg/models"
)

var matchLimit int

var matchCmd = &cobra.Command{
	Use:   "match <query>",
	Short: "Rank the reference names for one query and print them as JSON",
	Long: `Loads the reference index from the database and prints the ranked candidates
for a single name, the same list a /reconcile query would return.

Examples:
  reconcile match "Ivory Coast"
  reconcile match "korea, south" --limit 1`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().IntVarP(&matchLimit, "limit", "n", 0, "max results (0 for all)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.stop()

	if err := a.start(cmd.Context()); err != nil {
		return err
	}

	results, err := a.ranker.Rank(cmd.Context(), args[0], models.CountryQueryType.ID)
	if err != nil {
		return err
	}
	if matchLimit > 0 && len(results) > matchLimit {
		results = results[:matchLimit]
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(models.BatchResult{Result: results})
}
