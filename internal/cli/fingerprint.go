package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/owid/lc-reconcile/pkg/fingerprint"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <text> [other]",
	Short: "Print the fingerprint a name is matched on",
	Long: `Prints the fingerprint of a name, its cleaned display form and its tokens.
With a second name, also reports whether the two land in the same bucket.

Examples:
  reconcile fingerprint "Bolivia (Plurinational State of)"
  reconcile fingerprint "Korea, South" "South Korea"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fingerprint: %s\n", fingerprint.Generate(args[0]))
		fmt.Fprintf(out, "display:     %s\n", fingerprint.GenerateDisplay(args[0]))
		fmt.Fprintf(out, "tokens:      [%s]\n", strings.Join(fingerprint.Tokens(args[0]), ", "))
		if len(args) == 2 {
			fmt.Fprintf(out, "same bucket: %t\n", fingerprint.Equal(args[0], args[1]))
		}
		return nil
	},
}
