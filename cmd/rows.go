package cmd

import (
	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/spf13/cobra"
)

// rowsCmd prints the filtered rows.
var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Show the result rows matching the filter.",
	Long: `Query the scenario table with the current filter and print the test
condition, the parameters and both target values of the selected metric.

Examples:
  loadcompare rows -s grpc -m error_rate
  loadcompare rows -p parameter_1=100 -p parameter_2=10 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRows(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot list rows", err)
		}
	},
}
