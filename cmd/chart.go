package cmd

import (
	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/spf13/cobra"
)

// chartCmd prints or renders the chart series.
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Group the filtered rows along an axis for charting.",
	Long: `Average both targets per value of the chart axis.

When the axis is a parameter that other filters pin to a single value, the
points are labeled with the remaining free parameters instead.

Examples:
  loadcompare chart --axis parameter_1
  loadcompare chart -p parameter_1=100 --axis parameter_2 --render chart.png`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteChart(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot build chart", err)
		}
	},
}
