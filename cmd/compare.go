package cmd

import (
	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/spf13/cobra"
)

// compareCmd compares target A and target B for the current selection.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare target A against target B for a metric.",
	Long: `Load the selected scenario, apply the parameter filter and compare the
averages of both targets.

The improvement rate is positive when target B is better, taking the
direction of the metric into account.

Examples:
  # Compare the first metric of the first scenario
  loadcompare compare -d testdata/config.yaml

  # Compare every metric at 100 connections
  loadcompare compare -s proxy -p parameter_1=100 --all-metrics

  # Add per-record comparisons and export to JSON
  loadcompare compare -m latency --detail --output json --output-file latency.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCompare(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run comparison", err)
		}
	},
}
