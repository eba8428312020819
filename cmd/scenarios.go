package cmd

import (
	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/spf13/cobra"
)

// scenariosCmd lists the scenarios of the document.
var scenariosCmd = &cobra.Command{
	Use:     "scenarios",
	Short:   "List scenarios with their metrics and parameters.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScenarios(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot list scenarios", err)
		}
	},
}
