package cmd

import (
	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/spf13/cobra"
)

// validateCmd loads every scenario of the document.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the document and load every scenario file.",
	Long: `Check the scenario document, then fetch and normalize every scenario
file concurrently. Exits non-zero when any scenario fails to load.

Useful as a CI gate for result repositories.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteValidate(rootCtx, cfg); err != nil {
			contract.LogFatal("Validation failed", err)
		}
	},
}
