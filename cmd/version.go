package cmd

import (
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/loadcompare/schema"
	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of loadcompare.",
	Long: `Display version information including build details and the
query table backends compiled into the binary.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		backends := make([]string, 0, len(schema.ValidDatabaseBackends))
		for b := range schema.ValidDatabaseBackends {
			backends = append(backends, string(b))
		}
		slices.Sort(backends)

		cmd.Printf("loadcompare CLI\n")
		cmd.Printf("  Version:  %s\n", version)
		cmd.Printf("  Commit:   %s\n", commit)
		cmd.Printf("  Built:    %s\n", date)
		cmd.Printf("  Runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  Backends: %s\n", strings.Join(backends, ", "))
	},
}
