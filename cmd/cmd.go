// Package cmd defines the command-line interface for loadcompare.
package cmd

import (
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(rowsCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("data-config", "d", contract.DefaultDataConfig, "Path or URL of the scenario document")
	rootCmd.PersistentFlags().String("base-path", contract.DefaultBasePath, "Directory or URL that relative data paths resolve against")
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Query table backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("table", schema.DefaultTableName, "Name of the query table")
	rootCmd.PersistentFlags().StringP("scenario", "s", "", "Scenario id to select (defaults to the first scenario)")
	rootCmd.PersistentFlags().StringP("metric", "m", "", "Metric id to select (defaults to the first metric of the scenario)")
	rootCmd.PersistentFlags().StringArrayP("param", "p", nil, "Parameter filter as key=value, repeatable (e.g., parameter_1=100)")
	rootCmd.PersistentFlags().String("axis", schema.DefaultChartAxis, "Chart grouping axis: test_condition or parameter_1..parameter_3")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().StringP("output", "o", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Colorize verdicts: yes or no")
	rootCmd.PersistentFlags().Int("fetch-retries", contract.DefaultFetchRetries, "Attempts per remote fetch")
	rootCmd.PersistentFlags().String("fetch-timeout", contract.DefaultFetchTimeout, "Timeout per remote fetch attempt")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.ConsoleLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of compareCmd to Viper
	compareCmd.Flags().Bool("all-metrics", false, "Compare every metric of the scenario")
	compareCmd.Flags().Bool("detail", false, "Add the per-record comparison table")
	if err := viper.BindPFlags(compareCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compare flags", err)
	}

	// Bind all flags of chartCmd to Viper
	chartCmd.Flags().String("render", "", "Also draw the chart to this image file (.png, .svg or .pdf)")
	if err := viper.BindPFlags(chartCmd.Flags()); err != nil {
		contract.LogFatal("Error binding chart flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address for the HTTP API")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}
}
