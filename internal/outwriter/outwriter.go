// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteComparison prints a comparison report using the configured output format.
func (ow *OutWriter) WriteComparison(report schema.ComparisonReport, cfg *contract.Config, duration time.Duration) error {
	return PrintComparisonReport(report, cfg, duration)
}

// WriteRows prints the filtered rows using the configured output format.
func (ow *OutWriter) WriteRows(view RowsView, cfg *contract.Config, duration time.Duration) error {
	return PrintRows(view, cfg, duration)
}

// WriteChart prints a chart series using the configured output format and,
// when a render file is configured, also draws it as an image.
func (ow *OutWriter) WriteChart(series schema.ChartSeries, cfg *contract.Config, duration time.Duration) error {
	if err := PrintChartSeries(series, cfg, duration); err != nil {
		return err
	}
	if cfg.RenderFile == "" {
		return nil
	}
	return RenderChart(series, cfg.RenderFile)
}

// WriteScenarios prints the scenarios of a configuration document.
func (ow *OutWriter) WriteScenarios(view ScenariosView, cfg *contract.Config) error {
	return PrintScenarios(view, cfg)
}

// WriteValidation prints the outcome of validating every scenario.
func (ow *OutWriter) WriteValidation(summaries []schema.ScenarioSummary, cfg *contract.Config, duration time.Duration) error {
	return PrintValidation(summaries, cfg, duration)
}
