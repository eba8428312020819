package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/internal/parquet"
	"github.com/huangsam/loadcompare/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintComparisonReport outputs the comparison report, dispatching based on the output format configured.
func PrintComparisonReport(report schema.ComparisonReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONComparisonReport(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVComparisons(w, report, newFloatFormatter(cfg.Precision))
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		records := parquet.ComparisonRecords(report.ScenarioID, report.Comparisons)
		if err := parquet.WriteComparisonsParquet(records, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTable(w, report, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// comparisonJSON is the JSON document of a comparison report.
type comparisonJSON struct {
	ScenarioID  string                      `json:"scenario_id"`
	TargetAName string                      `json:"target_a_name"`
	TargetBName string                      `json:"target_b_name"`
	Filter      schema.Filter               `json:"filter"`
	Comparisons []schema.EnrichedComparison `json:"comparisons"`
	Details     []schema.ResultComparison   `json:"details,omitempty"`
}

// writeJSONComparisonReport writes the report with ranked, verdict-tagged comparisons.
func writeJSONComparisonReport(w io.Writer, report schema.ComparisonReport) error {
	return writeJSON(w, comparisonJSON{
		ScenarioID:  report.ScenarioID,
		TargetAName: report.TargetAName,
		TargetBName: report.TargetBName,
		Filter:      report.Filter,
		Comparisons: schema.EnrichComparisons(report.Comparisons),
		Details:     report.Details,
	})
}

// writeCSVComparisons writes one line per compared metric.
func writeCSVComparisons(w io.Writer, report schema.ComparisonReport, fmtFloat func(float64) string) error {
	header := []string{
		"rank",
		"scenario",
		"metric",
		"unit",
		"higher_is_better",
		"scenario_a_avg",
		"scenario_b_avg",
		"difference",
		"improvement_rate",
		"samples",
		"verdict",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range schema.EnrichComparisons(report.Comparisons) {
			row := []string{
				strconv.Itoa(c.Rank),
				report.ScenarioID,
				c.MetricID,
				c.Unit,
				strconv.FormatBool(c.HigherIsBetter),
				fmtFloat(c.ScenarioAAvg),
				fmtFloat(c.ScenarioBAvg),
				fmtFloat(c.Difference),
				fmtFloat(c.ImprovementRate),
				strconv.Itoa(c.SampleCount),
				string(c.Verdict),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeComparisonTable writes the comparisons and, with --detail, the per-record table.
func writeComparisonTable(writer io.Writer, report schema.ComparisonReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := newFloatFormatter(cfg.Precision)
	nameA := targetHeader(report.TargetAName, "A")
	nameB := targetHeader(report.TargetBName, "B")

	table := tablewriter.NewWriter(writer)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Rank", "Metric", nameA, nameB, "Diff", "Rate", "Verdict"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, c := range schema.EnrichComparisons(report.Comparisons) {
		data = append(data, []string{
			strconv.Itoa(c.Rank),
			contract.TruncateLabel(c.MetricName+unitSuffix(c.Unit), getMaxLabelWidth(cfg, 6)),
			fmtFloat(c.ScenarioAAvg),
			fmtFloat(c.ScenarioBAvg),
			fmtFloat(c.Difference),
			formatRate(c.ImprovementRate, cfg.Precision, cfg.UseColors),
			formatVerdict(c.Verdict, cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if cfg.Detail && len(report.Details) > 0 {
		if err := writeDetailTable(writer, report, cfg); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(writer, "Scenario %s: %s vs %s, %d metric(s) compared\n", report.ScenarioID, nameA, nameB, len(report.Comparisons)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Filter: %s\n", describeFilter(report.Filter)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Comparison completed in %v. Backend: %s\n", duration, cfg.Backend); err != nil {
		return err
	}
	return nil
}

// writeDetailTable writes the per-record comparison of the selected metric.
func writeDetailTable(writer io.Writer, report schema.ComparisonReport, cfg *contract.Config) error {
	fmtFloat := newFloatFormatter(cfg.Precision)

	table := tablewriter.NewWriter(writer)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Test Condition", "P1", "P2", "P3", targetHeader(report.TargetAName, "A"), targetHeader(report.TargetBName, "B"), "Diff", "Rate"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, d := range report.Details {
		data = append(data, []string{
			contract.TruncateLabel(d.TestCondition, getMaxLabelWidth(cfg, 7)),
			parameterCell(d.Parameters, schema.Parameter1Key),
			parameterCell(d.Parameters, schema.Parameter2Key),
			parameterCell(d.Parameters, schema.Parameter3Key),
			fmtFloat(d.ScenarioA),
			fmtFloat(d.ScenarioB),
			fmtFloat(d.Difference),
			formatRate(d.ImprovementRate, cfg.Precision, cfg.UseColors),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// describeFilter renders the active selection, e.g. "metric=latency parameter_1=100".
func describeFilter(f schema.Filter) string {
	text := "metric=" + f.SelectedMetric
	for _, key := range f.ActiveParameters() {
		text += " " + key + "=" + schema.FormatNumber(*f.Parameters[key])
	}
	if len(f.ActiveParameters()) == 0 {
		text += " (all parameters)"
	}
	return text
}

// parameterCell formats a detail parameter; absent values show as NaN.
func parameterCell(params map[string]float64, key string) string {
	v, ok := params[key]
	return schema.FormatNumber(valueOrNaN(v, ok))
}
