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

// PrintChartSeries outputs the chart series, dispatching based on the output format configured.
func PrintChartSeries(series schema.ChartSeries, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONChartSeries(w, series)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVChartSeries(w, series, newFloatFormatter(cfg.Precision))
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteChartPointsParquet(parquet.ChartPointRecords(series), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeChartTable(w, series, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// chartJSON is the JSON document of a chart series.
type chartJSON struct {
	ScenarioID  string                      `json:"scenario_id"`
	MetricID    string                      `json:"metric_id"`
	MetricName  string                      `json:"metric_name"`
	Unit        string                      `json:"unit"`
	Axis        string                      `json:"axis"`
	TargetAName string                      `json:"target_a_name"`
	TargetBName string                      `json:"target_b_name"`
	Points      []schema.EnrichedChartPoint `json:"points"`
}

// writeJSONChartSeries writes the series with indexed points.
func writeJSONChartSeries(w io.Writer, series schema.ChartSeries) error {
	return writeJSON(w, chartJSON{
		ScenarioID:  series.ScenarioID,
		MetricID:    series.MetricID,
		MetricName:  series.MetricName,
		Unit:        series.Unit,
		Axis:        series.Axis,
		TargetAName: series.TargetAName,
		TargetBName: series.TargetBName,
		Points:      schema.EnrichChartPoints(series.Points),
	})
}

// writeCSVChartSeries writes one line per chart point.
func writeCSVChartSeries(w io.Writer, series schema.ChartSeries, fmtFloat func(float64) string) error {
	header := []string{"index", "label", "scenario_a", "scenario_b", "difference"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range schema.EnrichChartPoints(series.Points) {
			row := []string{
				strconv.Itoa(p.Index),
				p.Label,
				fmtFloat(p.ScenarioA),
				fmtFloat(p.ScenarioB),
				fmtFloat(p.Difference),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeChartTable writes the series as a table with a bar per target.
func writeChartTable(writer io.Writer, series schema.ChartSeries, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := newFloatFormatter(cfg.Precision)
	nameA := targetHeader(series.TargetAName, "A")
	nameB := targetHeader(series.TargetBName, "B")

	table := tablewriter.NewWriter(writer)
	defer func() { _ = table.Close() }()

	table.Header([]string{"#", series.Axis, nameA, nameB, "Diff", "Bars"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	peak := 0.0
	for _, p := range series.Points {
		peak = max(peak, p.ScenarioA, p.ScenarioB)
	}

	var data [][]string
	for _, p := range schema.EnrichChartPoints(series.Points) {
		data = append(data, []string{
			strconv.Itoa(p.Index),
			contract.TruncateLabel(p.Label, getMaxLabelWidth(cfg, 5)),
			fmtFloat(p.ScenarioA),
			fmtFloat(p.ScenarioB),
			fmtFloat(p.Difference),
			bar(p.ScenarioA, peak, '█') + "\n" + bar(p.ScenarioB, peak, '▒'),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "%s%s by %s: █ %s, ▒ %s\n", series.MetricName, unitSuffix(series.Unit), series.Axis, nameA, nameB); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Chart shaped in %v with %d point(s)\n", duration, len(series.Points)); err != nil {
		return err
	}
	return nil
}

const barWidth = 20

// bar renders v relative to peak as a run of block characters.
func bar(v, peak float64, glyph rune) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(v / peak * barWidth)
	if n == 0 {
		n = 1
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = glyph
	}
	return string(out)
}
