package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/internal/parquet"
	"github.com/huangsam/loadcompare/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// RowsView is the filtered table of one scenario and metric.
type RowsView struct {
	Scenario schema.Scenario
	Metric   schema.Metric
	Rows     []schema.FlatRow
}

// rowColumns are the columns of a rows view in output order.
func (v RowsView) rowColumns() []string {
	return []string{
		schema.Parameter1Key,
		schema.Parameter2Key,
		schema.Parameter3Key,
		schema.ScenarioAColumn(v.Metric.ID),
		schema.ScenarioBColumn(v.Metric.ID),
	}
}

// PrintRows outputs the filtered rows, dispatching based on the output format configured.
func PrintRows(view RowsView, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, nonNilRows(view.Rows))
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVRows(w, view)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		records := parquet.FlatRowRecords(view.Scenario.ID, view.Metric.ID, view.Rows)
		if err := parquet.WriteFlatRowsParquet(records, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRowsTable(w, view, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// nonNilRows makes an empty result encode as [] instead of null.
func nonNilRows(rows []schema.FlatRow) []schema.FlatRow {
	if rows == nil {
		return []schema.FlatRow{}
	}
	return rows
}

// writeCSVRows writes the rows with their canonical column names. Missing and NaN cells are empty.
func writeCSVRows(w io.Writer, view RowsView) error {
	columns := view.rowColumns()
	header := append([]string{schema.TestConditionKey}, columns...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range view.Rows {
			record := []string{r.TestCondition}
			for _, col := range columns {
				v, ok := r.Get(col)
				if !ok || math.IsNaN(v) {
					record = append(record, "")
					continue
				}
				record = append(record, schema.FormatNumber(v))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRowsTable writes the rows with display names and the B-minus-A difference.
func writeRowsTable(writer io.Writer, view RowsView, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := newFloatFormatter(cfg.Precision)

	table := tablewriter.NewWriter(writer)
	defer func() { _ = table.Close() }()

	headers := []string{"Test Condition"}
	for _, key := range schema.ParameterKeys {
		headers = append(headers, view.Scenario.ParameterLabel(key))
	}
	headers = append(headers,
		targetHeader(view.Scenario.TargetAName, "A"),
		targetHeader(view.Scenario.TargetBName, "B"),
		"Diff",
	)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	colA := schema.ScenarioAColumn(view.Metric.ID)
	colB := schema.ScenarioBColumn(view.Metric.ID)
	labelWidth := getMaxLabelWidth(cfg, len(headers)-1)

	var data [][]string
	for _, r := range view.Rows {
		row := []string{contract.TruncateLabel(r.TestCondition, labelWidth)}
		for _, key := range schema.ParameterKeys {
			row = append(row, schema.FormatNumber(valueOrNaN(r.Get(key))))
		}
		a := valueOrNaN(r.Get(colA))
		b := valueOrNaN(r.Get(colB))
		row = append(row, fmtFloat(a), fmtFloat(b), fmtFloat(b-a))
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "Showing %d row(s) of scenario %s, metric %s%s\n", len(view.Rows), view.Scenario.ID, view.Metric.Name, unitSuffix(view.Metric.Unit)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Query completed in %v. Backend: %s\n", duration, cfg.Backend); err != nil {
		return err
	}
	return nil
}

// valueOrNaN turns a missing lookup into NaN.
func valueOrNaN(v float64, ok bool) float64 {
	if !ok {
		return math.NaN()
	}
	return v
}
