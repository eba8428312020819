package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/olekukonko/tablewriter"
)

// PrintValidation outputs the per-scenario load outcomes of a validation run.
func PrintValidation(summaries []schema.ScenarioSummary, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if summaries == nil {
				summaries = []schema.ScenarioSummary{}
			}
			return writeJSON(w, summaries)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVValidation(w, summaries)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errParquetUnsupported
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeValidationTable(w, summaries, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

func writeCSVValidation(w io.Writer, summaries []schema.ScenarioSummary) error {
	header := []string{"scenario_id", "file", "rows", "metrics", "test_conditions", "duration_ms", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range summaries {
			row := []string{
				s.ScenarioID,
				s.File,
				strconv.Itoa(s.Rows),
				strconv.Itoa(s.Metrics),
				strconv.Itoa(s.TestConditions),
				strconv.FormatInt(s.Duration.Milliseconds(), 10),
				s.Error,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeValidationTable writes one row per scenario with an ok or error status.
func writeValidationTable(writer io.Writer, summaries []schema.ScenarioSummary, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(writer)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Scenario", "File", "Rows", "Metrics", "Conditions", "Took", "Status"})

	failed := 0
	labelWidth := getMaxLabelWidth(cfg, 5)
	var data [][]string
	for _, s := range summaries {
		status := "ok"
		if !s.OK() {
			failed++
			status = contract.TruncateLabel(s.Error, labelWidth)
			if cfg.UseColors {
				status = contract.RegressedColor.Sprint(status)
			}
		} else if cfg.UseColors {
			status = contract.ImprovedColor.Sprint(status)
		}
		data = append(data, []string{
			s.ScenarioID,
			contract.TruncateLabel(s.File, labelWidth),
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Metrics),
			strconv.Itoa(s.TestConditions),
			s.Duration.Round(time.Millisecond).String(),
			status,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(writer, "Validated %d scenario(s) in %v, %d failed\n", len(summaries), duration, failed)
	return err
}
