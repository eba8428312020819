package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/olekukonko/tablewriter"
)

// errParquetUnsupported is returned by listings that have no columnar form.
var errParquetUnsupported = errors.New("parquet output is not supported for this command")

// ScenariosView is the scenario listing with the filters available for the selected scenario.
type ScenariosView struct {
	Config    schema.Configuration    `json:"config"`
	Selected  string                  `json:"selected"`
	Available schema.AvailableFilters `json:"available_filters"`
}

// PrintScenarios outputs the scenarios of a configuration document.
func PrintScenarios(view ScenariosView, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			view.Config.Scenarios = nonNilScenarios(view.Config.Scenarios)
			return writeJSON(w, view)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVScenarios(w, view.Config.Scenarios)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errParquetUnsupported
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScenariosTable(w, view, cfg)
		}, "Wrote table")
	}
	return nil
}

func nonNilScenarios(scenarios []schema.Scenario) []schema.Scenario {
	if scenarios == nil {
		return []schema.Scenario{}
	}
	return scenarios
}

// writeCSVScenarios writes one line per scenario. Lists are joined with ";".
func writeCSVScenarios(w io.Writer, scenarios []schema.Scenario) error {
	header := []string{"id", "name", "file", "target_a_name", "target_b_name", "metrics", "parameters"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range scenarios {
			row := []string{
				s.ID,
				s.Name,
				s.File,
				s.TargetAName,
				s.TargetBName,
				strings.Join(s.MetricIDs(), ";"),
				strings.Join(s.ParameterKeys(), ";"),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeScenariosTable writes the scenarios with their targets and declared metrics.
func writeScenariosTable(writer io.Writer, view ScenariosView, cfg *contract.Config) error {
	doc := view.Config
	table := tablewriter.NewWriter(writer)
	defer func() { _ = table.Close() }()

	table.Header([]string{"ID", "Name", "Targets", "Metrics", "Parameters", "File"})

	labelWidth := getMaxLabelWidth(cfg, 4)
	var data [][]string
	for _, s := range doc.Scenarios {
		metrics := make([]string, 0, len(s.Metrics))
		for _, m := range s.Metrics {
			metrics = append(metrics, m.Name+unitSuffix(m.Unit))
		}
		params := make([]string, 0, len(s.Parameters))
		for _, key := range s.ParameterKeys() {
			params = append(params, s.ParameterLabel(key))
		}
		data = append(data, []string{
			s.ID,
			contract.TruncateLabel(s.Name, labelWidth),
			targetHeader(s.TargetAName, "A") + " vs " + targetHeader(s.TargetBName, "B"),
			strings.Join(metrics, "\n"),
			strings.Join(params, "\n"),
			s.File,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "%d scenario(s), %d column mapping(s)\n", len(doc.Scenarios), len(doc.ColumnMappings)); err != nil {
		return err
	}
	if view.Selected == "" {
		return nil
	}
	return writeAvailableFilters(writer, view)
}

// writeAvailableFilters lists the values the selected scenario can be filtered by.
func writeAvailableFilters(writer io.Writer, view ScenariosView) error {
	scenario, _ := view.Config.FindScenario(view.Selected)
	if _, err := fmt.Fprintf(writer, "Available filters for %s:\n", view.Selected); err != nil {
		return err
	}
	for _, key := range schema.ParameterKeys {
		values := view.Available.Parameters[key]
		if len(values) == 0 {
			continue
		}
		text := make([]string, len(values))
		for i, v := range values {
			text[i] = schema.FormatNumber(v)
		}
		if _, err := fmt.Fprintf(writer, "  %s [%s]: %s\n", scenario.ParameterLabel(key), key, strings.Join(text, ", ")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "  metrics: %s\n", strings.Join(view.Available.Metrics, ", ")); err != nil {
		return err
	}
	_, err := fmt.Fprintf(writer, "  test conditions: %s\n", strings.Join(view.Available.TestConditions, ", "))
	return err
}
