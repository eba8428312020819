// Package core has core logic for loading, normalizing, comparing and charting load-test results.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/internal/outwriter"
	"github.com/huangsam/loadcompare/internal/querytable"
	"github.com/huangsam/loadcompare/schema"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLoads caps how many scenario files are fetched at once during validation.
const maxConcurrentLoads = 4

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// OpenSession builds a session from the runtime config using the file or HTTP loader
// and the configured query table backend.
func OpenSession(ctx context.Context, cfg *contract.Config, observer contract.Observer) (*Session, error) {
	return NewSession(ctx, SessionOptions{
		Loader:     NewLoader(cfg),
		Engine:     querytable.NewEngine(cfg.Backend, cfg.DBConnect),
		ConfigPath: cfg.DataConfigPath,
		TableName:  cfg.TableName,
		Observer:   observer,
		Initial:    cfg.FilterUpdate(),
	})
}

// cliContext quiets load logs when stdout carries machine-readable output.
func cliContext(ctx context.Context, cfg *contract.Config) context.Context {
	if cfg.Output != schema.TextOut && cfg.OutputFile == "" {
		return WithQuietLoad(ctx)
	}
	return ctx
}

// ExecuteCompare compares the two targets of the selected scenario and prints the report.
// It serves as the main entry point for the 'compare' command.
func ExecuteCompare(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	ctx = cliContext(ctx, cfg)
	s, err := OpenSession(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := GetComparisonReport(ctx, s, cfg.AllMetrics, cfg.Detail)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteComparison(report, cfg, time.Since(start))
}

// ExecuteRows prints the rows matching the selected filter.
// It serves as the main entry point for the 'rows' command.
func ExecuteRows(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	ctx = cliContext(ctx, cfg)
	s, err := OpenSession(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	return outwriter.NewOutWriter().WriteRows(GetRowsView(s), cfg, time.Since(start))
}

// ExecuteChart prints the chart series of the selected metric and optionally renders it.
// It serves as the main entry point for the 'chart' command.
func ExecuteChart(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	ctx = cliContext(ctx, cfg)
	s, err := OpenSession(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	return outwriter.NewOutWriter().WriteChart(GetChartSeries(s), cfg, time.Since(start))
}

// ExecuteScenarios lists the scenarios of the document with the filters of the selected one.
// It serves as the main entry point for the 'scenarios' command.
func ExecuteScenarios(ctx context.Context, cfg *contract.Config) error {
	ctx = cliContext(ctx, cfg)
	s, err := OpenSession(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	return outwriter.NewOutWriter().WriteScenarios(GetScenariosView(s), cfg)
}

// ExecuteValidate loads and normalizes every scenario of the document and reports the outcome.
// It fails when at least one scenario could not be loaded.
func ExecuteValidate(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	ctx = cliContext(ctx, cfg)
	summaries, err := GetValidationSummaries(ctx, NewLoader(cfg), cfg.DataConfigPath)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteValidation(summaries, cfg, time.Since(start)); err != nil {
		return err
	}

	failed := 0
	for _, s := range summaries {
		if !s.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenario(s) failed to load", failed, len(summaries))
	}
	return nil
}

// GetComparisonReport builds the comparison report of the session's current selection.
// With allMetrics every declared metric is compared; with detail the per-record table is added.
func GetComparisonReport(ctx context.Context, s *Session, allMetrics, detail bool) (schema.ComparisonReport, error) {
	state := s.State()
	if state.Error != "" {
		return schema.ComparisonReport{}, fmt.Errorf("%w: %s", contract.ErrQueryExecution, state.Error)
	}

	report := schema.ComparisonReport{
		Filter:      state.Filter,
		Comparisons: []schema.Comparison{},
	}
	if state.Scenario != nil {
		report.ScenarioID = state.Scenario.ID
		report.TargetAName = state.Scenario.TargetAName
		report.TargetBName = state.Scenario.TargetBName
	}

	switch {
	case allMetrics:
		comparisons, err := s.CompareMetrics(ctx)
		if err != nil {
			return schema.ComparisonReport{}, err
		}
		report.Comparisons = comparisons
	case state.Comparison != nil:
		report.Comparisons = append(report.Comparisons, *state.Comparison)
	}

	if detail {
		report.Details = s.Details()
	}
	return report, nil
}

// GetRowsView returns the filtered rows of the session's current selection.
func GetRowsView(s *Session) outwriter.RowsView {
	state := s.State()
	view := outwriter.RowsView{Rows: state.FilteredRows}
	if state.Scenario != nil {
		view.Scenario = *state.Scenario
	}
	view.Metric = s.Metric(state.Filter.SelectedMetric)
	return view
}

// GetChartSeries returns the chart of the session's current selection with its display metadata.
func GetChartSeries(s *Session) schema.ChartSeries {
	state := s.State()
	metric := s.Metric(state.Filter.SelectedMetric)
	series := schema.ChartSeries{
		MetricID:   metric.ID,
		MetricName: metric.Name,
		Unit:       metric.Unit,
		Axis:       state.Filter.Axis(),
		Points:     state.Chart,
	}
	if state.Scenario != nil {
		series.ScenarioID = state.Scenario.ID
		series.TargetAName = state.Scenario.TargetAName
		series.TargetBName = state.Scenario.TargetBName
	}
	return series
}

// GetScenariosView returns the scenario listing with the filters of the selected scenario.
func GetScenariosView(s *Session) outwriter.ScenariosView {
	state := s.State()
	view := outwriter.ScenariosView{Available: state.AvailableFilters}
	if state.Config != nil {
		view.Config = *state.Config
	}
	if state.Scenario != nil {
		view.Selected = state.Scenario.ID
	}
	return view
}

// GetValidationSummaries validates the document and then loads and normalizes every
// scenario concurrently. A scenario that fails to load is reported in its summary and
// does not stop the others.
func GetValidationSummaries(ctx context.Context, loader contract.DataLoader, configPath string) ([]schema.ScenarioSummary, error) {
	doc, err := LoadConfig(ctx, loader, configPath)
	if err != nil {
		return nil, err
	}

	summaries := make([]schema.ScenarioSummary, len(doc.Scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, scenario := range doc.Scenarios {
		g.Go(func() error {
			summaries[i] = summarizeScenario(gctx, loader, doc, scenario)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// summarizeScenario loads one scenario and records its size or its error.
func summarizeScenario(ctx context.Context, loader contract.DataLoader, doc schema.Configuration, scenario schema.Scenario) schema.ScenarioSummary {
	start := time.Now()
	summary := schema.ScenarioSummary{
		ScenarioID: scenario.ID,
		Name:       scenario.Name,
		File:       scenario.File,
	}

	dataset, err := loadScenario(ctx, loader, doc, scenario.ID)
	summary.Duration = time.Since(start)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.Rows = len(dataset.Results)
	summary.Metrics = len(dataset.AvailableMetrics)
	summary.TestConditions = len(ExtractAvailableFilters(dataset).TestConditions)
	return summary
}

// loadScenario fetches, maps and normalizes the file of a scenario.
func loadScenario(ctx context.Context, loader contract.DataLoader, doc schema.Configuration, scenarioID string) (schema.NormalizedDataset, error) {
	scenario, ok := doc.FindScenario(scenarioID)
	if !ok {
		return schema.NormalizedDataset{}, fmt.Errorf("%w: %q", contract.ErrScenarioNotFound, scenarioID)
	}
	rows, err := loader.Load(ctx, scenario.File)
	if err != nil {
		return schema.NormalizedDataset{}, err
	}
	return TransformRows(rows, doc, scenarioID)
}
