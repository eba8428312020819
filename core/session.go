package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionOptions configures a new session.
type SessionOptions struct {
	Loader     contract.DataLoader
	Engine     contract.QueryEngine
	ConfigPath string
	TableName  string
	Observer   contract.Observer

	// Initial is applied on top of the default selection before the first load.
	Initial schema.FilterUpdate
}

// Session owns one validated configuration, the dataset of the selected scenario
// and the query table built from it. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id       string
	loader   contract.DataLoader
	engine   contract.QueryEngine
	table    string
	observer contract.Observer
	logger   zerolog.Logger

	cfg      schema.Configuration
	scenario schema.Scenario
	dataset  schema.NormalizedDataset
	loaded   bool
	filter   schema.Filter

	rows       []schema.FlatRow
	chart      []schema.ChartPoint
	comparison *schema.Comparison
	available  schema.AvailableFilters
	loading    bool
	lastErr    string

	generation uint64
	closed     bool
}

// NewSession loads and validates the configuration, initializes the engine
// and loads the initial scenario.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	if opts.Loader == nil || opts.Engine == nil {
		return nil, errors.New("session requires a loader and an engine")
	}
	table := opts.TableName
	if table == "" {
		table = schema.DefaultTableName
	}
	if !contract.IsValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", contract.ErrInvalidTableName, table)
	}
	observer := opts.Observer
	if observer == nil {
		observer = contract.NopObserver{}
	}

	id := xid.New().String()
	s := &Session{
		id:       id,
		loader:   opts.Loader,
		engine:   opts.Engine,
		table:    table,
		observer: observer,
		logger:   log.With().Str("session", id).Logger(),
		filter:   schema.Filter{ChartAxis: schema.DefaultChartAxis},
	}
	ctx = withSessionID(ctx, id)

	cfg, err := LoadConfig(ctx, opts.Loader, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg

	if _, err := opts.Engine.Initialize(ctx); err != nil {
		return nil, err
	}

	initial := opts.Initial
	if initial.Scenario == nil {
		initial.Scenario = schema.StringPtr(cfg.Scenarios[0].ID)
	}
	if err := s.UpdateFilter(ctx, initial); err != nil {
		s.Close()
		return nil, err
	}
	s.logger.Debug().Str("config", opts.ConfigPath).Int("scenarios", len(cfg.Scenarios)).Msg("Session ready")
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Config returns the validated configuration.
func (s *Session) Config() schema.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Scenario returns the selected scenario.
func (s *Session) Scenario() schema.Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenario
}

// Dataset returns the normalized dataset of the selected scenario.
func (s *Session) Dataset() schema.NormalizedDataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// UpdateFilter applies a partial filter change.
// Switching scenarios replaces the query table; any other change re-runs the filter query.
func (s *Session) UpdateFilter(ctx context.Context, update schema.FilterUpdate) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return contract.ErrNotInitialized
	}

	if update.Scenario != nil && (*update.Scenario != s.scenario.ID || !s.loaded) {
		return s.switchScenario(withSessionID(ctx, s.id), update)
	}
	defer s.mu.Unlock()

	next, err := s.applyUpdate(s.filter, s.scenario, update)
	if err != nil {
		return err
	}
	s.filter = next
	if s.loading {
		// The pending load picks up the new filter when it finishes.
		return nil
	}
	return s.refresh(ctx)
}

// switchScenario runs the drop, fetch, normalize, create and query sequence.
// It is entered with the lock held and releases it while fetching.
func (s *Session) switchScenario(ctx context.Context, update schema.FilterUpdate) error {
	scenario, ok := s.cfg.FindScenario(*update.Scenario)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", contract.ErrScenarioNotFound, *update.Scenario)
	}

	base := schema.Filter{
		SelectedScenario: scenario.ID,
		SelectedMetric:   scenario.Metrics[0].ID,
		ChartAxis:        s.filter.Axis(),
	}
	if _, ok := scenario.FindMetric(s.filter.SelectedMetric); ok {
		base.SelectedMetric = s.filter.SelectedMetric
	}
	rest := update
	rest.Scenario = nil
	next, err := s.applyUpdate(base, scenario, rest)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if err := s.engine.DropTable(ctx, s.table); err != nil {
		s.logger.Warn().Err(err).Str("table", s.table).Msg("Failed to drop previous table")
	}

	s.generation++
	gen := s.generation
	s.scenario = scenario
	s.filter = next
	s.loading = true
	s.loaded = false
	s.dataset = schema.NormalizedDataset{}
	s.rows, s.chart, s.comparison = nil, nil, nil
	s.lastErr = ""
	s.mu.Unlock()

	start := time.Now()
	dataset, loadErr := s.loadDataset(ctx, scenario.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed {
		s.logger.Debug().Str("scenario", scenario.ID).Msg("Discarding superseded scenario load")
		return nil
	}

	if loadErr == nil {
		loadErr = s.engine.CreateTable(ctx, dataset, s.table)
	}
	s.observer.ObserveLoad(scenario.ID, len(dataset.Results), time.Since(start), loadErr)
	s.loading = false
	if loadErr != nil {
		s.lastErr = loadErr.Error()
		s.logger.Error().Err(loadErr).Str("scenario", scenario.ID).Msg("Failed to load scenario")
		return loadErr
	}

	s.dataset = dataset
	s.loaded = true
	s.available = ExtractAvailableFilters(dataset)
	s.available.Scenarios = s.cfg.ScenarioIDs()

	event := s.logger.Info()
	if shouldQuietLoad(ctx) {
		event = s.logger.Debug()
	}
	event.Str("scenario", scenario.ID).Int("rows", len(dataset.Results)).Dur("duration", time.Since(start)).Msg("Scenario loaded")

	return s.refresh(ctx)
}

// loadDataset fetches, maps and normalizes the file of a scenario.
func (s *Session) loadDataset(ctx context.Context, scenarioID string) (schema.NormalizedDataset, error) {
	return loadScenario(ctx, s.loader, s.cfg, scenarioID)
}

// applyUpdate validates a partial update against a scenario and returns the resulting filter.
func (s *Session) applyUpdate(current schema.Filter, scenario schema.Scenario, update schema.FilterUpdate) (schema.Filter, error) {
	next := current.Clone()
	if update.Scenario != nil && *update.Scenario != scenario.ID {
		return current, fmt.Errorf("%w: scenario %q is not loaded", contract.ErrInvalidFilterUpdate, *update.Scenario)
	}
	if update.Metric != nil {
		if _, ok := scenario.FindMetric(*update.Metric); !ok {
			return current, fmt.Errorf("%w: unknown metric %q for scenario %q", contract.ErrInvalidFilterUpdate, *update.Metric, scenario.ID)
		}
		next.SelectedMetric = *update.Metric
	}
	if update.Parameters != nil {
		params := make(map[string]*float64, len(update.Parameters))
		for key, v := range update.Parameters {
			if !schema.IsParameterKey(key) {
				return current, fmt.Errorf("%w: unknown parameter %q", contract.ErrInvalidFilterUpdate, key)
			}
			if v == nil {
				params[key] = nil
				continue
			}
			val := *v
			params[key] = &val
		}
		next.Parameters = params
	}
	if update.ChartAxis != nil {
		axis := *update.ChartAxis
		if axis != schema.TestConditionKey && !schema.IsParameterKey(axis) {
			return current, fmt.Errorf("%w: invalid chart axis %q", contract.ErrInvalidFilterUpdate, axis)
		}
		next.ChartAxis = axis
	}
	return next, nil
}

// refresh re-runs the filter query and recomputes the comparison and the chart.
// It must be called with the lock held.
func (s *Session) refresh(ctx context.Context) error {
	if len(s.dataset.Results) == 0 {
		s.rows, s.chart, s.comparison = nil, nil, nil
		s.lastErr = ""
		return nil
	}

	start := time.Now()
	rows, err := s.queryRows(ctx, s.filter)
	s.observer.ObserveQuery(s.scenario.ID, len(rows), time.Since(start), err)
	if err != nil {
		s.rows, s.chart, s.comparison = nil, nil, nil
		s.lastErr = err.Error()
		s.logger.Error().Err(err).Msg("Filter query failed")
		return err
	}
	s.rows = rows
	s.lastErr = ""

	metric := s.metric(s.filter.SelectedMetric)
	comparison, err := AggregateOne(rows, metric)
	if err != nil {
		s.comparison = nil
		s.logger.Warn().Err(err).Str("metric", metric.ID).Msg("Aggregation skipped")
	} else {
		s.comparison = &comparison
	}
	s.chart = ShapeChart(rows, metric.ID, s.filter.Axis(), s.filter.Parameters)
	return nil
}

// queryRows runs the filter query against the current table.
func (s *Session) queryRows(ctx context.Context, filter schema.Filter) ([]schema.FlatRow, error) {
	query, err := GenerateFilterQuery(filter, s.table)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("query", query).Msg("Running filter query")
	records, err := s.engine.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return RecordsToFlatRows(records), nil
}

// Metric returns the scenario's definition of a metric, or one derived from its id.
func (s *Session) Metric(id string) schema.Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metric(id)
}

// metric returns the configured metric, or one derived from its id.
func (s *Session) metric(id string) schema.Metric {
	if m, ok := s.scenario.FindMetric(id); ok {
		return m
	}
	return schema.MetricFromID(id)
}

// State returns a snapshot of the session.
func (s *Session) State() schema.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	state := schema.SessionState{
		SessionID:        s.id,
		Config:           &cfg,
		FilteredRows:     slices.Clone(s.rows),
		Chart:            slices.Clone(s.chart),
		Filter:           s.filter.Clone(),
		AvailableFilters: s.available,
		Loading:          s.loading,
		Error:            s.lastErr,
	}
	if s.scenario.ID != "" {
		scenario := s.scenario
		state.Scenario = &scenario
	}
	if s.comparison != nil {
		comparison := *s.comparison
		state.Comparison = &comparison
	}
	if state.FilteredRows == nil {
		state.FilteredRows = []schema.FlatRow{}
	}
	if state.Chart == nil {
		state.Chart = []schema.ChartPoint{}
	}
	return state
}

// CompareMetrics aggregates each of the given metrics under the current parameter filter.
// No ids means every metric of the selected scenario. Metrics without comparable rows are skipped.
func (s *Session) CompareMetrics(ctx context.Context, metricIDs ...string) ([]schema.Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(metricIDs) == 0 {
		metricIDs = s.scenario.MetricIDs()
	}
	if len(s.dataset.Results) == 0 {
		return []schema.Comparison{}, nil
	}

	comparisons := make([]schema.Comparison, 0, len(metricIDs))
	for _, id := range metricIDs {
		if _, ok := s.scenario.FindMetric(id); !ok {
			return nil, fmt.Errorf("%w: unknown metric %q for scenario %q", contract.ErrInvalidFilterUpdate, id, s.scenario.ID)
		}
		filter := s.filter.Clone()
		filter.SelectedMetric = id
		rows, err := s.queryRows(ctx, filter)
		if err != nil {
			return nil, err
		}
		comparison, err := AggregateOne(rows, s.metric(id))
		if err != nil {
			s.logger.Warn().Err(err).Str("metric", id).Msg("Aggregation skipped")
			continue
		}
		comparisons = append(comparisons, comparison)
	}
	return comparisons, nil
}

// Details compares the selected metric record by record for the results matching the parameter filter.
func (s *Session) Details() []schema.ResultComparison {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matching []schema.TestResult
	for _, r := range s.dataset.Results {
		if matchesParameters(r, s.filter.Parameters) {
			matching = append(matching, r)
		}
	}
	slices.SortStableFunc(matching, func(a, b schema.TestResult) int {
		switch {
		case a.TestCondition < b.TestCondition:
			return -1
		case a.TestCondition > b.TestCondition:
			return 1
		default:
			return 0
		}
	})
	return Aggregate(matching, s.metric(s.filter.SelectedMetric))
}

// matchesParameters applies the equality predicates of a filter in memory.
func matchesParameters(r schema.TestResult, params map[string]*float64) bool {
	for key, want := range params {
		if want == nil {
			continue
		}
		if got, ok := r.Parameters[key]; !ok || got != *want {
			return false
		}
	}
	return true
}

// Status reports the engine and table status.
func (s *Session) Status(ctx context.Context) (schema.EngineStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Status(ctx, s.table)
}

// Close drops the table and closes the engine. Teardown failures are logged.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.generation++

	ctx := context.Background()
	if err := s.engine.DropTable(ctx, s.table); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to drop table on close")
	}
	if err := s.engine.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close query engine")
	}
}
