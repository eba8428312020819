package schema

import (
	"encoding/json"
	"maps"
	"math"
	"sort"
	"strings"
)

// RawRow is one CSV record keyed by header. All cells are kept as strings.
type RawRow map[string]string

// MappedRow is a row keyed by canonical column keys.
type MappedRow map[string]string

// Record is a single query result row keyed by column name.
type Record map[string]any

// TestResult is one normalized measurement row.
type TestResult struct {
	TestCondition string             `json:"test_condition"`
	Parameters    map[string]float64 `json:"parameters"`
	ScenarioA     map[string]float64 `json:"scenario_a"`
	ScenarioB     map[string]float64 `json:"scenario_b"`
}

// NormalizedDataset is the typed result of normalizing one scenario's file.
type NormalizedDataset struct {
	ScenarioID          string               `json:"scenario_id"`
	Results             []TestResult         `json:"results"`
	AvailableParameters map[string][]float64 `json:"available_parameters"`
	AvailableMetrics    []string             `json:"available_metrics"`
}

// AvailableFilters are the values a user may pick from for the active scenario.
type AvailableFilters struct {
	Scenarios      []string             `json:"scenarios"`
	Parameters     map[string][]float64 `json:"parameters"`
	Metrics        []string             `json:"metrics"`
	TestConditions []string             `json:"test_conditions"`
}

// Filter is the user's current selection. A nil parameter value means unconstrained.
type Filter struct {
	SelectedScenario string              `json:"selected_scenario"`
	SelectedMetric   string              `json:"selected_metric"`
	Parameters       map[string]*float64 `json:"parameters"`
	ChartAxis        string              `json:"chart_axis"`
}

// Clone returns a deep copy of the filter.
func (f Filter) Clone() Filter {
	clone := f
	if f.Parameters != nil {
		clone.Parameters = make(map[string]*float64, len(f.Parameters))
		for k, v := range f.Parameters {
			if v == nil {
				clone.Parameters[k] = nil
				continue
			}
			val := *v
			clone.Parameters[k] = &val
		}
	}
	return clone
}

// ActiveParameters returns the constrained parameter keys in sorted order.
func (f Filter) ActiveParameters() []string {
	var keys []string
	for k, v := range f.Parameters {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Axis returns the chart axis, defaulting to the test condition.
func (f Filter) Axis() string {
	if f.ChartAxis == "" {
		return DefaultChartAxis
	}
	return f.ChartAxis
}

// FlatRow is a query result row: the test condition plus numeric columns.
// It serializes to JSON as one flat object.
type FlatRow struct {
	TestCondition string
	Values        map[string]float64
}

// Get returns a numeric column value. Column names are matched exactly first
// and then case-insensitively, since some backends fold identifiers.
func (r FlatRow) Get(col string) (float64, bool) {
	if v, ok := r.Values[col]; ok {
		return v, true
	}
	for k, v := range r.Values {
		if strings.EqualFold(k, col) {
			return v, true
		}
	}
	return 0, false
}

// Label returns the string form of a column, used for grouping.
// Missing and NaN values report false.
func (r FlatRow) Label(col string) (string, bool) {
	if col == TestConditionKey {
		return r.TestCondition, true
	}
	v, ok := r.Get(col)
	if !ok || math.IsNaN(v) {
		return "", false
	}
	return FormatNumber(v), true
}

// Columns lists the numeric column names in sorted order.
func (r FlatRow) Columns() []string {
	cols := make([]string, 0, len(r.Values))
	for k := range r.Values {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// MarshalJSON writes the row as a single object. Non-finite values become null.
func (r FlatRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	out[TestConditionKey] = r.TestCondition
	return json.Marshal(out)
}

// UnmarshalJSON reads a flat object. Nulls become NaN.
func (r *FlatRow) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Values = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == TestConditionKey {
			r.TestCondition, _ = v.(string)
			continue
		}
		switch n := v.(type) {
		case float64:
			r.Values[k] = n
		case nil:
			r.Values[k] = math.NaN()
		}
	}
	return nil
}

// CopyValues returns a shallow copy of the numeric columns.
func (r FlatRow) CopyValues() map[string]float64 {
	return maps.Clone(r.Values)
}
