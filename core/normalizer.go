package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
)

// ParseNumber converts a cell into a number.
// An empty cell is 0; otherwise the longest leading decimal prefix is parsed, so "12ms" is 12.
// Cells without a numeric prefix are NaN.
func ParseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	prefix := numericPrefix(s)
	if prefix == "" {
		return math.NaN()
	}
	if v, err := strconv.ParseFloat(prefix, 64); err == nil {
		return v
	}
	return math.NaN()
}

// numericPrefix returns the longest prefix of s that reads as a decimal number,
// after leading whitespace. Infinity is accepted in its spelled-out form.
func numericPrefix(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if rest := s[i:]; len(rest) >= len("Infinity") && rest[:len("Infinity")] == "Infinity" {
		return s[start : i+len("Infinity")]
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}

	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			end = j
		}
	}
	return s[start:end]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// Normalize converts mapped rows of one scenario into typed test results.
func Normalize(rows []schema.MappedRow, scenarioID string, cfg schema.Configuration) (schema.NormalizedDataset, error) {
	scenario, ok := cfg.FindScenario(scenarioID)
	if !ok {
		return schema.NormalizedDataset{}, fmt.Errorf("%w: %q", contract.ErrScenarioNotFound, scenarioID)
	}

	metricIDs := scenario.MetricIDs()
	observed := make(map[string][]float64, len(schema.ParameterKeys))
	results := make([]schema.TestResult, 0, len(rows))

	for _, row := range rows {
		result := schema.TestResult{
			TestCondition: row[schema.TestConditionKey],
			Parameters:    make(map[string]float64, len(schema.ParameterKeys)),
			ScenarioA:     make(map[string]float64, len(metricIDs)),
			ScenarioB:     make(map[string]float64, len(metricIDs)),
		}
		for _, key := range schema.ParameterKeys {
			v := ParseNumber(row[key])
			result.Parameters[key] = v
			observed[key] = append(observed[key], v)
		}
		for _, id := range metricIDs {
			result.ScenarioA[id] = ParseNumber(row[schema.ScenarioAColumn(id)])
			result.ScenarioB[id] = ParseNumber(row[schema.ScenarioBColumn(id)])
		}
		results = append(results, result)
	}

	available := make(map[string][]float64, len(schema.ParameterKeys))
	for _, key := range schema.ParameterKeys {
		available[key] = schema.DistinctSorted(observed[key])
	}

	return schema.NormalizedDataset{
		ScenarioID:          scenarioID,
		Results:             results,
		AvailableParameters: available,
		AvailableMetrics:    metricIDs,
	}, nil
}

// TransformRows maps and normalizes the raw rows of a scenario using the mapping registered for its file.
func TransformRows(rows []schema.RawRow, cfg schema.Configuration, scenarioID string) (schema.NormalizedDataset, error) {
	scenario, ok := cfg.FindScenario(scenarioID)
	if !ok {
		return schema.NormalizedDataset{}, fmt.Errorf("%w: %q", contract.ErrScenarioNotFound, scenarioID)
	}
	mapping, ok := cfg.FindMapping(scenario.File)
	if !ok {
		return schema.NormalizedDataset{}, fmt.Errorf("%w: %q", contract.ErrMappingNotFound, scenario.File)
	}
	return Normalize(ApplyMapping(rows, mapping), scenarioID, cfg)
}

// ExtractAvailableFilters lists the selectable values of a normalized dataset.
// Scenarios are left for the caller to fill from the configuration.
func ExtractAvailableFilters(dataset schema.NormalizedDataset) schema.AvailableFilters {
	params := make(map[string][]float64, len(schema.ParameterKeys))
	for _, key := range schema.ParameterKeys {
		params[key] = append([]float64{}, dataset.AvailableParameters[key]...)
	}

	seen := make(map[string]struct{})
	var conditions []string
	for _, r := range dataset.Results {
		if _, ok := seen[r.TestCondition]; ok {
			continue
		}
		seen[r.TestCondition] = struct{}{}
		conditions = append(conditions, r.TestCondition)
	}
	sort.Strings(conditions)

	return schema.AvailableFilters{
		Parameters:     params,
		Metrics:        append([]string{}, dataset.AvailableMetrics...),
		TestConditions: conditions,
	}
}
