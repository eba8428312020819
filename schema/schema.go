// Package schema has the scenario document, dataset and comparison models for all parts of loadcompare.
package schema

import "sort"

// Configuration is the validated scenario document that drives the whole pipeline.
type Configuration struct {
	Scenarios      []Scenario      `json:"scenarios" yaml:"scenarios"`
	ColumnMappings []ColumnMapping `json:"column_mappings" yaml:"column_mappings"`
}

// Scenario describes one comparable test run: which file holds its results,
// which two targets are compared and which metrics and parameters it declares.
type Scenario struct {
	ID          string                  `json:"id" yaml:"id"`
	Name        string                  `json:"name" yaml:"name"`
	File        string                  `json:"file" yaml:"file"`
	Description string                  `json:"description" yaml:"description"`
	TargetAName string                  `json:"target_a_name" yaml:"target_a_name"`
	TargetBName string                  `json:"target_b_name" yaml:"target_b_name"`
	Metrics     []Metric                `json:"metrics" yaml:"metrics"`
	Parameters  map[string]ParameterDef `json:"parameters" yaml:"parameters"`
}

// Metric is a measured quantity such as throughput or latency.
type Metric struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Unit           string `json:"unit" yaml:"unit"`
	HigherIsBetter bool   `json:"higher_is_better" yaml:"higher_is_better"`
}

// ParameterDef is the display metadata of one numeric test parameter.
type ParameterDef struct {
	Name string `json:"name" yaml:"name"`
	Unit string `json:"unit" yaml:"unit"`
}

// ColumnMapping maps canonical column keys to the raw CSV headers of one file.
type ColumnMapping struct {
	File     string            `json:"file" yaml:"file"`
	Mappings map[string]string `json:"mappings" yaml:"mappings"`
}

// FindScenario returns the scenario with the given id.
func (c Configuration) FindScenario(id string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// FindMapping returns the column mapping registered for the given file.
func (c Configuration) FindMapping(file string) (ColumnMapping, bool) {
	for _, m := range c.ColumnMappings {
		if m.File == file {
			return m, true
		}
	}
	return ColumnMapping{}, false
}

// ScenarioIDs lists scenario ids in document order.
func (c Configuration) ScenarioIDs() []string {
	ids := make([]string, 0, len(c.Scenarios))
	for _, s := range c.Scenarios {
		ids = append(ids, s.ID)
	}
	return ids
}

// FindMetric returns the declared metric with the given id.
func (s Scenario) FindMetric(id string) (Metric, bool) {
	for _, m := range s.Metrics {
		if m.ID == id {
			return m, true
		}
	}
	return Metric{}, false
}

// MetricIDs lists metric ids in declaration order.
func (s Scenario) MetricIDs() []string {
	ids := make([]string, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		ids = append(ids, m.ID)
	}
	return ids
}

// ParameterKeys lists the declared parameter keys in sorted order.
func (s Scenario) ParameterKeys() []string {
	keys := make([]string, 0, len(s.Parameters))
	for k := range s.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParameterLabel returns "Name (unit)" for a parameter key, or the key itself when undeclared.
func (s Scenario) ParameterLabel(key string) string {
	def, ok := s.Parameters[key]
	if !ok {
		return key
	}
	if def.Unit == "" {
		return def.Name
	}
	return def.Name + " (" + def.Unit + ")"
}
