package core

import (
	"fmt"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
)

// requiredScenarioFields are the string fields every scenario must carry.
var requiredScenarioFields = []string{"id", "name", "file", "description", "target_a_name", "target_b_name"}

// ValidateConfig checks a decoded scenario document and returns it as a typed configuration.
// It fails on the first violation it finds.
func ValidateConfig(doc any) (schema.Configuration, error) {
	root, ok := asMap(doc)
	if !ok {
		return schema.Configuration{}, contract.ErrNullConfig
	}

	rawScenarios, ok := root["scenarios"].([]any)
	if !ok {
		return schema.Configuration{}, contract.ErrMissingScenarios
	}
	if len(rawScenarios) == 0 {
		return schema.Configuration{}, contract.ErrEmptyScenarios
	}

	var cfg schema.Configuration
	seenScenarios := make(map[string]struct{}, len(rawScenarios))
	files := make(map[string]struct{}, len(rawScenarios))
	for i, raw := range rawScenarios {
		scenario, err := validateScenario(i, raw)
		if err != nil {
			return schema.Configuration{}, err
		}
		if _, dup := seenScenarios[scenario.ID]; dup {
			return schema.Configuration{}, fmt.Errorf("%w: %q", contract.ErrDuplicateScenarioID, scenario.ID)
		}
		seenScenarios[scenario.ID] = struct{}{}
		files[scenario.File] = struct{}{}
		cfg.Scenarios = append(cfg.Scenarios, scenario)
	}

	for _, scenario := range cfg.Scenarios {
		seenMetrics := make(map[string]struct{}, len(scenario.Metrics))
		for _, m := range scenario.Metrics {
			if _, dup := seenMetrics[m.ID]; dup {
				return schema.Configuration{}, fmt.Errorf("%w: %q in scenario %q", contract.ErrDuplicateMetricID, m.ID, scenario.ID)
			}
			seenMetrics[m.ID] = struct{}{}
		}
	}

	mappings, err := validateColumnMappings(root["column_mappings"], files)
	if err != nil {
		return schema.Configuration{}, err
	}
	cfg.ColumnMappings = mappings
	return cfg, nil
}

// validateScenario checks one scenario entry including its metrics and parameter definitions.
func validateScenario(index int, raw any) (schema.Scenario, error) {
	m, ok := asMap(raw)
	if !ok {
		return schema.Scenario{}, fmt.Errorf("%w: scenario %d is not a mapping", contract.ErrInvalidScenario, index)
	}

	fields := make(map[string]string, len(requiredScenarioFields))
	for _, key := range requiredScenarioFields {
		v, ok := m[key].(string)
		if !ok {
			return schema.Scenario{}, fmt.Errorf("%w: scenario %d: %s must be a string", contract.ErrInvalidScenario, index, key)
		}
		fields[key] = v
	}

	rawMetrics, ok := m["metrics"].([]any)
	if !ok || len(rawMetrics) == 0 {
		return schema.Scenario{}, fmt.Errorf("%w: scenario %d: metrics must be a non-empty list", contract.ErrInvalidScenario, index)
	}
	rawParams, ok := asMap(m["parameters"])
	if !ok || len(rawParams) == 0 {
		return schema.Scenario{}, fmt.Errorf("%w: scenario %d: parameters must be a non-empty mapping", contract.ErrInvalidScenario, index)
	}

	scenario := schema.Scenario{
		ID:          fields["id"],
		Name:        fields["name"],
		File:        fields["file"],
		Description: fields["description"],
		TargetAName: fields["target_a_name"],
		TargetBName: fields["target_b_name"],
		Parameters:  make(map[string]schema.ParameterDef, len(rawParams)),
	}

	for j, rm := range rawMetrics {
		metric, err := validateMetric(rm)
		if err != nil {
			return schema.Scenario{}, fmt.Errorf("%w: scenario %q metric %d", err, scenario.ID, j)
		}
		scenario.Metrics = append(scenario.Metrics, metric)
	}

	for key, rp := range rawParams {
		def, ok := asMap(rp)
		if !ok {
			return schema.Scenario{}, fmt.Errorf("%w: scenario %q: %s is not a mapping", contract.ErrInvalidParameters, scenario.ID, key)
		}
		name, nameOK := def["name"].(string)
		unit, unitOK := def["unit"].(string)
		if !nameOK || !unitOK {
			return schema.Scenario{}, fmt.Errorf("%w: scenario %q: %s needs string name and unit", contract.ErrInvalidParameters, scenario.ID, key)
		}
		scenario.Parameters[key] = schema.ParameterDef{Name: name, Unit: unit}
	}
	return scenario, nil
}

// validateMetric checks one metric definition.
func validateMetric(raw any) (schema.Metric, error) {
	m, ok := asMap(raw)
	if !ok {
		return schema.Metric{}, contract.ErrInvalidMetric
	}
	id, idOK := m["id"].(string)
	name, nameOK := m["name"].(string)
	unit, unitOK := m["unit"].(string)
	higher, higherOK := m["higher_is_better"].(bool)
	if !idOK || !nameOK || !unitOK || !higherOK {
		return schema.Metric{}, contract.ErrInvalidMetric
	}
	return schema.Metric{ID: id, Name: name, Unit: unit, HigherIsBetter: higher}, nil
}

// validateColumnMappings checks the column_mappings list against the declared scenario files.
func validateColumnMappings(raw any, files map[string]struct{}) ([]schema.ColumnMapping, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, contract.ErrMissingColumnMappings
	}

	mappings := make([]schema.ColumnMapping, 0, len(list))
	for i, entry := range list {
		m, ok := asMap(entry)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d is not a mapping", contract.ErrInvalidColumnMapping, i)
		}
		file, ok := m["file"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: file must be a string", contract.ErrInvalidColumnMapping, i)
		}
		rawMap, ok := asMap(m["mappings"])
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: mappings must be a mapping", contract.ErrInvalidColumnMapping, i)
		}
		columns := make(map[string]string, len(rawMap))
		for key, v := range rawMap {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: entry %d: mapping %s must be a string", contract.ErrInvalidColumnMapping, i, key)
			}
			columns[key] = s
		}
		if _, known := files[file]; !known {
			return nil, fmt.Errorf("%w: %q", contract.ErrUnknownMappingFile, file)
		}
		mappings = append(mappings, schema.ColumnMapping{File: file, Mappings: columns})
	}
	return mappings, nil
}

// asMap normalizes the two map shapes a YAML decoder may produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			out[key] = val
		}
		return out, true
	default:
		return nil, false
	}
}
