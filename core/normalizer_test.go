package core

import (
	"math"
	"testing"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfiguration() schema.Configuration {
	return schema.Configuration{
		Scenarios: []schema.Scenario{
			{
				ID:          "proxy",
				Name:        "HTTP proxy",
				File:        "proxy.csv",
				TargetAName: "nginx",
				TargetBName: "envoy",
				Metrics: []schema.Metric{
					{ID: "throughput", Name: "Throughput", Unit: "req/s", HigherIsBetter: true},
					{ID: "latency", Name: "Latency", Unit: "ms"},
				},
				Parameters: map[string]schema.ParameterDef{
					schema.Parameter1Key: {Name: "Connections", Unit: "conn"},
				},
			},
		},
		ColumnMappings: []schema.ColumnMapping{
			{
				File: "proxy.csv",
				Mappings: map[string]string{
					schema.TestConditionKey: "cond",
					schema.Parameter1Key:    "p1",
					schema.Parameter2Key:    "p2",
					schema.Parameter3Key:    "p3",
					"scenario_a_throughput": "a_tp",
					"scenario_b_throughput": "b_tp",
					"scenario_a_latency":    "a_lat",
					"scenario_b_latency":    "b_lat",
				},
			},
		},
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"", 0},
		{"42", 42},
		{"-3.5", -3.5},
		{"+7", 7},
		{".5", 0.5},
		{"5.", 5},
		{"12ms", 12},
		{"  8 req", 8},
		{"1e3", 1000},
		{"2.5E-1x", 0.25},
		{"3e", 3},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"0x10", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseNumber(tt.input))
		})
	}
}

func TestParseNumberNaN(t *testing.T) {
	for _, input := range []string{"abc", "   ", "-", ".", "e5", "N/A"} {
		t.Run(input, func(t *testing.T) {
			assert.True(t, math.IsNaN(ParseNumber(input)))
		})
	}
}

func TestApplyMapping(t *testing.T) {
	mapping := schema.ColumnMapping{
		File: "f.csv",
		Mappings: map[string]string{
			schema.TestConditionKey: "Condition",
			schema.Parameter1Key:    "Conns",
			"scenario_a_latency":    "A ms",
		},
	}
	rows := []schema.RawRow{
		{"Condition": "warm", "Conns": "100", "A ms": "12", "Unused": "x"},
		{"Condition": "cold"},
	}

	mapped := ApplyMapping(rows, mapping)
	require.Len(t, mapped, 2)
	assert.Equal(t, schema.MappedRow{
		schema.TestConditionKey: "warm",
		schema.Parameter1Key:    "100",
		"scenario_a_latency":    "12",
	}, mapped[0])
	assert.Equal(t, schema.MappedRow{
		schema.TestConditionKey: "cold",
		schema.Parameter1Key:    "",
		"scenario_a_latency":    "",
	}, mapped[1])
}

func TestApplyMappingRoundTrip(t *testing.T) {
	mapping := testConfiguration().ColumnMappings[0]
	raw := schema.RawRow{}
	for _, source := range mapping.Mappings {
		raw[source] = "v-" + source
	}

	mapped := ApplyMapping([]schema.RawRow{raw}, mapping)
	require.Len(t, mapped, 1)
	for key, source := range mapping.Mappings {
		assert.Equal(t, raw[source], mapped[0][key])
	}
	assert.Len(t, mapped[0], len(mapping.Mappings))
}

func TestNormalize(t *testing.T) {
	rows := []schema.MappedRow{
		{schema.TestConditionKey: "warm", schema.Parameter1Key: "200", schema.Parameter2Key: "", schema.Parameter3Key: "x",
			"scenario_a_throughput": "1000", "scenario_b_throughput": "1200", "scenario_a_latency": "", "scenario_b_latency": "n/a"},
		{schema.TestConditionKey: "cold", schema.Parameter1Key: "100", schema.Parameter2Key: "10", schema.Parameter3Key: "4",
			"scenario_a_throughput": "900", "scenario_b_throughput": "950"},
		{schema.TestConditionKey: "cold", schema.Parameter1Key: "200", schema.Parameter2Key: "10", schema.Parameter3Key: "4"},
	}

	dataset, err := Normalize(rows, "proxy", testConfiguration())
	require.NoError(t, err)

	assert.Equal(t, "proxy", dataset.ScenarioID)
	require.Len(t, dataset.Results, 3)

	first := dataset.Results[0]
	assert.Equal(t, "warm", first.TestCondition)
	assert.Equal(t, 200.0, first.Parameters[schema.Parameter1Key])
	assert.Equal(t, 0.0, first.Parameters[schema.Parameter2Key])
	assert.True(t, math.IsNaN(first.Parameters[schema.Parameter3Key]))
	assert.Equal(t, 1200.0, first.ScenarioB["throughput"])
	assert.Equal(t, 0.0, first.ScenarioA["latency"])
	assert.True(t, math.IsNaN(first.ScenarioB["latency"]))

	assert.Equal(t, []float64{100, 200}, dataset.AvailableParameters[schema.Parameter1Key])
	assert.Equal(t, []float64{10}, dataset.AvailableParameters[schema.Parameter2Key])
	assert.Equal(t, []float64{4}, dataset.AvailableParameters[schema.Parameter3Key])
	assert.Equal(t, []string{"throughput", "latency"}, dataset.AvailableMetrics)
}

func TestNormalizeEmpty(t *testing.T) {
	dataset, err := Normalize(nil, "proxy", testConfiguration())
	require.NoError(t, err)

	assert.Empty(t, dataset.Results)
	for _, key := range schema.ParameterKeys {
		assert.Empty(t, dataset.AvailableParameters[key], key)
	}
}

func TestNormalizeUnknownScenario(t *testing.T) {
	_, err := Normalize(nil, "nope", testConfiguration())
	assert.ErrorIs(t, err, contract.ErrScenarioNotFound)
	assert.Equal(t, contract.NormalizationCategory, contract.CategoryOf(err))
}

func TestTransformRows(t *testing.T) {
	raw := []schema.RawRow{{"cond": "warm", "p1": "100", "a_tp": "10", "b_tp": "11"}}

	dataset, err := TransformRows(raw, testConfiguration(), "proxy")
	require.NoError(t, err)
	require.Len(t, dataset.Results, 1)
	assert.Equal(t, 11.0, dataset.Results[0].ScenarioB["throughput"])

	cfg := testConfiguration()
	cfg.ColumnMappings = nil
	_, err = TransformRows(raw, cfg, "proxy")
	assert.ErrorIs(t, err, contract.ErrMappingNotFound)

	_, err = TransformRows(raw, cfg, "nope")
	assert.ErrorIs(t, err, contract.ErrScenarioNotFound)
}

func TestExtractAvailableFilters(t *testing.T) {
	dataset := schema.NormalizedDataset{
		Results: []schema.TestResult{
			{TestCondition: "warm"},
			{TestCondition: "cold"},
			{TestCondition: "warm"},
		},
		AvailableParameters: map[string][]float64{schema.Parameter1Key: {100, 200}},
		AvailableMetrics:    []string{"latency"},
	}

	filters := ExtractAvailableFilters(dataset)
	assert.Equal(t, []string{"cold", "warm"}, filters.TestConditions)
	assert.Equal(t, []float64{100, 200}, filters.Parameters[schema.Parameter1Key])
	assert.Empty(t, filters.Parameters[schema.Parameter2Key])
	assert.Equal(t, []string{"latency"}, filters.Metrics)
	assert.Nil(t, filters.Scenarios)
}
