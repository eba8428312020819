package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImprovementRate(t *testing.T) {
	tests := []struct {
		name           string
		a, b           float64
		higherIsBetter bool
		expected       float64
	}{
		{"higher is better gain", 100, 110, true, 10.00},
		{"higher is better gain 20", 1000, 1200, true, 20.00},
		{"lower is better regression", 12, 14, false, -16.67},
		{"lower is better gain", 50, 45, false, 10.00},
		{"higher is better loss", 200, 150, true, -25.00},
		{"zero base", 0, 10, true, 0},
		{"equal values", 7, 7, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ImprovementRate(tt.a, tt.b, tt.higherIsBetter))
		})
	}
}

func TestImprovementRateSignLaw(t *testing.T) {
	pairs := [][2]float64{{1, 2}, {10, 3}, {0.5, 0.75}, {-4, -2}}
	for _, p := range pairs {
		higher := ImprovementRate(p[0], p[1], true)
		lower := ImprovementRate(p[0], p[1], false)
		assert.Equal(t, higher, -lower, "pair %v", p)
	}
}

func TestDifference(t *testing.T) {
	assert.Equal(t, 200.0, Difference(1000, 1200))
	assert.Equal(t, -5.0, Difference(50, 45))
}

func TestAggregate(t *testing.T) {
	results := []schema.TestResult{
		{
			TestCondition: "warm",
			Parameters:    map[string]float64{schema.Parameter1Key: 100},
			ScenarioA:     map[string]float64{"latency": 12},
			ScenarioB:     map[string]float64{"latency": 14},
		},
		{
			TestCondition: "cold",
			Parameters:    map[string]float64{schema.Parameter1Key: 200},
			ScenarioA:     map[string]float64{"latency": math.NaN()},
			ScenarioB:     map[string]float64{},
		},
	}
	metric := schema.Metric{ID: "latency", HigherIsBetter: false}

	out := Aggregate(results, metric)
	require.Len(t, out, 2)

	assert.Equal(t, schema.ResultComparison{
		TestCondition:   "warm",
		Parameters:      map[string]float64{schema.Parameter1Key: 100},
		ScenarioA:       12,
		ScenarioB:       14,
		Difference:      2,
		ImprovementRate: -16.67,
	}, out[0])

	assert.Equal(t, 0.0, out[1].ScenarioA)
	assert.Equal(t, 0.0, out[1].ScenarioB)
	assert.Equal(t, 0.0, out[1].ImprovementRate)

	out[0].Parameters[schema.Parameter1Key] = 999
	assert.Equal(t, 100.0, results[0].Parameters[schema.Parameter1Key])
}

func TestAggregateDropsNonFiniteParameters(t *testing.T) {
	results := []schema.TestResult{{
		TestCondition: "warm",
		Parameters: map[string]float64{
			schema.Parameter1Key: 100,
			schema.Parameter2Key: math.NaN(),
			schema.Parameter3Key: math.Inf(1),
		},
		ScenarioA: map[string]float64{"latency": 12},
		ScenarioB: map[string]float64{"latency": 14},
	}}

	out := Aggregate(results, schema.Metric{ID: "latency"})
	require.Len(t, out, 1)
	assert.Equal(t, map[string]float64{schema.Parameter1Key: 100}, out[0].Parameters)

	_, err := json.Marshal(out)
	assert.NoError(t, err)
}

func flatRow(cond string, values map[string]float64) schema.FlatRow {
	return schema.FlatRow{TestCondition: cond, Values: values}
}

func TestAggregateOne(t *testing.T) {
	rows := []schema.FlatRow{
		flatRow("a", map[string]float64{"scenario_a_throughput": 1000, "scenario_b_throughput": 1100}),
		flatRow("b", map[string]float64{"scenario_a_throughput": 2000, "scenario_b_throughput": math.NaN()}),
		flatRow("c", map[string]float64{"scenario_a_throughput": math.Inf(1), "scenario_b_throughput": 1300}),
	}
	metric := schema.Metric{ID: "throughput", Name: "Throughput", Unit: "req/s", HigherIsBetter: true}

	c, err := AggregateOne(rows, metric)
	require.NoError(t, err)
	assert.Equal(t, "Throughput", c.MetricName)
	assert.Equal(t, 1500.0, c.ScenarioAAvg)
	assert.Equal(t, 1200.0, c.ScenarioBAvg)
	assert.Equal(t, -300.0, c.Difference)
	assert.Equal(t, -20.0, c.ImprovementRate)
	assert.Equal(t, 2, c.SampleCount)
}

func TestAggregateOneNoComparableRows(t *testing.T) {
	metric := schema.Metric{ID: "latency"}

	_, err := AggregateOne(nil, metric)
	assert.ErrorIs(t, err, contract.ErrNoComparableRows)

	rows := []schema.FlatRow{flatRow("a", map[string]float64{"scenario_a_latency": 3, "scenario_b_latency": math.NaN()})}
	_, err = AggregateOne(rows, metric)
	assert.ErrorIs(t, err, contract.ErrNoComparableRows)
}
