package core

import (
	"math"
	"slices"
	"testing"

	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
)

func chartRow(cond string, p1, p2, p3, a, b float64) schema.FlatRow {
	return flatRow(cond, map[string]float64{
		schema.Parameter1Key: p1,
		schema.Parameter2Key: p2,
		schema.Parameter3Key: p3,
		"scenario_a_latency": a,
		"scenario_b_latency": b,
	})
}

func TestShapeChartByTestCondition(t *testing.T) {
	rows := []schema.FlatRow{
		chartRow("warm", 100, 1, 4, 10, 12),
		chartRow("cold", 100, 1, 4, 20, 22),
		chartRow("warm", 200, 1, 4, 30, math.NaN()),
	}

	points := ShapeChart(rows, "latency", "", nil)
	assert.Equal(t, []schema.ChartPoint{
		{Label: "cold", ScenarioA: 20, ScenarioB: 22},
		{Label: "warm", ScenarioA: 20, ScenarioB: 6},
	}, points)
}

func TestShapeChartNumericOrder(t *testing.T) {
	rows := []schema.FlatRow{
		chartRow("a", 1000, 1, 4, 1, 1),
		chartRow("b", 200, 1, 4, 2, 2),
		chartRow("c", 30, 1, 4, 3, 3),
		chartRow("d", math.NaN(), 1, 4, 4, 4),
	}

	points := ShapeChart(rows, "latency", schema.Parameter1Key, nil)
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	assert.Equal(t, []string{"30", "200", "1000"}, labels)
}

func TestShapeChartCompositeFallback(t *testing.T) {
	active := map[string]*float64{schema.Parameter1Key: schema.Float64Ptr(100)}
	rows := []schema.FlatRow{
		chartRow("warm", 100, 10, 4, 50, 45),
		chartRow("cold", 100, 10, 8, 60, 55),
	}

	points := ShapeChart(rows, "latency", schema.Parameter2Key, active)
	assert.Equal(t, []schema.ChartPoint{
		{Label: "P2=10 (P3=4)", ScenarioA: 50, ScenarioB: 45},
		{Label: "P2=10 (P3=8)", ScenarioA: 60, ScenarioB: 55},
	}, points)
}

func TestShapeChartNoFallbackWhenEverythingFiltered(t *testing.T) {
	active := map[string]*float64{
		schema.Parameter1Key: schema.Float64Ptr(100),
		schema.Parameter3Key: schema.Float64Ptr(4),
	}
	rows := []schema.FlatRow{chartRow("warm", 100, 10, 4, 50, 45)}

	points := ShapeChart(rows, "latency", schema.Parameter2Key, active)
	assert.Equal(t, []schema.ChartPoint{{Label: "10", ScenarioA: 50, ScenarioB: 45}}, points)
}

func TestCompareChartKeys(t *testing.T) {
	keys := []struct {
		value float64
		label string
	}{
		{math.NaN(), "b"},
		{20, "z"},
		{math.NaN(), "a"},
		{3, "y"},
	}
	order := []int{0, 1, 2, 3}
	slices.SortStableFunc(order, func(i, j int) int {
		return compareChartKeys(keys[i].value, keys[j].value, keys[i].label, keys[j].label)
	})
	assert.Equal(t, []int{3, 1, 2, 0}, order)

	tests := []struct {
		name     string
		a, b     float64
		expected int
	}{
		{"numeric ascending", 3, 20, -1},
		{"numeric equal", 5, 5, 0},
		{"number before NaN", 1000, math.NaN(), -1},
		{"NaN after number", math.NaN(), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compareChartKeys(tt.a, tt.b, "b", "a"))
		})
	}
}

func TestShapeChartEmpty(t *testing.T) {
	assert.Empty(t, ShapeChart(nil, "latency", schema.Parameter1Key, nil))
}

func TestShortParam(t *testing.T) {
	assert.Equal(t, "P1", shortParam(schema.Parameter1Key))
	assert.Equal(t, "test_condition", shortParam(schema.TestConditionKey))
}
