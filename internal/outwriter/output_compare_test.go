package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() schema.ComparisonReport {
	return schema.ComparisonReport{
		ScenarioID:  "http",
		TargetAName: "nginx",
		TargetBName: "envoy",
		Filter: schema.Filter{
			SelectedScenario: "http",
			SelectedMetric:   "throughput",
			Parameters:       map[string]*float64{schema.Parameter1Key: schema.Float64Ptr(100)},
		},
		Comparisons: []schema.Comparison{
			{
				MetricID:        "throughput",
				MetricName:      "Throughput",
				Unit:            "req/s",
				HigherIsBetter:  true,
				ScenarioAAvg:    1000,
				ScenarioBAvg:    1100,
				Difference:      100,
				ImprovementRate: 10,
				SampleCount:     3,
			},
			{
				MetricID:        "latency",
				MetricName:      "Latency",
				Unit:            "ms",
				ScenarioAAvg:    12,
				ScenarioBAvg:    14,
				Difference:      2,
				ImprovementRate: -16.67,
				SampleCount:     3,
			},
		},
		Details: []schema.ResultComparison{
			{
				TestCondition:   "warm",
				Parameters:      map[string]float64{schema.Parameter1Key: 100},
				ScenarioA:       1000,
				ScenarioB:       1100,
				Difference:      100,
				ImprovementRate: 10,
			},
		},
	}
}

func TestWriteComparisonTable(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 2, Width: 200, Backend: schema.SQLiteBackend}

	var buf bytes.Buffer
	require.NoError(t, writeComparisonTable(&buf, sampleReport(), cfg, 50*time.Millisecond))

	output := buf.String()
	assert.Contains(t, output, "Throughput (req/s)")
	assert.Contains(t, output, "1000.00")
	assert.Contains(t, output, "1100.00")
	assert.Contains(t, output, "+10.00% ▲")
	assert.Contains(t, output, "-16.67% ▼")
	assert.Contains(t, output, "improved")
	assert.Contains(t, output, "regressed")
	assert.Contains(t, output, "Scenario http: nginx vs envoy, 2 metric(s) compared")
	assert.Contains(t, output, "Filter: metric=throughput parameter_1=100")
	assert.Contains(t, output, "Backend: sqlite")
	assert.NotContains(t, output, "warm")
}

func TestWriteComparisonTableWithDetail(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Precision: 2, Width: 200, Detail: true}

	var buf bytes.Buffer
	require.NoError(t, writeComparisonTable(&buf, sampleReport(), cfg, time.Millisecond))
	assert.Contains(t, buf.String(), "warm")
}

func TestWriteJSONComparisonReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONComparisonReport(&buf, sampleReport()))

	var decoded struct {
		ScenarioID  string `json:"scenario_id"`
		Comparisons []struct {
			Rank     int     `json:"rank"`
			Verdict  string  `json:"verdict"`
			MetricID string  `json:"metric_id"`
			Rate     float64 `json:"improvement_rate"`
		} `json:"comparisons"`
		Details []schema.ResultComparison `json:"details"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "http", decoded.ScenarioID)
	require.Len(t, decoded.Comparisons, 2)
	assert.Equal(t, 1, decoded.Comparisons[0].Rank)
	assert.Equal(t, "improved", decoded.Comparisons[0].Verdict)
	assert.Equal(t, "regressed", decoded.Comparisons[1].Verdict)
	assert.InDelta(t, -16.67, decoded.Comparisons[1].Rate, 1e-9)
	assert.Len(t, decoded.Details, 1)
}

func TestWriteCSVComparisons(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVComparisons(&buf, sampleReport(), newFloatFormatter(2)))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, []string{"1", "http", "throughput", "req/s", "true", "1000.00", "1100.00", "100.00", "10.00", "3", "improved"}, records[1])
	assert.Equal(t, "regressed", records[2][10])
}

func TestDescribeFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   schema.Filter
		expected string
	}{
		{
			name:     "no parameters",
			filter:   schema.Filter{SelectedMetric: "latency"},
			expected: "metric=latency (all parameters)",
		},
		{
			name: "sorted parameters",
			filter: schema.Filter{
				SelectedMetric: "latency",
				Parameters: map[string]*float64{
					schema.Parameter3Key: schema.Float64Ptr(5),
					schema.Parameter1Key: schema.Float64Ptr(2.5),
					schema.Parameter2Key: nil,
				},
			},
			expected: "metric=latency parameter_1=2.5 parameter_3=5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, describeFilter(tt.filter))
		})
	}
}

func TestParameterCell(t *testing.T) {
	params := map[string]float64{schema.Parameter1Key: 100}
	assert.Equal(t, "100", parameterCell(params, schema.Parameter1Key))
	assert.Equal(t, "NaN", parameterCell(params, schema.Parameter2Key))
}
