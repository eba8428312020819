package outwriter

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfiguration() schema.Configuration {
	return schema.Configuration{
		Scenarios: []schema.Scenario{
			{
				ID:          "http",
				Name:        "HTTP proxy",
				File:        "http.csv",
				TargetAName: "nginx",
				TargetBName: "envoy",
				Metrics: []schema.Metric{
					{ID: "throughput", Name: "Throughput", Unit: "req/s", HigherIsBetter: true},
					{ID: "latency", Name: "Latency", Unit: "ms"},
				},
				Parameters: map[string]schema.ParameterDef{
					schema.Parameter2Key: {Name: "Payload", Unit: "KB"},
					schema.Parameter1Key: {Name: "Connections"},
				},
			},
		},
		ColumnMappings: []schema.ColumnMapping{{File: "http.csv"}},
	}
}

func TestWriteScenariosTable(t *testing.T) {
	cfg := &contract.Config{Width: 200}

	view := ScenariosView{
		Config:   sampleConfiguration(),
		Selected: "http",
		Available: schema.AvailableFilters{
			Parameters:     map[string][]float64{schema.Parameter1Key: {100, 200}},
			Metrics:        []string{"throughput", "latency"},
			TestConditions: []string{"cold", "warm"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeScenariosTable(&buf, view, cfg))

	output := buf.String()
	assert.Contains(t, output, "HTTP proxy")
	assert.Contains(t, output, "nginx vs envoy")
	assert.Contains(t, output, "Latency (ms)")
	assert.Contains(t, output, "Payload (KB)")
	assert.Contains(t, output, "1 scenario(s), 1 column mapping(s)")
	assert.Contains(t, output, "Connections [parameter_1]: 100, 200")
	assert.Contains(t, output, "test conditions: cold, warm")
}

func TestWriteCSVScenarios(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVScenarios(&buf, sampleConfiguration().Scenarios))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"http", "HTTP proxy", "http.csv", "nginx", "envoy", "throughput;latency", "parameter_1;parameter_2"}, records[1])
}

func TestListingsRejectParquet(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: filepath.Join(t.TempDir(), "x.parquet")}

	assert.ErrorIs(t, PrintScenarios(ScenariosView{Config: sampleConfiguration()}, cfg), errParquetUnsupported)
	assert.ErrorIs(t, PrintValidation(nil, cfg, 0), errParquetUnsupported)
}

func TestWriteValidationTable(t *testing.T) {
	summaries := []schema.ScenarioSummary{
		{ScenarioID: "http", File: "http.csv", Rows: 12, Metrics: 2, TestConditions: 3, Duration: 15 * time.Millisecond},
		{ScenarioID: "grpc", File: "grpc.csv", Error: "fetch failed"},
	}
	cfg := &contract.Config{Width: 200}

	var buf bytes.Buffer
	require.NoError(t, writeValidationTable(&buf, summaries, cfg, time.Second))

	output := buf.String()
	assert.Contains(t, output, "http.csv")
	assert.Contains(t, output, "15ms")
	assert.Contains(t, output, "fetch failed")
	assert.Contains(t, output, "Validated 2 scenario(s) in 1s, 1 failed")
}

func TestWriteCSVValidation(t *testing.T) {
	summaries := []schema.ScenarioSummary{
		{ScenarioID: "http", File: "http.csv", Rows: 12, Metrics: 2, TestConditions: 3, Duration: 1500 * time.Microsecond},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCSVValidation(&buf, summaries))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"http", "http.csv", "12", "2", "3", "1", ""}, records[1])
}

func TestGetMaxLabelWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		columns  int
		expected int
	}{
		{"narrow clamps to minimum", 40, 5, minLabelWidth},
		{"wide clamps to maximum", 400, 2, maxLabelWidth},
		{"in between", 100, 4, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getMaxLabelWidth(&contract.Config{Width: tt.width}, tt.columns))
		})
	}
}
