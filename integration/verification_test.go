//go:build integration

// Package integration contains integration tests for loadcompare.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"testing"

	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompareMatchesRows recomputes every comparison from the exported rows
// and checks it against the compare command.
func TestCompareMatchesRows(t *testing.T) {
	cases := []struct {
		scenario string
		metric   string
		params   []string
	}{
		{"proxy", "throughput", nil},
		{"proxy", "latency", []string{"parameter_1=200"}},
		{"grpc", "latency", nil},
		{"grpc", "error_rate", []string{"parameter_1=10"}},
	}
	for _, c := range cases {
		t.Run(c.scenario+"/"+c.metric, func(t *testing.T) {
			args := []string{"--scenario", c.scenario, "--metric", c.metric}
			for _, p := range c.params {
				args = append(args, "--param", p)
			}

			rowsCSV, err := runCommand(t, nil, append([]string{"rows", "--output", "csv"}, args...)...)
			require.NoError(t, err)
			avgA, avgB := averagesFromCSV(t, rowsCSV, c.metric)

			var report schema.ComparisonReport
			runJSON(t, nil, &report, append([]string{"compare"}, args...)...)
			require.Len(t, report.Comparisons, 1)
			got := report.Comparisons[0]

			assert.InDelta(t, avgA, got.ScenarioAAvg, 1e-9)
			assert.InDelta(t, avgB, got.ScenarioBAvg, 1e-9)
			assert.InDelta(t, avgB-avgA, got.Difference, 1e-9)
			assert.Equal(t, math.Signbit(got.ImprovementRate), isWorse(c.metric, avgA, avgB) && got.ImprovementRate != 0)
		})
	}
}

// averagesFromCSV averages the two target columns of a rows export, skipping empty cells.
func averagesFromCSV(t *testing.T, data []byte, metric string) (float64, float64) {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(records), 1)

	header := records[0]
	colA, colB := -1, -1
	for i, h := range header {
		switch h {
		case schema.ScenarioAColumn(metric):
			colA = i
		case schema.ScenarioBColumn(metric):
			colB = i
		}
	}
	require.NotEqual(t, -1, colA)
	require.NotEqual(t, -1, colB)

	var sumA, sumB float64
	var n int
	for _, r := range records[1:] {
		if r[colA] == "" || r[colB] == "" {
			continue
		}
		a, err := strconv.ParseFloat(r[colA], 64)
		require.NoError(t, err)
		b, err := strconv.ParseFloat(r[colB], 64)
		require.NoError(t, err)
		sumA += a
		sumB += b
		n++
	}
	require.Positive(t, n)
	return sumA / float64(n), sumB / float64(n)
}

// isWorse reports whether target B is worse than target A for the metric.
func isWorse(metric string, a, b float64) bool {
	if schema.MetricFromID(metric).HigherIsBetter {
		return b < a
	}
	return b > a
}
