// Package parquet provides data structures and functions for exporting loadcompare
// rows, comparisons and chart series to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"math"
	"os"

	"github.com/huangsam/loadcompare/schema"
	"github.com/parquet-go/parquet-go"
)

// FlatRowRecord is one filtered row for a single metric.
type FlatRowRecord struct {
	// ScenarioID is the scenario the row belongs to
	ScenarioID string `parquet:"scenario_id,snappy"`

	// MetricID is the metric whose two values are stored
	MetricID string `parquet:"metric_id,snappy"`

	// TestCondition is the free-form condition label of the row
	TestCondition string `parquet:"test_condition,snappy"`

	// Parameter1..3 are the numeric parameters (nullable when unparseable)
	Parameter1 *float64 `parquet:"parameter_1,optional,snappy"`
	Parameter2 *float64 `parquet:"parameter_2,optional,snappy"`
	Parameter3 *float64 `parquet:"parameter_3,optional,snappy"`

	// ScenarioA and ScenarioB are the metric values of both targets (nullable)
	ScenarioA *float64 `parquet:"scenario_a,optional,snappy"`
	ScenarioB *float64 `parquet:"scenario_b,optional,snappy"`
}

// ComparisonRecord is the aggregate comparison of one metric.
type ComparisonRecord struct {
	ScenarioID      string  `parquet:"scenario_id,snappy"`
	MetricID        string  `parquet:"metric_id,snappy"`
	MetricName      string  `parquet:"metric_name,snappy"`
	Unit            string  `parquet:"unit,snappy"`
	HigherIsBetter  bool    `parquet:"higher_is_better"`
	ScenarioAAvg    float64 `parquet:"scenario_a_avg,snappy"`
	ScenarioBAvg    float64 `parquet:"scenario_b_avg,snappy"`
	Difference      float64 `parquet:"difference,snappy"`
	ImprovementRate float64 `parquet:"improvement_rate,snappy"`
	SampleCount     int32   `parquet:"sample_count,snappy"`
	Verdict         string  `parquet:"verdict,snappy"`
}

// ChartPointRecord is one bar pair of a chart series.
type ChartPointRecord struct {
	ScenarioID string  `parquet:"scenario_id,snappy"`
	MetricID   string  `parquet:"metric_id,snappy"`
	Axis       string  `parquet:"axis,snappy"`
	Index      int32   `parquet:"index,snappy"`
	Label      string  `parquet:"label,snappy"`
	ScenarioA  float64 `parquet:"scenario_a,snappy"`
	ScenarioB  float64 `parquet:"scenario_b,snappy"`
	Difference float64 `parquet:"difference,snappy"`
}

// nullable returns nil for missing or non-finite values.
func nullable(v float64, ok bool) *float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FlatRowRecords converts filtered rows of one metric into records.
func FlatRowRecords(scenarioID, metricID string, rows []schema.FlatRow) []FlatRowRecord {
	records := make([]FlatRowRecord, 0, len(rows))
	for _, r := range rows {
		p1, ok1 := r.Get(schema.Parameter1Key)
		p2, ok2 := r.Get(schema.Parameter2Key)
		p3, ok3 := r.Get(schema.Parameter3Key)
		a, okA := r.Get(schema.ScenarioAColumn(metricID))
		b, okB := r.Get(schema.ScenarioBColumn(metricID))
		records = append(records, FlatRowRecord{
			ScenarioID:    scenarioID,
			MetricID:      metricID,
			TestCondition: r.TestCondition,
			Parameter1:    nullable(p1, ok1),
			Parameter2:    nullable(p2, ok2),
			Parameter3:    nullable(p3, ok3),
			ScenarioA:     nullable(a, okA),
			ScenarioB:     nullable(b, okB),
		})
	}
	return records
}

// ComparisonRecords converts aggregate comparisons into records.
func ComparisonRecords(scenarioID string, comparisons []schema.Comparison) []ComparisonRecord {
	records := make([]ComparisonRecord, 0, len(comparisons))
	for _, c := range comparisons {
		records = append(records, ComparisonRecord{
			ScenarioID:      scenarioID,
			MetricID:        c.MetricID,
			MetricName:      c.MetricName,
			Unit:            c.Unit,
			HigherIsBetter:  c.HigherIsBetter,
			ScenarioAAvg:    c.ScenarioAAvg,
			ScenarioBAvg:    c.ScenarioBAvg,
			Difference:      c.Difference,
			ImprovementRate: c.ImprovementRate,
			SampleCount:     int32(c.SampleCount),
			Verdict:         string(schema.VerdictOf(c.ImprovementRate)),
		})
	}
	return records
}

// ChartPointRecords converts a chart series into records.
func ChartPointRecords(series schema.ChartSeries) []ChartPointRecord {
	records := make([]ChartPointRecord, 0, len(series.Points))
	for i, p := range series.Points {
		records = append(records, ChartPointRecord{
			ScenarioID: series.ScenarioID,
			MetricID:   series.MetricID,
			Axis:       series.Axis,
			Index:      int32(i + 1),
			Label:      p.Label,
			ScenarioA:  p.ScenarioA,
			ScenarioB:  p.ScenarioB,
			Difference: p.ScenarioB - p.ScenarioA,
		})
	}
	return records
}

// WriteFlatRowsParquet writes filtered rows to a Parquet file.
func WriteFlatRowsParquet(data []FlatRowRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteComparisonsParquet writes comparisons to a Parquet file.
func WriteComparisonsParquet(data []ComparisonRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteChartPointsParquet writes chart points to a Parquet file.
func WriteChartPointsParquet(data []ChartPointRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes a slice of records to a Parquet file.
// The schema is derived from the record's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
