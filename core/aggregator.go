package core

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
)

// Difference is target B's value minus target A's value.
func Difference(a, b float64) float64 {
	return b - a
}

// ImprovementRate returns the signed percentage by which B improves on A, rounded to two decimals.
// A positive rate is always an improvement: for lower-is-better metrics a smaller B counts as better.
// A zero base or equal values yield 0.
func ImprovementRate(a, b float64, higherIsBetter bool) float64 {
	if a == 0 || a == b {
		return 0
	}
	var rate float64
	if higherIsBetter {
		rate = (b - a) / a * 100
	} else {
		rate = (a - b) / a * 100
	}
	return roundTo(rate, 2)
}

// roundTo rounds half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// finiteOrZero maps NaN and infinities to 0.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// finiteParameters copies the parameters, leaving out NaN and infinite values.
func finiteParameters(params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

// Aggregate compares one metric record by record. Missing and NaN values count as 0.
// Non-finite parameters are left out of the comparison.
func Aggregate(results []schema.TestResult, metric schema.Metric) []schema.ResultComparison {
	out := make([]schema.ResultComparison, 0, len(results))
	for _, r := range results {
		a := finiteOrZero(r.ScenarioA[metric.ID])
		b := finiteOrZero(r.ScenarioB[metric.ID])
		out = append(out, schema.ResultComparison{
			TestCondition:   r.TestCondition,
			Parameters:      finiteParameters(r.Parameters),
			ScenarioA:       a,
			ScenarioB:       b,
			Difference:      Difference(a, b),
			ImprovementRate: ImprovementRate(a, b, metric.HigherIsBetter),
		})
	}
	return out
}

// AggregateOne compares the mean of one metric across flat rows.
// Only finite values enter the means; a side without any yields ErrNoComparableRows.
func AggregateOne(rows []schema.FlatRow, metric schema.Metric) (schema.Comparison, error) {
	colA := schema.ScenarioAColumn(metric.ID)
	colB := schema.ScenarioBColumn(metric.ID)

	var as, bs []float64
	for _, row := range rows {
		if v, ok := row.Get(colA); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			as = append(as, v)
		}
		if v, ok := row.Get(colB); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			bs = append(bs, v)
		}
	}
	if len(as) == 0 || len(bs) == 0 {
		return schema.Comparison{}, fmt.Errorf("%w: %q", contract.ErrNoComparableRows, metric.ID)
	}

	avgA := stats.Mean(as)
	avgB := stats.Mean(bs)
	return schema.Comparison{
		MetricID:        metric.ID,
		MetricName:      metric.Name,
		Unit:            metric.Unit,
		HigherIsBetter:  metric.HigherIsBetter,
		ScenarioAAvg:    avgA,
		ScenarioBAvg:    avgB,
		Difference:      Difference(avgA, avgB),
		ImprovementRate: ImprovementRate(avgA, avgB, metric.HigherIsBetter),
		SampleCount:     min(len(as), len(bs)),
	}, nil
}
