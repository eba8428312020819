package schema

// EnrichedComparison adds presentation data to a Comparison.
type EnrichedComparison struct {
	Rank    int     `json:"rank"`
	Verdict Verdict `json:"verdict"`
	Comparison
}

// EnrichedChartPoint adds presentation data to a ChartPoint.
type EnrichedChartPoint struct {
	Index      int     `json:"index"`
	Difference float64 `json:"difference"`
	ChartPoint
}

// EnrichComparisons adds rank and verdict to a list of comparisons.
func EnrichComparisons(comparisons []Comparison) []EnrichedComparison {
	output := make([]EnrichedComparison, len(comparisons))
	for i, c := range comparisons {
		output[i] = EnrichedComparison{
			Rank:       i + 1,
			Verdict:    VerdictOf(c.ImprovementRate),
			Comparison: c,
		}
	}
	return output
}

// EnrichChartPoints adds the position and B-minus-A difference to chart points.
func EnrichChartPoints(points []ChartPoint) []EnrichedChartPoint {
	output := make([]EnrichedChartPoint, len(points))
	for i, p := range points {
		output[i] = EnrichedChartPoint{
			Index:      i + 1,
			Difference: p.ScenarioB - p.ScenarioA,
			ChartPoint: p,
		}
	}
	return output
}
