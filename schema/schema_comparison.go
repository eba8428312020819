package schema

// Comparison is the aggregate comparison of one metric across the filtered rows.
type Comparison struct {
	MetricID        string  `json:"metric_id"`
	MetricName      string  `json:"metric_name"`
	Unit            string  `json:"unit"`
	HigherIsBetter  bool    `json:"higher_is_better"`
	ScenarioAAvg    float64 `json:"scenario_a_avg"`
	ScenarioBAvg    float64 `json:"scenario_b_avg"`
	Difference      float64 `json:"difference"`
	ImprovementRate float64 `json:"improvement_rate"`
	SampleCount     int     `json:"sample_count"`
}

// ResultComparison is the per-record comparison of one metric.
type ResultComparison struct {
	TestCondition   string             `json:"test_condition"`
	Parameters      map[string]float64 `json:"parameters"`
	ScenarioA       float64            `json:"scenario_a"`
	ScenarioB       float64            `json:"scenario_b"`
	Difference      float64            `json:"difference"`
	ImprovementRate float64            `json:"improvement_rate"`
}

// ChartPoint is one group of the chart series.
type ChartPoint struct {
	Label     string  `json:"label"`
	ScenarioA float64 `json:"scenario_a"`
	ScenarioB float64 `json:"scenario_b"`
}

// ChartSeries is a shaped chart together with its display metadata.
type ChartSeries struct {
	ScenarioID  string       `json:"scenario_id"`
	MetricID    string       `json:"metric_id"`
	MetricName  string       `json:"metric_name"`
	Unit        string       `json:"unit"`
	Axis        string       `json:"axis"`
	TargetAName string       `json:"target_a_name"`
	TargetBName string       `json:"target_b_name"`
	Points      []ChartPoint `json:"points"`
}

// ComparisonReport bundles the aggregate and per-record comparisons of a scenario.
type ComparisonReport struct {
	ScenarioID  string             `json:"scenario_id"`
	TargetAName string             `json:"target_a_name"`
	TargetBName string             `json:"target_b_name"`
	Filter      Filter             `json:"filter"`
	Comparisons []Comparison       `json:"comparisons"`
	Details     []ResultComparison `json:"details,omitempty"`
}

// VerdictOf classifies an improvement rate.
func VerdictOf(rate float64) Verdict {
	switch {
	case rate > 0:
		return ImprovedVerdict
	case rate < 0:
		return RegressedVerdict
	default:
		return UnchangedVerdict
	}
}
