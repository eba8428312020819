package core

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/loadcompare/schema"
	"github.com/rs/zerolog/log"
)

// chartGroup collects the rows that share one chart label.
type chartGroup struct {
	label string
	rows  []schema.FlatRow
}

// groupRows groups rows by the key function in first-seen order.
// Rows for which key reports false are skipped.
func groupRows(rows []schema.FlatRow, key func(schema.FlatRow) (string, bool)) []*chartGroup {
	index := make(map[string]*chartGroup)
	var groups []*chartGroup
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		g, exists := index[k]
		if !exists {
			g = &chartGroup{label: k}
			index[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	return groups
}

// shortParam abbreviates parameter_1 to P1.
func shortParam(key string) string {
	return strings.Replace(key, "parameter_", "P", 1)
}

// compositeLabel renders "P1=100 (P2=20, P3=5)" from the axis value and the free parameters.
func compositeLabel(row schema.FlatRow, groupBy string, others []string) (string, bool) {
	main, ok := row.Label(groupBy)
	if !ok {
		return "", false
	}
	parts := make([]string, 0, len(others))
	for _, p := range others {
		v, ok := row.Label(p)
		if !ok {
			v = "NaN"
		}
		parts = append(parts, shortParam(p)+"="+v)
	}
	label := shortParam(groupBy) + "=" + main
	if len(parts) > 0 {
		label += " (" + strings.Join(parts, ", ") + ")"
	}
	return label, true
}

// meanOrZero averages a column over rows, counting missing and NaN values as 0.
func meanOrZero(rows []schema.FlatRow, col string) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		v, _ := r.Get(col)
		sum += finiteOrZero(v)
	}
	return sum / float64(len(rows))
}

// ShapeChart turns filtered rows into one averaged bar pair per group of the axis.
// When a parameter axis collapses to a single group because other parameters are filtered,
// rows are regrouped under composite labels that also show the unfiltered parameters.
func ShapeChart(rows []schema.FlatRow, metricID, groupBy string, active map[string]*float64) []schema.ChartPoint {
	if groupBy == "" {
		groupBy = schema.DefaultChartAxis
	}

	var filtered []string
	for _, key := range schema.ParameterKeys {
		if v, ok := active[key]; ok && v != nil {
			filtered = append(filtered, key)
		}
	}
	if groupBy != schema.TestConditionKey && slices.Contains(filtered, groupBy) {
		log.Debug().Str("axis", groupBy).Msg("Grouping by a parameter that is already filtered")
	}

	groups := groupRows(rows, func(r schema.FlatRow) (string, bool) { return r.Label(groupBy) })

	if groupBy != schema.TestConditionKey && len(groups) <= 1 && len(filtered) > 0 {
		var others []string
		for _, key := range schema.ParameterKeys {
			if key != groupBy && !slices.Contains(filtered, key) {
				others = append(others, key)
			}
		}
		if len(others) > 0 {
			groups = groupRows(rows, func(r schema.FlatRow) (string, bool) {
				return compositeLabel(r, groupBy, others)
			})
		}
	}

	colA := schema.ScenarioAColumn(metricID)
	colB := schema.ScenarioBColumn(metricID)
	points := make([]schema.ChartPoint, len(groups))
	sortKeys := make([]float64, len(groups))
	for i, g := range groups {
		points[i] = schema.ChartPoint{
			Label:     g.label,
			ScenarioA: meanOrZero(g.rows, colA),
			ScenarioB: meanOrZero(g.rows, colB),
		}
		sortKeys[i] = math.NaN()
		if groupBy != schema.TestConditionKey {
			if v, ok := g.rows[0].Get(groupBy); ok {
				sortKeys[i] = v
			}
		}
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		if groupBy == schema.TestConditionKey {
			return strings.Compare(points[i].Label, points[j].Label)
		}
		return compareChartKeys(sortKeys[i], sortKeys[j], points[i].Label, points[j].Label)
	})

	sorted := make([]schema.ChartPoint, len(order))
	for i, idx := range order {
		sorted[i] = points[idx]
	}
	return sorted
}

// compareChartKeys orders numeric keys ascending, then NaN keys by label.
func compareChartKeys(a, b float64, labelA, labelB string) int {
	nanA, nanB := math.IsNaN(a), math.IsNaN(b)
	switch {
	case !nanA && !nanB:
		return cmp.Compare(a, b)
	case nanA && !nanB:
		return 1
	case !nanA && nanB:
		return -1
	}
	return strings.Compare(labelA, labelB)
}
