package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/internal/querytable"
	"github.com/huangsam/loadcompare/schema"
)

// GenerateFilterQuery builds the query selecting the rows that match the filter.
// Constrained parameters become equality predicates in key order.
func GenerateFilterQuery(filter schema.Filter, tableName string) (string, error) {
	if !contract.IsValidIdentifier(tableName) {
		return "", fmt.Errorf("%w: %q", contract.ErrInvalidTableName, tableName)
	}
	if filter.SelectedMetric == "" {
		return "", contract.ErrMetricRequired
	}

	q := querytable.Select(
		schema.TestConditionKey,
		schema.Parameter1Key,
		schema.Parameter2Key,
		schema.Parameter3Key,
		schema.ScenarioAColumn(filter.SelectedMetric),
		schema.ScenarioBColumn(filter.SelectedMetric),
	).From(tableName)

	for _, key := range filter.ActiveParameters() {
		q.WhereEq(key, *filter.Parameters[key])
	}
	return q.OrderBy(schema.TestConditionKey).Build()
}

// RecordsToFlatRows converts query records into flat rows.
// Missing and non-numeric values become NaN.
func RecordsToFlatRows(records []schema.Record) []schema.FlatRow {
	rows := make([]schema.FlatRow, 0, len(records))
	for _, rec := range records {
		row := schema.FlatRow{Values: make(map[string]float64, len(rec))}
		for col, v := range rec {
			if strings.EqualFold(col, schema.TestConditionKey) {
				row.TestCondition = toText(v)
				continue
			}
			row.Values[col] = toNumber(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return schema.FormatNumber(t)
	default:
		return fmt.Sprint(t)
	}
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return math.NaN()
}
