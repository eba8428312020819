package core

import "github.com/huangsam/loadcompare/schema"

// ApplyMapping renames raw columns to canonical keys.
// A canonical key whose source column is absent maps to "". Unmapped columns are dropped.
func ApplyMapping(rows []schema.RawRow, mapping schema.ColumnMapping) []schema.MappedRow {
	mapped := make([]schema.MappedRow, 0, len(rows))
	for _, row := range rows {
		out := make(schema.MappedRow, len(mapping.Mappings))
		for key, source := range mapping.Mappings {
			out[key] = row[source]
		}
		mapped = append(mapped, out)
	}
	return mapped
}
