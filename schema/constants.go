package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend that hosts the query table.
	DatabaseBackend string

	// Verdict summarizes the direction of a comparison.
	Verdict string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All query table backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// All verdicts supported.
const (
	ImprovedVerdict  Verdict = "improved"
	RegressedVerdict Verdict = "regressed"
	UnchangedVerdict Verdict = "unchanged"
)

// Canonical column keys shared by the mapper, the normalizer and the query table.
const (
	TestConditionKey = "test_condition"
	Parameter1Key    = "parameter_1"
	Parameter2Key    = "parameter_2"
	Parameter3Key    = "parameter_3"

	ScenarioAPrefix = "scenario_a_"
	ScenarioBPrefix = "scenario_b_"
)

// Defaults for the session.
const (
	DefaultTableName = "test_data"
	DefaultChartAxis = TestConditionKey
	InsertBatchSize  = 100
)

// ParameterKeys are the three parameter slots, in order.
var ParameterKeys = []string{Parameter1Key, Parameter2Key, Parameter3Key}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid query table backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// lowerIsBetterMetrics are metric ids assumed to improve as they shrink
// when no configuration says otherwise.
var lowerIsBetterMetrics = map[string]struct{}{
	"latency":    {},
	"error_rate": {},
	"errorRate":  {},
}

// ScenarioAColumn returns the canonical column holding target A's value for a metric.
func ScenarioAColumn(metricID string) string {
	return ScenarioAPrefix + metricID
}

// ScenarioBColumn returns the canonical column holding target B's value for a metric.
func ScenarioBColumn(metricID string) string {
	return ScenarioBPrefix + metricID
}

// IsParameterKey reports whether key is one of the three parameter slots.
func IsParameterKey(key string) bool {
	for _, k := range ParameterKeys {
		if k == key {
			return true
		}
	}
	return false
}

// MetricFromID builds a metric for a bare id that has no configured definition.
// Direction falls back to the fixed lower-is-better name set.
func MetricFromID(id string) Metric {
	_, lower := lowerIsBetterMetrics[id]
	return Metric{ID: id, Name: id, HigherIsBetter: !lower}
}
