package contract

import (
	"errors"
	"net/http"
)

// Configuration errors.
var (
	ErrNullConfig            = errors.New("configuration is null or not a mapping")
	ErrMissingScenarios      = errors.New("scenarios must be a list")
	ErrEmptyScenarios        = errors.New("at least one scenario is required")
	ErrInvalidScenario       = errors.New("invalid scenario")
	ErrInvalidMetric         = errors.New("invalid metric")
	ErrInvalidParameters     = errors.New("invalid parameter definition")
	ErrDuplicateScenarioID   = errors.New("duplicate scenario id")
	ErrDuplicateMetricID     = errors.New("duplicate metric id")
	ErrMissingColumnMappings = errors.New("column_mappings must be a list")
	ErrInvalidColumnMapping  = errors.New("invalid column mapping")
	ErrUnknownMappingFile    = errors.New("column mapping references an unknown scenario file")
	ErrConfigParse           = errors.New("failed to parse configuration document")
)

// Transport and parse errors.
var (
	ErrFetchFailed = errors.New("fetch failed")
	ErrEmptyFile   = errors.New("file is empty")
	ErrNoDataRows  = errors.New("file has no data rows")
	ErrParse       = errors.New("failed to parse CSV")
)

// Normalization errors.
var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrMappingNotFound  = errors.New("column mapping not found")
)

// Query table errors.
var (
	ErrNotInitialized      = errors.New("query engine is not initialized")
	ErrInvalidTableName    = errors.New("invalid table name")
	ErrInvalidColumnName   = errors.New("invalid column name")
	ErrMetricRequired      = errors.New("a metric must be selected")
	ErrInvalidLiteral      = errors.New("numeric literal must be finite")
	ErrQueryExecution      = errors.New("query execution failed")
	ErrTableCreation       = errors.New("table creation failed")
	ErrUnsupportedBackend  = errors.New("unsupported database backend")
	ErrNoComparableRows    = errors.New("no comparable rows for metric")
	ErrInvalidFilterUpdate = errors.New("invalid filter update")
)

// Category groups errors by the stage that produced them.
type Category string

// All error categories.
const (
	ConfigurationCategory Category = "configuration"
	TransportCategory     Category = "transport"
	ParseCategory         Category = "parse"
	NormalizationCategory Category = "normalization"
	QueryCategory         Category = "query"
	RequestCategory       Category = "request"
	InternalCategory      Category = "internal"
)

var categories = []struct {
	err      error
	category Category
}{
	{ErrNullConfig, ConfigurationCategory},
	{ErrMissingScenarios, ConfigurationCategory},
	{ErrEmptyScenarios, ConfigurationCategory},
	{ErrInvalidScenario, ConfigurationCategory},
	{ErrInvalidMetric, ConfigurationCategory},
	{ErrInvalidParameters, ConfigurationCategory},
	{ErrDuplicateScenarioID, ConfigurationCategory},
	{ErrDuplicateMetricID, ConfigurationCategory},
	{ErrMissingColumnMappings, ConfigurationCategory},
	{ErrInvalidColumnMapping, ConfigurationCategory},
	{ErrUnknownMappingFile, ConfigurationCategory},
	{ErrConfigParse, ConfigurationCategory},
	{ErrFetchFailed, TransportCategory},
	{ErrEmptyFile, ParseCategory},
	{ErrNoDataRows, ParseCategory},
	{ErrParse, ParseCategory},
	{ErrScenarioNotFound, NormalizationCategory},
	{ErrMappingNotFound, NormalizationCategory},
	{ErrNotInitialized, QueryCategory},
	{ErrInvalidTableName, QueryCategory},
	{ErrInvalidColumnName, QueryCategory},
	{ErrMetricRequired, QueryCategory},
	{ErrInvalidLiteral, QueryCategory},
	{ErrQueryExecution, QueryCategory},
	{ErrTableCreation, QueryCategory},
	{ErrUnsupportedBackend, QueryCategory},
	{ErrNoComparableRows, QueryCategory},
	{ErrInvalidFilterUpdate, RequestCategory},
}

// CategoryOf returns the category of a wrapped sentinel error.
func CategoryOf(err error) Category {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.category
		}
	}
	return InternalCategory
}

// StatusCode maps an error to the HTTP status the server answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidFilterUpdate),
		errors.Is(err, ErrInvalidTableName),
		errors.Is(err, ErrInvalidColumnName),
		errors.Is(err, ErrMetricRequired),
		errors.Is(err, ErrInvalidLiteral):
		return http.StatusBadRequest
	}

	switch CategoryOf(err) {
	case ConfigurationCategory, ParseCategory, NormalizationCategory:
		return http.StatusUnprocessableEntity
	case TransportCategory:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
