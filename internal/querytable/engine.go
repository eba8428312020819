// Package querytable hosts the relational table a session queries against.
package querytable

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver
)

// columnKind is the inferred type of a table column.
type columnKind int

const (
	textColumn columnKind = iota
	numberColumn
)

// column is one column of the session table.
type column struct {
	name string
	kind columnKind
}

// Engine is a lazily provisioned SQL database holding the session table.
// Each session owns its engine; there is no process-wide instance.
type Engine struct {
	mu      sync.Mutex
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.QueryEngine = &Engine{} // Compile-time check

// NewEngine returns an engine that connects on the first call to Initialize.
func NewEngine(backend schema.DatabaseBackend, connStr string) *Engine {
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.SQLiteMemoryConnect
	}
	return &Engine{backend: backend, connStr: connStr}
}

// Backend returns the configured backend.
func (e *Engine) Backend() schema.DatabaseBackend {
	return e.backend
}

// Initialize opens the database on first use and returns the same handle on later calls.
// After Close it provisions a fresh database.
func (e *Engine) Initialize(ctx context.Context) (*sql.DB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return e.db, nil
	}

	db, err := openDatabase(ctx, e.backend, e.connStr)
	if err != nil {
		return nil, err
	}
	e.db = db
	log.Debug().Str("backend", string(e.backend)).Msg("query engine initialized")
	return e.db, nil
}

// openDatabase connects to the given backend and verifies the connection.
func openDatabase(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		db, err = sql.Open("sqlite", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite query table at %q: %w", connStr, err)
		}
		// A single connection keeps an in-memory database alive and avoids "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, fmt.Errorf("%w: %s. Must be sqlite, mysql, or postgresql", contract.ErrUnsupportedBackend, backend)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, nil
}

// handle returns the open database or ErrNotInitialized.
func (e *Engine) handle() (*sql.DB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil, contract.ErrNotInitialized
	}
	return e.db, nil
}

// CreateTable drops any existing table of that name and loads the dataset into a new one.
// Column types are inferred from the first result; an empty dataset gets the fixed
// test_condition and parameter columns.
func (e *Engine) CreateTable(ctx context.Context, dataset schema.NormalizedDataset, tableName string) error {
	if !contract.IsValidIdentifier(tableName) {
		return fmt.Errorf("%w: %q", contract.ErrInvalidTableName, tableName)
	}
	db, err := e.handle()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, dropTableQuery(tableName)); err != nil {
		return fmt.Errorf("%w: drop %s: %v", contract.ErrTableCreation, tableName, err)
	}

	columns := tableColumns(dataset)
	for _, c := range columns {
		if !contract.IsValidIdentifier(c.name) {
			return fmt.Errorf("%w: %q", contract.ErrInvalidColumnName, c.name)
		}
	}

	if _, err := db.ExecContext(ctx, createTableQuery(tableName, columns, e.backend)); err != nil {
		return fmt.Errorf("%w: create %s: %v", contract.ErrTableCreation, tableName, err)
	}

	if len(dataset.Results) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", contract.ErrTableCreation, err)
	}
	for start := 0; start < len(dataset.Results); start += schema.InsertBatchSize {
		end := min(start+schema.InsertBatchSize, len(dataset.Results))
		query := insertQuery(tableName, columns, dataset.Results[start:end])
		if _, err := tx.ExecContext(ctx, query); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: insert rows %d-%d: %v", contract.ErrTableCreation, start, end-1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", contract.ErrTableCreation, err)
	}

	log.Debug().Str("table", tableName).Int("rows", len(dataset.Results)).Int("columns", len(columns)).Msg("query table created")
	return nil
}

// ExecuteQuery runs a read query. Byte values become strings and numeric
// columns other than test_condition are widened to float64.
func (e *Engine) ExecuteQuery(ctx context.Context, query string) ([]schema.Record, error) {
	db, err := e.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrQueryExecution, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrQueryExecution, err)
	}

	var records []schema.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", contract.ErrQueryExecution, err)
		}
		record := make(schema.Record, len(cols))
		for i, c := range cols {
			record[c] = normalizeValue(c, values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrQueryExecution, err)
	}
	return records, nil
}

// DropTable removes the table if it exists. Failures are logged, not returned.
func (e *Engine) DropTable(ctx context.Context, tableName string) error {
	if !contract.IsValidIdentifier(tableName) {
		return fmt.Errorf("%w: %q", contract.ErrInvalidTableName, tableName)
	}
	db, err := e.handle()
	if err != nil {
		return nil
	}
	if _, err := db.ExecContext(ctx, dropTableQuery(tableName)); err != nil {
		contract.LogWarn("failed to drop table "+tableName, err)
	}
	return nil
}

// Status reports whether the engine is open and how many rows the table holds.
func (e *Engine) Status(ctx context.Context, tableName string) (schema.EngineStatus, error) {
	status := schema.EngineStatus{
		Backend: string(e.backend),
		Table:   tableName,
	}
	if !contract.IsValidIdentifier(tableName) {
		return status, fmt.Errorf("%w: %q", contract.ErrInvalidTableName, tableName)
	}

	db, err := e.handle()
	if err != nil {
		return status, nil
	}
	status.Initialized = true

	row := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableName)
	if err := row.Scan(&status.RowCount); err != nil {
		// A missing table is a normal state between scenario loads
		return status, nil
	}
	status.TableExists = true
	return status, nil
}

// Close releases the database. Calling it again is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}
	if err := e.db.Close(); err != nil {
		contract.LogWarn("failed to close query engine", err)
	}
	e.db = nil
	return nil
}

// tableColumns derives the ordered column set from the first result.
func tableColumns(dataset schema.NormalizedDataset) []column {
	columns := []column{{name: schema.TestConditionKey, kind: textColumn}}
	if len(dataset.Results) == 0 {
		for _, k := range schema.ParameterKeys {
			columns = append(columns, column{name: k, kind: numberColumn})
		}
		return columns
	}

	first := dataset.Results[0]
	for _, k := range schema.ParameterKeys {
		if _, ok := first.Parameters[k]; ok {
			columns = append(columns, column{name: k, kind: numberColumn})
		}
	}
	metrics := metricOrder(dataset.AvailableMetrics, first)
	for _, m := range metrics {
		if _, ok := first.ScenarioA[m]; ok {
			columns = append(columns, column{name: schema.ScenarioAColumn(m), kind: numberColumn})
		}
	}
	for _, m := range metrics {
		if _, ok := first.ScenarioB[m]; ok {
			columns = append(columns, column{name: schema.ScenarioBColumn(m), kind: numberColumn})
		}
	}
	return columns
}

// metricOrder lists declared metrics first, then any extra metric keys in sorted order.
func metricOrder(declared []string, first schema.TestResult) []string {
	seen := make(map[string]struct{}, len(declared))
	order := make([]string, 0, len(declared))
	for _, m := range declared {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		order = append(order, m)
	}
	var extra []string
	for _, values := range []map[string]float64{first.ScenarioA, first.ScenarioB} {
		for m := range values {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				extra = append(extra, m)
			}
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// columnType returns the SQL type for a column kind on the given backend.
func columnType(kind columnKind, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		if kind == textColumn {
			return "TEXT"
		}
		return "DOUBLE"
	case schema.PostgreSQLBackend:
		if kind == textColumn {
			return "VARCHAR"
		}
		return "DOUBLE PRECISION"
	default: // SQLite
		if kind == textColumn {
			return "VARCHAR"
		}
		return "DOUBLE"
	}
}

// dropTableQuery returns the DROP statement for an already validated table name.
func dropTableQuery(tableName string) string {
	return "DROP TABLE IF EXISTS " + tableName
}

// createTableQuery returns the CREATE statement for an already validated table name.
func createTableQuery(tableName string, columns []column, backend schema.DatabaseBackend) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c.name + " " + columnType(c.kind, backend)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(defs, ", "))
}

// insertQuery returns one multi-row INSERT for a batch of results.
func insertQuery(tableName string, columns []column, results []schema.TestResult) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", tableName, strings.Join(names, ", "))
	for i, r := range results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, c := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(valueLiteral(r, c))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// valueLiteral renders one cell of a result as a SQL literal.
func valueLiteral(r schema.TestResult, c column) string {
	if c.name == schema.TestConditionKey {
		return QuoteString(r.TestCondition)
	}

	var v float64
	var ok bool
	switch {
	case strings.HasPrefix(c.name, schema.ScenarioAPrefix):
		v, ok = r.ScenarioA[strings.TrimPrefix(c.name, schema.ScenarioAPrefix)]
	case strings.HasPrefix(c.name, schema.ScenarioBPrefix):
		v, ok = r.ScenarioB[strings.TrimPrefix(c.name, schema.ScenarioBPrefix)]
	default:
		v, ok = r.Parameters[c.name]
	}
	if !ok {
		return "NULL"
	}
	lit, err := FormatLiteral(v)
	if err != nil {
		return "NULL"
	}
	return lit
}

// QuoteString renders s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatLiteral renders a finite float as a SQL numeric literal.
func FormatLiteral(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: %v", contract.ErrInvalidLiteral, v)
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

// normalizeValue converts driver values into the record representation.
func normalizeValue(col string, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalizeValue(col, string(x))
	case string:
		if strings.EqualFold(col, schema.TestConditionKey) {
			return x
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
		return x
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return x
	}
}
