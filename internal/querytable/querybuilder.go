package querytable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/loadcompare/internal/contract"
)

// predicate is a single "column = literal" condition.
type predicate struct {
	column string
	value  float64
}

// SelectQuery builds a SELECT statement from validated identifiers and numeric literals.
// Nothing user-supplied is ever concatenated without passing through the identifier guard.
type SelectQuery struct {
	columns []string
	table   string
	where   []predicate
	orderBy []string
}

// Select starts a query over the given columns.
func Select(columns ...string) *SelectQuery {
	return &SelectQuery{columns: columns}
}

// From sets the table.
func (q *SelectQuery) From(table string) *SelectQuery {
	q.table = table
	return q
}

// WhereEq adds an equality predicate. Predicates are joined with AND in insertion order.
func (q *SelectQuery) WhereEq(column string, value float64) *SelectQuery {
	q.where = append(q.where, predicate{column: column, value: value})
	return q
}

// OrderBy appends ordering columns.
func (q *SelectQuery) OrderBy(columns ...string) *SelectQuery {
	q.orderBy = append(q.orderBy, columns...)
	return q
}

// Build validates every identifier and literal and renders the statement.
func (q *SelectQuery) Build() (string, error) {
	if !contract.IsValidIdentifier(q.table) {
		return "", fmt.Errorf("%w: %q", contract.ErrInvalidTableName, q.table)
	}
	if len(q.columns) == 0 {
		return "", errors.New("select requires at least one column")
	}
	if err := validateColumns(q.columns); err != nil {
		return "", err
	}
	if err := validateColumns(q.orderBy); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(q.columns, ", "), q.table)

	if len(q.where) > 0 {
		conditions := make([]string, 0, len(q.where))
		for _, p := range q.where {
			if !contract.IsValidIdentifier(p.column) {
				return "", fmt.Errorf("%w: %q", contract.ErrInvalidColumnName, p.column)
			}
			lit, err := FormatLiteral(p.value)
			if err != nil {
				return "", err
			}
			conditions = append(conditions, p.column+" = "+lit)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	if len(q.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.orderBy, ", "))
	}
	return b.String(), nil
}

// validateColumns checks every name against the identifier guard.
func validateColumns(columns []string) error {
	for _, c := range columns {
		if !contract.IsValidIdentifier(c) {
			return fmt.Errorf("%w: %q", contract.ErrInvalidColumnName, c)
		}
	}
	return nil
}
