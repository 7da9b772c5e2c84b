package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect describes how a statement is written for a given SQL engine.
type Dialect struct {
	Name     string
	Driver   string
	numbered bool
	ilike    string
	// fold names a SQL function lowering both operands before LIKE.
	fold string
}

var (
	// PostgresDialect uses numbered placeholders ($1, $2) and ILIKE.
	PostgresDialect = Dialect{Name: "postgres", Driver: "pgx", numbered: true, ilike: "ILIKE"}
	// SQLiteDialect uses anonymous placeholders. SQLite LIKE only ignores
	// the case of ASCII letters, so both sides go through FoldFunction.
	SQLiteDialect = Dialect{Name: "sqlite", Driver: "sqlite", numbered: false, ilike: "LIKE", fold: FoldFunction}
)

// FoldFunction is the Unicode lower-casing scalar function registered
// into the sqlite driver.
const FoldFunction = "books_fold"

// likeEscaper makes LIKE wildcards in a user value match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns the LIKE pattern matching values that contain s.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// DialectFor returns the dialect registered under the given name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return PostgresDialect, nil
	case "sqlite", "sqlite3":
		return SQLiteDialect, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
}

// Placeholder returns the text of the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites a statement written with `?` placeholders into the
// dialect placeholder style. Statements must not hold literal `?`.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			sb.WriteString(d.Placeholder(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Operator is a comparison applied by a condition.
type Operator int

const (
	// OpEqual matches the exact value.
	OpEqual Operator = iota
	// OpContains matches when the column contains the value, ignoring case.
	OpContains
)

// Condition is a single (column, operator, value) predicate.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
}

// render writes the predicate text using the n-th placeholder and
// returns the value to bind at that position.
func (c Condition) render(d Dialect, n int) (string, any) {
	switch c.Operator {
	case OpContains:
		column, placeholder := c.Column, d.Placeholder(n)
		if d.fold != "" {
			column = d.fold + "(" + column + ")"
			placeholder = d.fold + "(" + placeholder + ")"
		}
		return column + " " + d.ilike + " " + placeholder + ` ESCAPE '\'`, ContainsPattern(fmt.Sprint(c.Value))
	default:
		return c.Column + " = " + d.Placeholder(n), c.Value
	}
}

// SelectQuery builds a select statement whose WHERE clause is made of
// the AND-ed conditions in the order they were added.
type SelectQuery struct {
	base       string
	conditions []Condition
	orderBy    string
}

// NewSelectQuery starts a query from an unconditional select statement.
func NewSelectQuery(base string) *SelectQuery {
	return &SelectQuery{base: base}
}

// Where appends a condition.
func (q *SelectQuery) Where(column string, op Operator, value any) *SelectQuery {
	q.conditions = append(q.conditions, Condition{Column: column, Operator: op, Value: value})
	return q
}

// WhereContains appends a case-insensitive substring condition
// only when the value is not empty.
func (q *SelectQuery) WhereContains(column, value string) *SelectQuery {
	if value == "" {
		return q
	}
	return q.Where(column, OpContains, value)
}

// OrderBy sets the ordering column list.
func (q *SelectQuery) OrderBy(columns string) *SelectQuery {
	q.orderBy = columns
	return q
}

// Conditions returns the conditions added so far.
func (q *SelectQuery) Conditions() []Condition {
	return q.conditions
}

// Render produces the statement text and the positional values
// matching the placeholders order.
func (q *SelectQuery) Render(d Dialect) (string, []any) {
	var sb strings.Builder
	sb.WriteString(q.base)
	values := make([]any, 0, len(q.conditions))
	for i, c := range q.conditions {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		text, value := c.render(d, i+1)
		sb.WriteString(text)
		values = append(values, value)
	}
	if q.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.orderBy)
	}
	return sb.String(), values
}
