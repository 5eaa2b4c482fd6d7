package query

import (
	"fmt"
	"reflect"
	"strings"
)

type condition struct {
	clause string
	args   []any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap).
type SortField struct {
	Field      string
	Descending bool
}

// Assignment pairs a logical field name with the value written to it
// by INSERT and UPDATE statements.
type Assignment struct {
	Field string
	Value any
}

// Builder constructs SQL queries using a fluent API with automatic parameter numbering.
type Builder struct {
	projection        *ProjectionMap
	conditions        []condition
	defaultSortFields []SortField
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:        projection,
		conditions:        make([]condition, 0),
		defaultSortFields: defaultSort,
	}
}

// Build returns a SELECT query with the current conditions and ordering.
func (b *Builder) Build() (string, []any) {
	where, args, _ := b.buildWhere(1)
	orderBy := b.buildOrderBy()

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(),
		b.projection.Table(),
		where,
		orderBy,
	)

	return sql, args
}

// BuildSingle returns a SELECT query for a single record by ID.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.Table(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

// BuildInsert returns an INSERT statement for the assignments that returns the
// full projection of the inserted row.
func (b *Builder) BuildInsert(values []Assignment) (string, []any) {
	cols := make([]string, len(values))
	params := make([]string, len(values))
	args := make([]any, len(values))

	for i, v := range values {
		cols[i] = b.projection.RawColumn(v.Field)
		params[i] = fmt.Sprintf("$%d", i+1)
		args[i] = v.Value
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s.%s AS %s (%s) VALUES (%s) RETURNING %s",
		b.projection.schema,
		b.projection.table,
		b.projection.alias,
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
		b.projection.Columns(),
	)

	return sql, args
}

// BuildUpdate returns an UPDATE statement setting the assignments on the row
// matching id, returning the full projection of the updated row.
func (b *Builder) BuildUpdate(idField string, id any, values []Assignment) (string, []any) {
	sets := make([]string, len(values))
	args := make([]any, 0, len(values)+1)

	for i, v := range values {
		sets[i] = fmt.Sprintf("%s = $%d", b.projection.RawColumn(v.Field), i+1)
		args = append(args, v.Value)
	}
	args = append(args, id)

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		b.projection.Table(),
		strings.Join(sets, ", "),
		b.projection.Column(idField),
		len(args),
		b.projection.Columns(),
	)

	return sql, args
}

// BuildDelete returns a DELETE statement for the row matching id that returns
// the full projection of the deleted row.
func (b *Builder) BuildDelete(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1 RETURNING %s",
		b.projection.Table(),
		b.projection.Column(idField),
		b.projection.Columns(),
	)
	return sql, []any{id}
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	b.conditions = append(b.conditions, condition{
		clause: fmt.Sprintf("%s = $%%d", col),
		args:   []any{value},
	})
	return b
}

func (b *Builder) buildOrderBy() string {
	fields := b.defaultSortFields
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		col := b.projection.Column(f.Field)
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", col, dir)
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildWhere(startParam int) (string, []any, int) {
	if len(b.conditions) == 0 {
		return "", nil, startParam
	}

	clauses := make([]string, 0, len(b.conditions))
	args := make([]any, 0)
	paramIdx := startParam

	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", paramIdx), 1)
			args = append(args, arg)
			paramIdx++
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, paramIdx
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}

	return false
}
