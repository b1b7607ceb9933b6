// Copyright 2025 CostPilot
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package filter compiles typed, schema-checked filter requests into
// parameterized SQL fragments. Unknown fields and operators are rejected at
// construction time, before any SQL is assembled.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBadFilter is wrapped by every construction failure.
var ErrBadFilter = errors.New("invalid filter")

// Field kinds. Kinds gate which operators make sense and how facet values
// are read back.
const (
	KindString = "string"
	KindInt    = "int"
	KindFloat  = "float"
)

// Supported operators.
const (
	OpEq   = "eq"
	OpNe   = "ne"
	OpGt   = "gt"
	OpLt   = "lt"
	OpGte  = "gte"
	OpLte  = "lte"
	OpIn   = "in"
	OpLike = "like"
	OpIs   = "is"
)

// Supported aggregates for group-by queries.
const (
	AggSum   = "sum"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
	AggCount = "count"
)

var operators = map[string]bool{
	OpEq: true, OpNe: true, OpGt: true, OpLt: true,
	OpGte: true, OpLte: true, OpIn: true, OpLike: true, OpIs: true,
}

var aggregates = map[string]bool{
	AggSum: true, AggAvg: true, AggMin: true, AggMax: true, AggCount: true,
}

// Field describes one filterable column.
type Field struct {
	Column    string
	Kind      string
	Sortable  bool
	Facetable bool
}

// Schema enumerates the fields a caller may filter on.
type Schema struct {
	fields map[string]Field
}

// NewSchema creates a schema from a field map keyed by the public field name.
func NewSchema(fields map[string]Field) *Schema {
	return &Schema{fields: fields}
}

// Field returns a field descriptor by public name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// FacetFields returns the facetable field names, sorted.
func (s *Schema) FacetFields() []string {
	var out []string
	for name, f := range s.fields {
		if f.Facetable {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Clause is the wire form of one filter condition. Value is a scalar, or an
// array for the in operator, or "null"/"not_null" for is.
type Clause struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value"`
}

type condition struct {
	field  Field
	op     string
	values []interface{}
}

type aggregate struct {
	field Field
	fn    string
	label string
}

// Filter is a validated, compilable filter. Conditions on the same field
// are OR-ed; distinct fields are AND-ed.
type Filter struct {
	schema     *Schema
	conditions map[string][]condition
	fieldOrder []string
	sortExpr   string
	groupBy    []string
	aggs       []aggregate
}

// New creates an empty filter over a schema.
func New(schema *Schema) *Filter {
	return &Filter{
		schema:     schema,
		conditions: make(map[string][]condition),
	}
}

// Build validates a clause list into a filter.
func Build(schema *Schema, clauses []Clause) (*Filter, error) {
	f := New(schema)
	for _, c := range clauses {
		values, ok := c.Value.([]interface{})
		if !ok {
			values = []interface{}{c.Value}
		}
		if err := f.Where(c.Field, c.Op, values...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Where adds one condition.
func (f *Filter) Where(field, op string, values ...interface{}) error {
	fld, ok := f.schema.Field(field)
	if !ok {
		return fmt.Errorf("%w: unknown field %q", ErrBadFilter, field)
	}
	if !operators[op] {
		return fmt.Errorf("%w: unknown operator %q", ErrBadFilter, op)
	}

	switch op {
	case OpIn:
		if len(values) == 0 {
			return fmt.Errorf("%w: in requires at least one value", ErrBadFilter)
		}
	case OpIs:
		if len(values) != 1 {
			return fmt.Errorf("%w: is requires exactly one value", ErrBadFilter)
		}
		v, _ := values[0].(string)
		if v != "null" && v != "not_null" {
			return fmt.Errorf("%w: is accepts null or not_null", ErrBadFilter)
		}
	default:
		if len(values) != 1 {
			return fmt.Errorf("%w: %s requires exactly one value", ErrBadFilter, op)
		}
	}

	if _, seen := f.conditions[field]; !seen {
		f.fieldOrder = append(f.fieldOrder, field)
	}
	f.conditions[field] = append(f.conditions[field], condition{field: fld, op: op, values: values})
	return nil
}

// SortBy sets the sort field and direction (asc or desc).
func (f *Filter) SortBy(field, direction string) error {
	fld, ok := f.schema.Field(field)
	if !ok || !fld.Sortable {
		return fmt.Errorf("%w: field %q is not sortable", ErrBadFilter, field)
	}
	dir := strings.ToUpper(direction)
	if dir != "ASC" && dir != "DESC" {
		return fmt.Errorf("%w: sort direction must be asc or desc", ErrBadFilter)
	}
	f.sortExpr = fld.Column + " " + dir
	return nil
}

// GroupBy adds grouping fields.
func (f *Filter) GroupBy(fields ...string) error {
	for _, field := range fields {
		fld, ok := f.schema.Field(field)
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrBadFilter, field)
		}
		f.groupBy = append(f.groupBy, fld.Column)
	}
	return nil
}

// Aggregate adds one aggregate column labeled <field>_<agg>.
func (f *Filter) Aggregate(field, fn string) error {
	fld, ok := f.schema.Field(field)
	if !ok {
		return fmt.Errorf("%w: unknown field %q", ErrBadFilter, field)
	}
	if !aggregates[fn] {
		return fmt.Errorf("%w: unknown aggregate %q", ErrBadFilter, fn)
	}
	f.aggs = append(f.aggs, aggregate{field: fld, fn: fn, label: field + "_" + fn})
	return nil
}

// Fragment is the compiled SQL pieces. Where is empty when the filter has
// no conditions; placeholders use the ? style.
type Fragment struct {
	Where      string
	Args       []interface{}
	OrderBy    string
	GroupBy    string
	Aggregates []string
}

// Compile renders the filter. Condition groups are emitted in the order the
// fields were first added, so output is deterministic.
func (f *Filter) Compile() Fragment {
	var frag Fragment

	var groups []string
	for _, field := range f.fieldOrder {
		conds := f.conditions[field]
		var parts []string
		for _, c := range conds {
			sql, args := compileCondition(c)
			parts = append(parts, sql)
			frag.Args = append(frag.Args, args...)
		}
		if len(parts) == 1 {
			groups = append(groups, parts[0])
		} else {
			groups = append(groups, "("+strings.Join(parts, " OR ")+")")
		}
	}
	frag.Where = strings.Join(groups, " AND ")

	frag.OrderBy = f.sortExpr
	frag.GroupBy = strings.Join(f.groupBy, ", ")
	for _, a := range f.aggs {
		fn := strings.ToUpper(a.fn)
		frag.Aggregates = append(frag.Aggregates,
			fmt.Sprintf("%s(%s) AS %s", fn, a.field.Column, a.label))
	}
	return frag
}

func compileCondition(c condition) (string, []interface{}) {
	col := c.field.Column
	switch c.op {
	case OpEq:
		return col + " = ?", c.values
	case OpNe:
		return col + " <> ?", c.values
	case OpGt:
		return col + " > ?", c.values
	case OpLt:
		return col + " < ?", c.values
	case OpGte:
		return col + " >= ?", c.values
	case OpLte:
		return col + " <= ?", c.values
	case OpLike:
		return col + " LIKE ?", c.values
	case OpIn:
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(c.values)), ",")
		return col + " IN (" + placeholders + ")", c.values
	case OpIs:
		if c.values[0] == "not_null" {
			return col + " IS NOT NULL", nil
		}
		return col + " IS NULL", nil
	}
	return "", nil
}
