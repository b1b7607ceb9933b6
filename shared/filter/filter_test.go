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

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return NewSchema(map[string]Field{
		"product_code":   {Column: "product_code", Kind: KindString, Sortable: true, Facetable: true},
		"unblended_cost": {Column: "unblended_cost", Kind: KindFloat, Sortable: true},
		"year":           {Column: "year", Kind: KindString, Facetable: true},
		"owner_email":    {Column: "ro.owner_email", Kind: KindString},
	})
}

func TestWhereRejectsUnknownField(t *testing.T) {
	f := New(testSchema())
	err := f.Where("nonexistent", OpEq, "x")
	assert.ErrorIs(t, err, ErrBadFilter)
}

func TestWhereRejectsUnknownOperator(t *testing.T) {
	f := New(testSchema())
	err := f.Where("product_code", "between", "a", "b")
	assert.ErrorIs(t, err, ErrBadFilter)
}

func TestWhereInRequiresValues(t *testing.T) {
	f := New(testSchema())
	err := f.Where("product_code", OpIn)
	assert.ErrorIs(t, err, ErrBadFilter)
}

func TestWhereIsValidatesValue(t *testing.T) {
	f := New(testSchema())
	assert.ErrorIs(t, f.Where("owner_email", OpIs, "maybe"), ErrBadFilter)
	assert.NoError(t, f.Where("owner_email", OpIs, "null"))
	assert.NoError(t, f.Where("owner_email", OpIs, "not_null"))
}

func TestCompileOrWithinFieldAndAcrossFields(t *testing.T) {
	f := New(testSchema())
	require.NoError(t, f.Where("product_code", OpEq, "AmazonEC2"))
	require.NoError(t, f.Where("product_code", OpEq, "AmazonS3"))
	require.NoError(t, f.Where("unblended_cost", OpGte, 10.0))

	frag := f.Compile()
	assert.Equal(t,
		"(product_code = ? OR product_code = ?) AND unblended_cost >= ?",
		frag.Where)
	assert.Equal(t, []interface{}{"AmazonEC2", "AmazonS3", 10.0}, frag.Args)
}

func TestCompileInAndIs(t *testing.T) {
	f := New(testSchema())
	require.NoError(t, f.Where("year", OpIn, "2024", "2025"))
	require.NoError(t, f.Where("owner_email", OpIs, "null"))

	frag := f.Compile()
	assert.Equal(t, "year IN (?,?) AND ro.owner_email IS NULL", frag.Where)
	assert.Equal(t, []interface{}{"2024", "2025"}, frag.Args)
}

func TestSortBy(t *testing.T) {
	f := New(testSchema())
	require.NoError(t, f.SortBy("unblended_cost", "desc"))
	assert.Equal(t, "unblended_cost DESC", f.Compile().OrderBy)

	assert.ErrorIs(t, f.SortBy("year", "asc"), ErrBadFilter)
	assert.ErrorIs(t, f.SortBy("unblended_cost", "sideways"), ErrBadFilter)
}

func TestGroupByWithAggregates(t *testing.T) {
	f := New(testSchema())
	require.NoError(t, f.GroupBy("product_code"))
	require.NoError(t, f.Aggregate("unblended_cost", AggSum))
	require.NoError(t, f.Aggregate("unblended_cost", AggAvg))

	frag := f.Compile()
	assert.Equal(t, "product_code", frag.GroupBy)
	assert.Equal(t, []string{
		"SUM(unblended_cost) AS unblended_cost_sum",
		"AVG(unblended_cost) AS unblended_cost_avg",
	}, frag.Aggregates)
}

func TestBuildFromClauses(t *testing.T) {
	clauses := []Clause{
		{Field: "product_code", Op: "in", Value: []interface{}{"AmazonEC2", "AmazonRDS"}},
		{Field: "unblended_cost", Op: "gt", Value: 5.0},
	}
	f, err := Build(testSchema(), clauses)
	require.NoError(t, err)

	frag := f.Compile()
	assert.Equal(t, "product_code IN (?,?) AND unblended_cost > ?", frag.Where)

	_, err = Build(testSchema(), []Clause{{Field: "bogus", Op: "eq", Value: 1}})
	assert.ErrorIs(t, err, ErrBadFilter)
}

func TestFacetFields(t *testing.T) {
	assert.Equal(t, []string{"product_code", "year"}, testSchema().FacetFields())
}
