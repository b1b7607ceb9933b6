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

package query

import (
	"github.com/xwb1989/sqlparser"
)

// ExtractColumns derives the output column names of a template by parsing
// its top-level SELECT projection. Aliased expressions contribute their
// alias; bare column references contribute the column name; anything else
// (stars, unaliased computed expressions) is omitted.
//
// Substitution tokens are replaced with placeholder values first so the
// text parses. A query that still fails to parse, or that is not a SELECT,
// yields an empty column list rather than an error.
func ExtractColumns(text string) []string {
	rendered := Render(text, RenderParams{
		Table:  "table_name",
		Years:  []string{"2024"},
		Months: []string{"01"},
	})

	stmt, err := sqlparser.Parse(rendered)
	if err != nil {
		return nil
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil
	}

	var columns []string
	for _, expr := range sel.SelectExprs {
		aliased, ok := expr.(*sqlparser.AliasedExpr)
		if !ok {
			continue
		}
		if !aliased.As.IsEmpty() {
			columns = append(columns, aliased.As.String())
			continue
		}
		if col, ok := aliased.Expr.(*sqlparser.ColName); ok {
			columns = append(columns, col.Name.String())
		}
	}
	return columns
}
