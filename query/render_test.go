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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderAllTokens(t *testing.T) {
	text := "SELECT * FROM ${table_name}$ WHERE year IN (${year}$) AND month IN (${month}$)"

	out := Render(text, RenderParams{
		Table:  "cur_db.billing",
		Years:  []string{"2024", "2025"},
		Months: []string{"03"},
	})

	assert.Equal(t, "SELECT * FROM cur_db.billing WHERE year IN ('2024','2025') AND month IN ('03')", out)
}

func TestRenderLeavesNoTokenResidue(t *testing.T) {
	text := "SELECT a, b AS bb FROM ${table_name}$ WHERE year IN (${year}$) AND month IN (${month}$)"

	out := Render(text, RenderParams{
		Table:  "billing",
		Years:  []string{"2024", "2025"},
		Months: []string{"07"},
	})

	assert.NotContains(t, out, "$")
	assert.NotContains(t, out, "{")
	assert.Contains(t, out, "'2024','2025'")
	assert.Contains(t, out, "'07'")
}

func TestRenderAbsentTokensNoOp(t *testing.T) {
	text := "SELECT service, cost FROM ${table_name}$"

	out := Render(text, RenderParams{
		Table:  "billing",
		Years:  []string{"2024"},
		Months: []string{"07"},
	})

	assert.Equal(t, "SELECT service, cost FROM billing", out)
}

func TestRenderTokensIndependent(t *testing.T) {
	// A query using only the month token is untouched elsewhere.
	text := "SELECT cost FROM t WHERE month IN (${month}$)"

	out := Render(text, RenderParams{Months: []string{"11", "12"}})

	assert.Equal(t, "SELECT cost FROM t WHERE month IN ('11','12')", out)
}

func TestRenderSingleYear(t *testing.T) {
	out := Render("${year}$", RenderParams{Years: []string{"2023"}})
	assert.Equal(t, "'2023'", out)
}

func TestRenderNoParams(t *testing.T) {
	text := "SELECT 1"
	assert.Equal(t, text, Render(text, RenderParams{}))
}

func TestRenderEachValueAppearsOnce(t *testing.T) {
	text := "SELECT c FROM ${table_name}$ WHERE year IN (${year}$) AND month IN (${month}$)"

	out := Render(text, RenderParams{
		Table:  "t",
		Years:  []string{"2024", "2025"},
		Months: []string{"01"},
	})

	assert.Equal(t, 1, strings.Count(out, "'2024'"))
	assert.Equal(t, 1, strings.Count(out, "'2025'"))
	assert.Equal(t, 1, strings.Count(out, "'01'"))
}

func TestHashQueryStable(t *testing.T) {
	a := HashQuery("SELECT 1")
	b := HashQuery("SELECT 1")
	c := HashQuery("SELECT 2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
