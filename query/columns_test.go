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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractColumnsAliasAndBare(t *testing.T) {
	cols := ExtractColumns("SELECT a, b AS bb FROM t")
	assert.Equal(t, []string{"a", "bb"}, cols)
}

func TestExtractColumnsWithTokens(t *testing.T) {
	cols := ExtractColumns(
		"SELECT service, SUM(cost) AS total_cost FROM ${table_name}$ WHERE year IN (${year}$) AND month IN (${month}$) GROUP BY service",
	)
	assert.Equal(t, []string{"service", "total_cost"}, cols)
}

func TestExtractColumnsTokenizedScenario(t *testing.T) {
	cols := ExtractColumns("SELECT a, b AS bb FROM ${table_name}$ WHERE year IN (${year}$)")
	assert.Equal(t, []string{"a", "bb"}, cols)
}

func TestExtractColumnsOmitsUnaliasedExpressions(t *testing.T) {
	// The computed expression carries no alias, so it contributes nothing.
	cols := ExtractColumns("SELECT a, SUM(b), c FROM t GROUP BY a, c")
	assert.Equal(t, []string{"a", "c"}, cols)
}

func TestExtractColumnsStarOmitted(t *testing.T) {
	cols := ExtractColumns("SELECT * FROM t")
	assert.Empty(t, cols)
}

func TestExtractColumnsUnparseable(t *testing.T) {
	assert.Nil(t, ExtractColumns("this is not sql"))
}

func TestExtractColumnsNonSelect(t *testing.T) {
	assert.Nil(t, ExtractColumns("UPDATE t SET a = 1"))
}
