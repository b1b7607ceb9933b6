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

import "strings"

// Substitution tokens recognized in template text.
const (
	TokenTable = "${table_name}$"
	TokenYear  = "${year}$"
	TokenMonth = "${month}$"
)

// RenderParams carries the values substituted into a template.
type RenderParams struct {
	Table  string
	Years  []string
	Months []string
}

// Render performs literal token substitution on the template text.
// Each token is independent; a token absent from the text is a no-op.
// The SQL itself is never interpreted here.
func Render(text string, params RenderParams) string {
	out := strings.ReplaceAll(text, TokenTable, params.Table)
	out = strings.ReplaceAll(out, TokenYear, quoteJoin(params.Years))
	out = strings.ReplaceAll(out, TokenMonth, quoteJoin(params.Months))
	return out
}

// quoteJoin renders a value list as 'v1','v2' for use inside IN (...).
func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ",")
}
