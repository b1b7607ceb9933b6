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
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Column headers expected in an uploaded template sheet. The legacy header
// spelling is preserved for compatibility with existing customer exports.
var uploadHeaderMap = map[string]string{
	"Master Category":    "category",
	"Master Type":        "category_type",
	"Query Type":         "query_type",
	"Query Sub Type":     "query_subtype",
	"Query (Legasy CUR)": "query",
}

// UploadCSV parses a CSV template sheet and bulk-creates its rows.
// Rows with an empty query cell are skipped.
func (s *Service) UploadCSV(ctx context.Context, r io.Reader) ([]Template, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ErrBadUpload
	}

	fields := make(map[int]string)
	for i, name := range header {
		if mapped, ok := uploadHeaderMap[strings.TrimSpace(name)]; ok {
			fields[i] = mapped
		}
	}
	if len(fields) != len(uploadHeaderMap) {
		return nil, fmt.Errorf("%w: missing required columns", ErrBadUpload)
	}

	var inputs []CreateInput
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadUpload, err)
		}

		var in CreateInput
		for i, cell := range record {
			switch fields[i] {
			case "category":
				in.Category = strings.TrimSpace(cell)
			case "category_type":
				in.CategoryType = strings.TrimSpace(cell)
			case "query_type":
				in.QueryType = strings.TrimSpace(cell)
			case "query_subtype":
				in.QuerySubtype = strings.TrimSpace(cell)
			case "query":
				in.Query = strings.TrimSpace(cell)
			}
		}
		if in.Query == "" {
			continue
		}
		inputs = append(inputs, in)
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no usable rows", ErrBadUpload)
	}
	return s.CreateMany(ctx, inputs)
}
