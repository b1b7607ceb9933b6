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

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// invalid sheet-name characters per the xlsx format, plus the 31-char cap.
var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// WriteXLSX writes one sheet per result label. When templatePath is set the
// workbook starts from that file and its first sheet is dropped after the
// data sheets are in place; otherwise a fresh workbook is used.
func WriteXLSX(w io.Writer, results ResultSet, templatePath string) error {
	var f *excelize.File
	var err error
	if templatePath != "" {
		f, err = excelize.OpenFile(templatePath)
		if err != nil {
			return fmt.Errorf("failed to open workbook template: %w", err)
		}
	} else {
		f = excelize.NewFile()
	}
	defer f.Close()

	placeholder := f.GetSheetName(0)

	labels := make([]string, 0, len(results))
	for label := range results {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		sheet := sheetName(label)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		for rowIdx, row := range results[label] {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("failed to address row %d: %w", rowIdx+1, err)
			}
			values := make([]interface{}, len(row))
			for i, v := range row {
				values[i] = v
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write sheet %s: %w", sheet, err)
			}
		}
	}

	if len(labels) > 0 && placeholder != "" {
		if _, ok := results[placeholder]; !ok {
			if err := f.DeleteSheet(placeholder); err != nil {
				return fmt.Errorf("failed to drop placeholder sheet: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func sheetName(label string) string {
	name := sheetNameReplacer.Replace(label)
	if name == "" {
		name = "results"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
