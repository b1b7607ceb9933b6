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

package costdata

import (
	"fmt"
	"html"
	"strings"
)

// buildOwnerEmail renders one owner's notification: a savings recap plus a
// per-resource table, in plain text and HTML.
func buildOwnerEmail(records []Record) (subject, text, htmlBody string) {
	var potential, achieved float64
	for _, rec := range records {
		switch rec.OwnerStatus {
		case "COMPLETED":
			achieved += rec.UnblendedCost
		case "", "TODO", "WIP":
			potential += rec.UnblendedCost
		}
	}

	subject = fmt.Sprintf("Cost optimization: %d resources need your attention", len(records))

	var tb strings.Builder
	fmt.Fprintf(&tb, "You own %d resources with open cost-optimization findings.\n", len(records))
	fmt.Fprintf(&tb, "Potential savings: $%.2f\nAchieved savings: $%.2f\n\n", potential, achieved)
	for _, rec := range records {
		status := rec.OwnerStatus
		if status == "" {
			status = "TODO"
		}
		fmt.Fprintf(&tb, "- %s (%s, %s): $%.2f [%s]\n",
			rec.ResourceID, rec.ProductCode, rec.Region, rec.UnblendedCost, status)
	}
	text = tb.String()

	var hb strings.Builder
	hb.WriteString("<html><body>")
	fmt.Fprintf(&hb, "<p>You own <b>%d</b> resources with open cost-optimization findings.</p>", len(records))
	fmt.Fprintf(&hb, "<p>Potential savings: <b>$%.2f</b><br/>Achieved savings: <b>$%.2f</b></p>", potential, achieved)
	hb.WriteString(`<table border="1" cellpadding="4" cellspacing="0">`)
	hb.WriteString("<tr><th>Resource</th><th>Product</th><th>Region</th><th>Unblended Cost</th><th>Status</th></tr>")
	for _, rec := range records {
		status := rec.OwnerStatus
		if status == "" {
			status = "TODO"
		}
		fmt.Fprintf(&hb, "<tr><td>%s</td><td>%s</td><td>%s</td><td>$%.2f</td><td>%s</td></tr>",
			html.EscapeString(rec.ResourceID), html.EscapeString(rec.ProductCode),
			html.EscapeString(rec.Region), rec.UnblendedCost, html.EscapeString(status))
	}
	hb.WriteString("</table></body></html>")
	htmlBody = hb.String()

	return subject, text, htmlBody
}
