// Package summary asks a language model for a logistics summary of the
// registrations. It is best-effort enrichment: nothing here writes to the
// registration collection.
package summary

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/gdg-garage/outing-registration-api/internal/models"
)

// Result is the model's answer.
type Result struct {
	Summary     string   `json:"summary"`
	KeyInsights []string `json:"key_insights"`
}

var snapshotHeader = []string{"name", "employee_id", "dietary", "carpool"}

// Snapshot renders the fields the summary looks at as CSV with a header row.
func Snapshot(regs []models.Registration) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(snapshotHeader)
	for _, r := range regs {
		_ = w.Write([]string{r.Name, r.EmployeeID, r.Dietary, string(r.Carpool)})
	}
	w.Flush()
	return buf.String()
}

// ParseResult decodes the model's JSON answer. Anything that does not decode
// becomes the summary text with no insights.
func ParseResult(text string) Result {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var raw struct {
		Summary        *string  `json:"summary"`
		KeyInsights    []string `json:"keyInsights"`
		KeyInsightsAlt []string `json:"key_insights"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &raw); err != nil || raw.Summary == nil {
		return Result{Summary: text, KeyInsights: []string{}}
	}

	insights := raw.KeyInsights
	if len(insights) == 0 {
		insights = raw.KeyInsightsAlt
	}
	if insights == nil {
		insights = []string{}
	}
	return Result{Summary: *raw.Summary, KeyInsights: insights}
}
