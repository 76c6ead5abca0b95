package extract

import "report-backend/internal/shared/util"

const (
	SampleRows       = 5
	SummaryTextRunes = 2000
	PromptRows       = 50
	PromptTextRunes  = 5000
)

// Summary is the compact form of a record persisted with each report.
type Summary struct {
	Kind     Kind     `json:"kind"`
	Headers  []string `json:"headers,omitempty"`
	RowCount int      `json:"rowCount"`
	Sample   []Row    `json:"sample,omitempty"`
	Content  string   `json:"content,omitempty"`
}

// Summarize keeps the first rows of a table or the leading text of a document.
func Summarize(rec Record) Summary {
	if rec.Kind == KindTable && rec.Table != nil {
		n := len(rec.Table.Rows)
		if n > SampleRows {
			n = SampleRows
		}
		sample := make([]Row, n)
		for i := 0; i < n; i++ {
			sample[i] = rec.Table.Rows[i].clone()
		}
		return Summary{
			Kind:     KindTable,
			Headers:  append([]string(nil), rec.Table.Headers...),
			RowCount: len(rec.Table.Rows),
			Sample:   sample,
		}
	}
	return Summary{
		Kind:    KindText,
		Content: util.TruncateRunes(rec.Text, SummaryTextRunes),
	}
}
