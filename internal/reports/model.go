package reports

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"report-backend/internal/llm"
)

// Sections maps registry keys to a string or a []string.
type Sections map[string]any

// MarshalJSON writes sections in registry order.
func (s Sections) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(s))
	for _, sec := range llm.Registry() {
		if _, ok := s[sec.Key]; ok {
			keys = append(keys, sec.Key)
		}
	}
	var extra []string
	for k := range s {
		if _, known := llm.LookupSection(k); !known {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes and normalizes sections against the registry.
func (s *Sections) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = normalizeSections(raw)
	return nil
}

// Text returns a text section, or the joined items of a list section.
func (s Sections) Text(key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case []string:
		return joinLines(v)
	default:
		return ""
	}
}

// ChartConfig is the Chart.js-compatible data block of a chart.
type ChartConfig struct {
	Labels   []any            `json:"labels"`
	Datasets []map[string]any `json:"datasets"`
	Options  map[string]any   `json:"options,omitempty"`
}

// ChartSpec is one chart recommendation.
type ChartSpec struct {
	Title            string      `json:"title"`
	Type             string      `json:"type"`
	Description      string      `json:"description"`
	ChartConfig      ChartConfig `json:"chartConfig"`
	DataSources      []string    `json:"dataSources"`
	BusinessDecision string      `json:"businessDecision"`
}

// ChartRejection records a chart entry dropped by validation.
type ChartRejection struct {
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// AnalysisResult is the validated inference output.
type AnalysisResult struct {
	Analiz    Sections    `json:"analiz"`
	Grafikler []ChartSpec `json:"grafikler"`
}

// RevisedAnalysis is the partial result stored with each feedback entry.
type RevisedAnalysis struct {
	Analiz Sections `json:"analiz"`
}

// FeedbackEntry is an immutable revision record.
type FeedbackEntry struct {
	UserInput       string          `json:"userInput"`
	RevisedAnalysis RevisedAnalysis `json:"revisedAnalysis"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Report is a persisted analysis report.
type Report struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"-"`
	FileName        string          `json:"fileName"`
	OriginalSummary json.RawMessage `json:"originalSummary"`
	AIAnalysis      AnalysisResult  `json:"aiAnalysis"`
	FeedbackHistory []FeedbackEntry `json:"feedbackHistory"`
	IsFavorite      bool            `json:"isFavorite"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Summary is the list projection of a report.
type Summary struct {
	ID              string    `json:"id"`
	FileName        string    `json:"fileName"`
	DataType        string    `json:"dataType"`
	ShortConclusion string    `json:"shortConclusion"`
	IsFavorite      bool      `json:"isFavorite"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ListQuery filters and pages the list projection.
type ListQuery struct {
	Search        string
	OnlyFavorites bool
	Limit         int
	Offset        int
}

const (
	defaultListLimit   = 100
	maxListLimit       = 500
	shortConclusionMax = 150
)

func (q ListQuery) normalized() ListQuery {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Revision is the atomic unit applied to a stored report.
type Revision struct {
	Analiz    Sections
	Entry     FeedbackEntry
	UpdatedAt time.Time
}
