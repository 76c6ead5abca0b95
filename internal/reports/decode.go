package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"report-backend/internal/shared/telemetry"
)

var errNotObject = errors.New("value is not a JSON object")

// decodeOrDefault decodes a stored JSON column. NULL yields the default silently;
// corrupt data yields the default and a report.field.corrupt diagnostic.
func decodeOrDefault[T any](reportID, field string, raw []byte, decode func([]byte) (T, error), fallback func() T) T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fallback()
	}
	value, err := decode(trimmed)
	if err != nil {
		telemetry.Warn("report.field.corrupt", map[string]any{
			"report_id": reportID,
			"field":     field,
			"error":     err,
			"bytes":     len(raw),
		})
		return fallback()
	}
	return value
}

func emptySummary() json.RawMessage { return json.RawMessage(`{}`) }

func emptyAnalysis() AnalysisResult {
	return AnalysisResult{Analiz: Sections{}, Grafikler: []ChartSpec{}}
}

func emptyHistory() []FeedbackEntry { return []FeedbackEntry{} }

func decodeSummary(raw []byte) (json.RawMessage, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return json.RawMessage(append([]byte(nil), raw...)), nil
}

// decodeAnalysis runs stored analysis through the same lenient rules as fresh
// completions, so legacy rows with aliased chart keys still render.
func decodeAnalysis(raw []byte) (AnalysisResult, error) {
	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return AnalysisResult{}, err
	}
	if top == nil {
		return AnalysisResult{}, errNotObject
	}
	if v, ok := top["analiz"]; ok && v != nil {
		if _, isObj := v.(map[string]any); !isObj {
			return AnalysisResult{}, fmt.Errorf("analiz: %w", errNotObject)
		}
	}
	result, _ := normalizeResult(top)
	return result, nil
}

func decodeHistory(raw []byte) ([]FeedbackEntry, error) {
	var entries []FeedbackEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []FeedbackEntry{}
	}
	for i := range entries {
		if entries[i].RevisedAnalysis.Analiz == nil {
			entries[i].RevisedAnalysis.Analiz = Sections{}
		}
	}
	return entries, nil
}

// storedRow is the raw column form shared by both repositories.
type storedRow struct {
	ID         string
	OwnerID    string
	FileName   string
	Summary    []byte
	Analysis   []byte
	History    []byte
	IsFavorite bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r storedRow) report() Report {
	return Report{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		FileName:        r.FileName,
		OriginalSummary: decodeOrDefault(r.ID, "original_data_summary", r.Summary, decodeSummary, emptySummary),
		AIAnalysis:      decodeOrDefault(r.ID, "ai_analysis", r.Analysis, decodeAnalysis, emptyAnalysis),
		FeedbackHistory: decodeOrDefault(r.ID, "feedback_history", r.History, decodeHistory, emptyHistory),
		IsFavorite:      r.IsFavorite,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func encodeRow(report Report) (storedRow, error) {
	summary := report.OriginalSummary
	if len(summary) == 0 {
		summary = emptySummary()
	}
	result := report.AIAnalysis
	if result.Analiz == nil {
		result.Analiz = Sections{}
	}
	if result.Grafikler == nil {
		result.Grafikler = []ChartSpec{}
	}
	analysis, err := json.Marshal(result)
	if err != nil {
		return storedRow{}, fmt.Errorf("encode ai_analysis: %w", err)
	}
	history := report.FeedbackHistory
	if history == nil {
		history = emptyHistory()
	}
	historyRaw, err := json.Marshal(history)
	if err != nil {
		return storedRow{}, fmt.Errorf("encode feedback_history: %w", err)
	}
	return storedRow{
		ID:         report.ID,
		OwnerID:    report.OwnerID,
		FileName:   report.FileName,
		Summary:    append([]byte(nil), summary...),
		Analysis:   analysis,
		History:    historyRaw,
		IsFavorite: report.IsFavorite,
		CreatedAt:  report.CreatedAt,
		UpdatedAt:  report.UpdatedAt,
	}, nil
}
