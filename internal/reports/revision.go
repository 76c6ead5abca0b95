package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"report-backend/internal/llm"
	"report-backend/internal/shared/metrics"
	"report-backend/internal/shared/telemetry"
)

// MaxFeedbackRunes bounds the feedback text accepted for one revision.
const MaxFeedbackRunes = 4000

// Revise regenerates the owner's analysis narrative from feedback. Charts are
// neither re-sent nor touched. On any failure the stored report is unchanged.
func (s *Service) Revise(ctx context.Context, ownerID, reportID, feedback string) (Report, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return Report{}, fmt.Errorf("%w: feedbackText is required", ErrValidation)
	}
	if utf8.RuneCountInString(feedback) > MaxFeedbackRunes {
		return Report{}, fmt.Errorf("%w: feedbackText exceeds %d characters", ErrValidation, MaxFeedbackRunes)
	}

	current, err := s.Get(ctx, ownerID, reportID)
	if err != nil {
		return Report{}, err
	}

	previous, err := json.Marshal(current.AIAnalysis.Analiz)
	if err != nil {
		return Report{}, fmt.Errorf("%w: encode analiz: %w", ErrStorage, err)
	}
	raw, err := s.complete(ctx, llm.CallRevision, llm.CompileRevision(previous, feedback))
	if err != nil {
		telemetry.Warn("report.revision", map[string]any{"report_id": reportID, "stage": "inference", "error": err})
		return Report{}, err
	}
	analiz, err := ParseRevision(raw)
	if err != nil {
		metrics.IncContractViolations()
		telemetry.Warn("report.revision", map[string]any{"report_id": reportID, "stage": "validate", "error": err})
		return Report{}, err
	}

	now := s.now()
	rev := Revision{
		Analiz: analiz,
		Entry: FeedbackEntry{
			UserInput:       feedback,
			RevisedAnalysis: RevisedAnalysis{Analiz: analiz},
			CreatedAt:       now,
		},
		UpdatedAt: now,
	}
	updated, err := s.Repo.ApplyRevision(ctx, ownerID, reportID, rev)
	if err != nil {
		return Report{}, storageErr(err)
	}
	metrics.IncRevisions()
	telemetry.Info("report.revision", map[string]any{
		"report_id":     reportID,
		"stage":         "stored",
		"history_count": len(updated.FeedbackHistory),
	})
	return updated, nil
}

// replaceAnaliz sets the analiz member of stored analysis JSON. Every other
// member, grafikler included, keeps its stored bytes.
func replaceAnaliz(stored []byte, analiz Sections) ([]byte, error) {
	members := map[string]json.RawMessage{}
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &members); err != nil || members == nil {
			members = map[string]json.RawMessage{}
		}
	}
	raw, err := json.Marshal(analiz)
	if err != nil {
		return nil, fmt.Errorf("encode analiz: %w", err)
	}
	members["analiz"] = raw
	if _, ok := members["grafikler"]; !ok {
		members["grafikler"] = json.RawMessage(`[]`)
	}
	return json.Marshal(members)
}

// appendHistory appends one entry to stored history JSON. A stored value that
// is not an array starts a new history and is logged as corrupt.
func appendHistory(reportID string, stored []byte, entry FeedbackEntry) ([]byte, error) {
	var items []json.RawMessage
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &items); err != nil {
			logHistoryReset(reportID, len(stored), err)
			items = nil
		}
	}
	raw, err := marshalEntry(entry)
	if err != nil {
		return nil, err
	}
	items = append(items, raw)
	return json.Marshal(items)
}

// logHistoryReset records that a revision replaced a feedback_history value
// that was not an array.
func logHistoryReset(reportID string, size int, cause any) {
	telemetry.Warn("report.field.corrupt", map[string]any{
		"report_id": reportID,
		"field":     "feedback_history",
		"action":    "reset",
		"error":     cause,
		"bytes":     size,
	})
}

func marshalEntry(entry FeedbackEntry) ([]byte, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode feedback entry: %w", err)
	}
	return raw, nil
}
