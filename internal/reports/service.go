package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"report-backend/internal/extract"
	"report-backend/internal/llm"
	"report-backend/internal/shared/metrics"
	"report-backend/internal/shared/storage/object"
	"report-backend/internal/shared/telemetry"
	"report-backend/internal/shared/util"
)

// Service runs the analysis pipeline and the owner-scoped report operations.
type Service struct {
	Repo    Repo
	Staging object.ObjectStore
	// Archive keeps a copy of successfully analyzed uploads. Nil disables archiving.
	Archive        object.ObjectStore
	Gateway        llm.Gateway
	MaxUploadBytes int64
	Now            func() time.Time
}

// UploadResult is the outcome of one pipeline run.
type UploadResult struct {
	Report     Report
	Summary    extract.Summary
	Rejections []ChartRejection
}

// Analyze stages an upload, extracts and summarizes it, requests one analysis and
// stores the validated report. The staging slot is released on every path.
func (s *Service) Analyze(ctx context.Context, ownerID, fileName string, body io.Reader) (UploadResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return UploadResult{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	format, err := extract.ParseFormat(fileName)
	if err != nil {
		metrics.IncRejectedUploads()
		return UploadResult{}, err
	}

	key, size, _, err := s.Staging.Save(ctx, ownerID, fileName, body)
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			metrics.IncRejectedUploads()
			return UploadResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return UploadResult{}, fmt.Errorf("%w: stage upload: %w", ErrStorage, err)
	}
	defer s.releaseStaging(key)
	s.logStage("staged", "", format, map[string]any{"size_bytes": size})

	rec, data, err := extract.LoadObject(ctx, s.Staging, key, format, s.MaxUploadBytes)
	if err != nil {
		metrics.IncRejectedUploads()
		switch {
		case errors.Is(err, extract.ErrEmptyInput), errors.Is(err, extract.ErrUnsupportedFormat):
			return UploadResult{}, err
		case errors.Is(err, extract.ErrDecode), errors.Is(err, extract.ErrTooLarge):
			return UploadResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
		default:
			return UploadResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}
	summary := extract.Summarize(rec)
	s.logStage("extracted", "", format, map[string]any{"kind": string(rec.Kind), "row_count": summary.RowCount})

	raw, err := s.complete(ctx, llm.CallAnalysis, llm.CompileAnalysis(rec))
	if err != nil {
		return UploadResult{}, err
	}

	result, rejections, err := ParseAnalysis(raw)
	if err != nil {
		metrics.IncContractViolations()
		telemetry.Warn("report.pipeline", map[string]any{
			"stage":       "validate",
			"file_format": string(format),
			"error":       err,
			"raw_bytes":   len(raw),
		})
		return UploadResult{}, err
	}

	reportID := uuid.NewString()
	logRejections(reportID, rejections)

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: encode summary: %w", ErrStorage, err)
	}
	now := s.now()
	report := Report{
		ID:              reportID,
		OwnerID:         ownerID,
		FileName:        fileName,
		OriginalSummary: summaryJSON,
		AIAnalysis:      result,
		FeedbackHistory: []FeedbackEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, report); err != nil {
		return UploadResult{}, storageErr(err)
	}
	metrics.IncReportsCreated()
	s.archive(ctx, ownerID, fileName, data)
	s.logStage("stored", reportID, format, map[string]any{
		"charts":          len(result.Grafikler),
		"charts_rejected": len(rejections),
	})
	return UploadResult{Report: report, Summary: summary, Rejections: rejections}, nil
}

// Get returns the owner's report with corrupt fields replaced by defaults.
func (s *Service) Get(ctx context.Context, ownerID, reportID string) (Report, error) {
	if !validReportID(reportID) {
		return Report{}, ErrNotFound
	}
	report, err := s.Repo.Get(ctx, ownerID, reportID)
	if err != nil {
		return Report{}, storageErr(err)
	}
	return report, nil
}

// List returns the owner's report projections.
func (s *Service) List(ctx context.Context, ownerID string, q ListQuery) ([]Summary, error) {
	items, err := s.Repo.List(ctx, ownerID, q.normalized())
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

// SetFavorite toggles the favorite flag of the owner's report.
func (s *Service) SetFavorite(ctx context.Context, ownerID, reportID string, favorite bool) error {
	if !validReportID(reportID) {
		return ErrNotFound
	}
	return storageErr(s.Repo.SetFavorite(ctx, ownerID, reportID, favorite))
}

// Delete removes the owner's report.
func (s *Service) Delete(ctx context.Context, ownerID, reportID string) error {
	if !validReportID(reportID) {
		return ErrNotFound
	}
	if err := s.Repo.Delete(ctx, ownerID, reportID); err != nil {
		return storageErr(err)
	}
	metrics.IncReportsDeleted()
	telemetry.Info("report.deleted", map[string]any{"report_id": reportID})
	return nil
}

func (s *Service) complete(ctx context.Context, site llm.CallSite, prompt llm.Prompt) (string, error) {
	if s.Gateway == nil {
		return "", fmt.Errorf("%w: gateway not configured", llm.ErrInferenceUnavailable)
	}
	raw, err := s.Gateway.Complete(ctx, site, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrInferenceUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", llm.ErrInferenceUnavailable, err)
	}
	return raw, nil
}

func (s *Service) releaseStaging(key string) {
	// Cleanup must run even when the request context is already canceled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Staging.Delete(ctx, key); err != nil {
		telemetry.Error("staging.cleanup", map[string]any{"storage_key": key, "error": err})
	}
}

func (s *Service) archive(ctx context.Context, ownerID, fileName string, data []byte) {
	if s.Archive == nil {
		return
	}
	key, _, _, err := s.Archive.Save(ctx, ownerID, fileName, bytes.NewReader(data))
	if err != nil {
		telemetry.Warn("report.archive", map[string]any{"file_name": fileName, "error": err})
		return
	}
	telemetry.Info("report.archive", map[string]any{"storage_key": key})
}

func (s *Service) logStage(stage, reportID string, format extract.Format, extra map[string]any) {
	fields := map[string]any{"stage": stage, "file_format": string(format)}
	if reportID != "" {
		fields["report_id"] = reportID
	}
	for k, v := range extra {
		fields[k] = v
	}
	telemetry.Info("report.pipeline", fields)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return nowUTC()
}

func logRejections(reportID string, rejections []ChartRejection) {
	if len(rejections) == 0 {
		return
	}
	metrics.AddChartsRejected(len(rejections))
	for _, r := range rejections {
		telemetry.Warn("report.charts.rejected", map[string]any{
			"report_id": reportID,
			"index":     r.Index,
			"title":     r.Title,
			"reason":    r.Reason,
			"error":     ErrChartEntryInvalid,
		})
	}
}

func storageErr(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func validReportID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
