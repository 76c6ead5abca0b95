package reports

import (
	"context"

	"report-backend/internal/shared/util"
)

// Repo defines owner-scoped persistence for reports. Operations on a report
// the owner does not hold return ErrNotFound, exactly as for a missing id.
type Repo interface {
	Create(ctx context.Context, report Report) error
	Get(ctx context.Context, ownerID, reportID string) (Report, error)
	List(ctx context.Context, ownerID string, q ListQuery) ([]Summary, error)
	SetFavorite(ctx context.Context, ownerID, reportID string, favorite bool) error
	Delete(ctx context.Context, ownerID, reportID string) error
	// ApplyRevision replaces aiAnalysis.analiz and appends the history entry as one update.
	ApplyRevision(ctx context.Context, ownerID, reportID string, rev Revision) (Report, error)
}

func shortConclusion(s string) string {
	cut := util.TruncateRunes(s, shortConclusionMax)
	if cut != s {
		return cut + "..."
	}
	return s
}
