package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo stores reports in memory and is safe for concurrent use.
// Rows are kept in their encoded form so reads take the same decode path as Postgres.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]storedRow
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]storedRow)}
}

// Create stores the report.
func (r *MemoryRepo) Create(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := encodeRow(report)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[row.ID]; exists {
		return fmt.Errorf("%w: duplicate report id %s", ErrStorage, row.ID)
	}
	r.byID[row.ID] = row
	return nil
}

// Get returns the owner's report.
func (r *MemoryRepo) Get(ctx context.Context, ownerID, reportID string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.RLock()
	row, ok := r.byID[reportID]
	r.mu.RUnlock()
	if !ok || row.OwnerID != ownerID {
		return Report{}, ErrNotFound
	}
	return row.report(), nil
}

// List returns the owner's report projections, newest first.
func (r *MemoryRepo) List(ctx context.Context, ownerID string, q ListQuery) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = q.normalized()
	search := strings.ToLower(strings.TrimSpace(q.Search))

	r.mu.RLock()
	rows := make([]storedRow, 0)
	for _, row := range r.byID {
		if row.OwnerID == ownerID {
			rows = append(rows, row)
		}
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	out := make([]Summary, 0)
	skipped := 0
	for _, row := range rows {
		if q.OnlyFavorites && !row.IsFavorite {
			continue
		}
		dataType, conclusion := projectAnalysis(row.Analysis)
		if search != "" &&
			!strings.Contains(strings.ToLower(row.FileName), search) &&
			!strings.Contains(strings.ToLower(dataType), search) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, Summary{
			ID:              row.ID,
			FileName:        row.FileName,
			DataType:        dataType,
			ShortConclusion: shortConclusion(conclusion),
			IsFavorite:      row.IsFavorite,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		})
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// SetFavorite updates the favorite flag.
func (r *MemoryRepo) SetFavorite(ctx context.Context, ownerID, reportID string, favorite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[reportID]
	if !ok || row.OwnerID != ownerID {
		return ErrNotFound
	}
	row.IsFavorite = favorite
	row.UpdatedAt = nowUTC()
	r.byID[reportID] = row
	return nil
}

// Delete removes the owner's report.
func (r *MemoryRepo) Delete(ctx context.Context, ownerID, reportID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[reportID]
	if !ok || row.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.byID, reportID)
	return nil
}

// ApplyRevision swaps analiz and appends to history under one lock.
func (r *MemoryRepo) ApplyRevision(ctx context.Context, ownerID, reportID string, rev Revision) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[reportID]
	if !ok || row.OwnerID != ownerID {
		return Report{}, ErrNotFound
	}
	analysis, err := replaceAnaliz(row.Analysis, rev.Analiz)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	history, err := appendHistory(reportID, row.History, rev.Entry)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	row.Analysis = analysis
	row.History = history
	row.UpdatedAt = rev.UpdatedAt
	r.byID[reportID] = row
	return row.report(), nil
}

// projectAnalysis pulls the list fields from stored analysis JSON without full validation.
func projectAnalysis(raw []byte) (dataType, conclusion string) {
	var top struct {
		Analiz map[string]json.RawMessage `json:"analiz"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return "", ""
	}
	return rawText(top.Analiz["veriTuru"]), rawText(top.Analiz["sonuc"])
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

var _ Repo = (*MemoryRepo)(nil)
