package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const reportColumns = `id, owner_id, file_name, original_data_summary, ai_analysis, feedback_history, is_favorite, created_at, updated_at`

// Create upserts the owner and inserts the report in one transaction.
func (r *PGRepo) Create(ctx context.Context, report Report) error {
	row, err := encodeRow(report)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return pgErr("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO users (id, created_at)
VALUES ($1, $2)
ON CONFLICT (id) DO NOTHING`, row.OwnerID, row.CreatedAt); err != nil {
		return pgErr("upsert user", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO analysis_reports (`+reportColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row.ID,
		row.OwnerID,
		row.FileName,
		string(row.Summary),
		string(row.Analysis),
		string(row.History),
		row.IsFavorite,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return pgErr("insert report", err)
	}
	if err := tx.Commit(); err != nil {
		return pgErr("commit", err)
	}
	return nil
}

// Get returns the owner's report.
func (r *PGRepo) Get(ctx context.Context, ownerID, reportID string) (Report, error) {
	query := `
SELECT ` + reportColumns + `
FROM analysis_reports
WHERE id = $1 AND owner_id = $2
LIMIT 1`
	row, err := scanReport(r.DB.QueryRowContext(ctx, query, reportID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, pgErr("get report", err)
	}
	return row.report(), nil
}

// List returns the owner's report projections, newest first.
func (r *PGRepo) List(ctx context.Context, ownerID string, q ListQuery) ([]Summary, error) {
	q = q.normalized()
	const query = `
SELECT id, file_name,
       ai_analysis->'analiz'->>'veriTuru',
       ai_analysis->'analiz'->>'sonuc',
       is_favorite, created_at, updated_at
FROM analysis_reports
WHERE owner_id = $1
  AND ($2::text = '' OR strpos(lower(file_name), lower($2::text)) > 0
       OR strpos(lower(COALESCE(ai_analysis->'analiz'->>'veriTuru', '')), lower($2::text)) > 0)
  AND (NOT $3::boolean OR is_favorite)
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, strings.TrimSpace(q.Search), q.OnlyFavorites, q.Limit, q.Offset)
	if err != nil {
		return nil, pgErr("list reports", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		var dataType, conclusion sql.NullString
		if err := rows.Scan(&s.ID, &s.FileName, &dataType, &conclusion, &s.IsFavorite, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, pgErr("scan report", err)
		}
		s.DataType = dataType.String
		s.ShortConclusion = shortConclusion(conclusion.String)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("list reports", err)
	}
	return out, nil
}

// SetFavorite updates the favorite flag.
func (r *PGRepo) SetFavorite(ctx context.Context, ownerID, reportID string, favorite bool) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE analysis_reports
SET is_favorite = $3, updated_at = $4
WHERE id = $1 AND owner_id = $2`, reportID, ownerID, favorite, nowUTC())
	if err != nil {
		return pgErr("set favorite", err)
	}
	return requireRow(res)
}

// Delete removes the owner's report.
func (r *PGRepo) Delete(ctx context.Context, ownerID, reportID string) error {
	res, err := r.DB.ExecContext(ctx, `
DELETE FROM analysis_reports
WHERE id = $1 AND owner_id = $2`, reportID, ownerID)
	if err != nil {
		return pgErr("delete report", err)
	}
	return requireRow(res)
}

// ApplyRevision sets ai_analysis.analiz and appends to feedback_history in one
// statement, so concurrent revisions never drop history entries. A stored
// history that is not an array is replaced and logged as corrupt.
func (r *PGRepo) ApplyRevision(ctx context.Context, ownerID, reportID string, rev Revision) (Report, error) {
	analiz, err := rev.Analiz.MarshalJSON()
	if err != nil {
		return Report{}, fmt.Errorf("%w: encode analiz: %w", ErrStorage, err)
	}
	entry, err := marshalEntry(rev.Entry)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	query := `
WITH prev AS (
    SELECT jsonb_typeof(feedback_history) AS history_kind
    FROM analysis_reports
    WHERE id = $1 AND owner_id = $2
    FOR UPDATE
)
UPDATE analysis_reports
SET ai_analysis = jsonb_set(
        CASE WHEN jsonb_typeof(ai_analysis) = 'object' THEN ai_analysis ELSE '{"grafikler": []}'::jsonb END,
        '{analiz}', $3::jsonb, true),
    feedback_history = (CASE WHEN jsonb_typeof(feedback_history) = 'array' THEN feedback_history ELSE '[]'::jsonb END)
        || jsonb_build_array($4::jsonb),
    updated_at = $5
FROM prev
WHERE id = $1 AND owner_id = $2
RETURNING ` + reportColumns + `, prev.history_kind`
	var priorKind sql.NullString
	row, err := scanReport(r.DB.QueryRowContext(ctx, query, reportID, ownerID, string(analiz), string(entry), rev.UpdatedAt), &priorKind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, pgErr("apply revision", err)
	}
	if priorKind.Valid && priorKind.String != "array" && priorKind.String != "null" {
		logHistoryReset(reportID, 0, "stored jsonb type "+priorKind.String)
	}
	return row.report(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReport scans reportColumns, followed by any extra destinations.
func scanReport(s rowScanner, extra ...any) (storedRow, error) {
	var row storedRow
	var summary, analysis, history sql.NullString
	dest := []any{
		&row.ID,
		&row.OwnerID,
		&row.FileName,
		&summary,
		&analysis,
		&history,
		&row.IsFavorite,
		&row.CreatedAt,
		&row.UpdatedAt,
	}
	err := s.Scan(append(dest, extra...)...)
	if err != nil {
		return storedRow{}, err
	}
	if summary.Valid {
		row.Summary = []byte(summary.String)
	}
	if analysis.Valid {
		row.Analysis = []byte(analysis.String)
	}
	if history.Valid {
		row.History = []byte(history.String)
	}
	return row, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return pgErr("rows affected", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func pgErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

var _ Repo = (*PGRepo)(nil)
