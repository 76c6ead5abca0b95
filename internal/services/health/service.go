package health

import (
	"context"
	"database/sql"
	"time"

	"report-backend/internal/shared/storage/db"
)

const defaultPingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB          *sql.DB
	PingTimeout time.Duration
}

// NewService constructs a new health service. A nil database means in-memory repositories.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database, PingTimeout: defaultPingTimeout}
}

// Status reports the health payload and whether the service is ready to serve.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	if s.DB == nil {
		return map[string]any{"ok": true, "storage": "memory"}, true
	}
	if err := db.Ping(ctx, s.DB, s.PingTimeout); err != nil {
		return map[string]any{"ok": false, "storage": "postgres", "error": "database unreachable"}, false
	}
	return map[string]any{"ok": true, "storage": "postgres"}, true
}
