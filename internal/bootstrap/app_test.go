package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"report-backend/internal/llm"
	"report-backend/internal/reports"
	"report-backend/internal/shared/config"
)

func TestBuildDevFallsBackToMemory(t *testing.T) {
	app, err := Build(config.Config{
		Env:            "dev",
		StagingDir:     t.TempDir(),
		ArchiveStore:   "none",
		LLMModel:       "gpt-4o",
		MaxUploadBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected no database")
	}
	if _, ok := app.ReportsRepo.(*reports.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.ReportsRepo)
	}
	if _, ok := app.Gateway.(llm.Disabled); !ok {
		t.Fatalf("expected disabled gateway, got %T", app.Gateway)
	}
	if app.Archive != nil {
		t.Fatalf("expected no archive store")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}
}

func TestBuildProductionRequirements(t *testing.T) {
	if _, err := Build(config.Config{Env: "production", StagingDir: t.TempDir(), JWTSecret: "s"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestBuildRejectsIncompleteArchive(t *testing.T) {
	if _, err := Build(config.Config{Env: "dev", StagingDir: t.TempDir(), ArchiveStore: "s3"}); err == nil {
		t.Fatalf("expected error for s3 archive without bucket")
	}
	if _, err := Build(config.Config{Env: "dev", StagingDir: t.TempDir(), ArchiveStore: "minio"}); err == nil {
		t.Fatalf("expected error for minio archive without endpoint")
	}
}
