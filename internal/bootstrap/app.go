package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"report-backend/internal/llm"
	openai "report-backend/internal/llm/openai"
	"report-backend/internal/reports"
	"report-backend/internal/services/health"
	"report-backend/internal/shared/auth"
	"report-backend/internal/shared/config"
	"report-backend/internal/shared/server"
	"report-backend/internal/shared/server/middleware"
	"report-backend/internal/shared/storage/db"
	"report-backend/internal/shared/storage/object"
	localstore "report-backend/internal/shared/storage/object/local"
	miniostore "report-backend/internal/shared/storage/object/minio"
	s3store "report-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Staging       object.ObjectStore
	Archive       object.ObjectStore
	Gateway       llm.Gateway
	Verifier      *auth.Verifier
	Limiter       *middleware.RateLimiter
	ReportsRepo   reports.Repo
	ReportService *reports.Service
	ReportHandler *reports.Handler
	Health        *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := openai.NewGateway(llmConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("inference gateway: %w", err)
	}
	if _, disabled := gateway.(llm.Disabled); disabled {
		log.Printf("bootstrap: OPENAI_API_KEY empty; inference requests will fail")
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, config.IsDevLike(cfg.Env))
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Staging:  localstore.New(cfg.StagingDir),
		Archive:  archive,
		Gateway:  gateway,
		Verifier: verifier,
		Limiter:  middleware.NewRateLimiter(nil),
		Health:   health.NewService(sqlDB),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        app.Config,
		Verifier:      app.Verifier,
		Limiter:       app.Limiter,
		Health:        app.Health,
		ReportHandler: app.ReportHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ArchiveStore {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("ARCHIVE_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinIOEndpoint,
			Region:    cfg.MinIORegion,
			Bucket:    cfg.MinIOBucket,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
		})
	default:
		return nil, nil
	}
}

func llmConfig(cfg config.Config) llm.Config {
	return llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
		Analysis: llm.Params{
			MaxTokens:   cfg.LLMAnalysisMaxTokens,
			Temperature: cfg.LLMAnalysisTemperature,
		},
		Revision: llm.Params{
			MaxTokens:   cfg.LLMRevisionMaxTokens,
			Temperature: cfg.LLMRevisionTemperature,
		},
	}
}

func buildServices(app *App) {
	var repo reports.Repo
	if app.DB != nil {
		repo = &reports.PGRepo{DB: app.DB}
	} else {
		repo = reports.NewMemoryRepo()
	}

	svc := &reports.Service{
		Repo:           repo,
		Staging:        app.Staging,
		Gateway:        app.Gateway,
		Archive:        app.Archive,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}

	app.ReportsRepo = repo
	app.ReportService = svc
	app.ReportHandler = reports.NewHandler(svc)
}
