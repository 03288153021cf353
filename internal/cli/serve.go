package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/seekr-dev/seekr/internal/api/handlers"
	"github.com/seekr-dev/seekr/internal/chunker"
	"github.com/seekr-dev/seekr/internal/chunker/languages"
	"github.com/seekr-dev/seekr/internal/config"
	"github.com/seekr-dev/seekr/internal/database"
	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/embedding"
	"github.com/seekr-dev/seekr/internal/indexer"
	"github.com/seekr-dev/seekr/internal/jobs"
	"github.com/seekr-dev/seekr/internal/provider"
	"github.com/seekr-dev/seekr/internal/rag"
	"github.com/seekr-dev/seekr/internal/server"
	"github.com/seekr-dev/seekr/internal/session"
	"github.com/seekr-dev/seekr/internal/storage"
	"github.com/seekr-dev/seekr/internal/telemetry"
	"github.com/seekr-dev/seekr/internal/vectorstore"
	"github.com/seekr-dev/seekr/internal/vectorstore/memory"
	"github.com/seekr-dev/seekr/internal/vectorstore/pgvector"
	"github.com/seekr-dev/seekr/internal/vectorstore/qdrant"
)

const (
	defaultOllamaEmbedModel = "nomic-embed-text"
	defaultOllamaEmbedDims  = 768
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the seekr API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup (pgvector backend)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	embedSvc, cache, err := buildEmbedding(ctx, cfg)
	if err != nil {
		return err
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	store, closeStore, err := buildStore(ctx, cfg, noMigrate)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureCollection(ctx, embedSvc.Dimensions()); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	registry := buildRegistry(cfg)

	mode, err := domain.ParseProcessingMode(cfg.ProcessingMode)
	if err != nil {
		return fmt.Errorf("invalid processing mode: %w", err)
	}

	orchestrator := rag.NewOrchestrator(embedSvc, store, registry, mode, cfg.PreferredProvider)

	chk := chunker.New(languages.Default())
	ix := indexer.New(chk, embedSvc, store, cfg.MaxChunkSize, cfg.IndexWorkers)

	sessions := session.NewManager(cfg.SessionIdleTimeout)

	worker := jobs.NewWorker(cfg.SweepInterval,
		jobs.TaskFunc{TaskName: "provider_sweep", Fn: func(ctx context.Context) error {
			registry.Sweep(ctx)
			return nil
		}},
		jobs.TaskFunc{TaskName: "session_sweep", Fn: sessions.SweepIdle},
		jobs.TaskFunc{TaskName: "cache_persist", Fn: func(ctx context.Context) error {
			cache.Persist(ctx)
			return nil
		}},
	)
	go worker.Start(ctx)

	routerCfg := server.RouterConfig{
		RAGHandler:    handlers.NewRAGHandler(orchestrator),
		IndexHandler:  handlers.NewIndexHandler(ix, sessions, cfg.WorkspaceRoot),
		HealthHandler: handlers.NewHealthHandler(store, registry),
		StreamHandler: handlers.NewStreamHandler(sessions, orchestrator),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	worker.Stop()
	sessions.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	cache.Persist(shutdownCtx)

	log.Println("server exited")
	return nil
}

// buildEmbedding assembles the embedding backend, its snapshot-backed
// cache, and the batching service on top of both.
func buildEmbedding(ctx context.Context, cfg *config.Config) (*embedding.Service, *embedding.Cache, error) {
	var backend embedding.Backend
	switch cfg.EmbedBackend {
	case "openai":
		if !cfg.HasOpenAI() {
			return nil, nil, fmt.Errorf("embed backend openai requires SEEKR_OPENAI_API_KEY")
		}
		model := embedding.DefaultOpenAIModel
		if cfg.EmbedModel != "" {
			model = openai.EmbeddingModel(cfg.EmbedModel)
		}
		dims := cfg.EmbedDimensions
		if dims <= 0 {
			dims = embedding.DefaultOpenAIDimensions
		}
		backend = embedding.NewOpenAIBackend(cfg.OpenAIAPIKey, model, dims, cfg.RequestTimeout)
	case "ollama", "":
		model := cfg.EmbedModel
		if model == "" {
			model = defaultOllamaEmbedModel
		}
		dims := cfg.EmbedDimensions
		if dims <= 0 {
			dims = defaultOllamaEmbedDims
		}
		backend = embedding.NewOllamaBackend(cfg.OllamaURL, model, dims, cfg.RequestTimeout)
	default:
		return nil, nil, fmt.Errorf("unknown embed backend: %s", cfg.EmbedBackend)
	}

	fileStore, err := storage.NewFileStore(cfg.EmbedCacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	var snapshots storage.SnapshotStore = fileStore
	if cfg.HasS3() {
		s3Store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Prefix:          "embeddings",
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 store: %w", err)
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready, mirroring cache snapshots", cfg.S3Bucket)
		snapshots = storage.NewMirror(fileStore, s3Store)
	}

	cache := embedding.NewCache(backend.Model(), snapshots, cfg.EmbedCacheMaxEntries)
	cache.Load(ctx)

	return embedding.NewService(backend, cache, cfg.EmbedBatchSize), cache, nil
}

// buildStore assembles the configured vector store backend. The returned
// func releases backend resources.
func buildStore(ctx context.Context, cfg *config.Config, noMigrate bool) (vectorstore.Store, func(), error) {
	switch cfg.StoreBackend {
	case "pgvector":
		if !cfg.HasPostgres() {
			return nil, nil, fmt.Errorf("store backend pgvector requires SEEKR_DATABASE_URL")
		}
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("connected to database")

		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		return pgvector.New(pool), pool.Close, nil

	case "memory":
		log.Println("using in-memory vector store")
		return memory.New(), func() {}, nil

	case "qdrant", "":
		store := qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Timeout:    cfg.RequestTimeout,
		})
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// buildRegistry wires every configured generation provider.
func buildRegistry(cfg *config.Config) *provider.Registry {
	providers := []provider.Provider{
		provider.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.GenerateTimeout),
	}
	if cfg.HasOpenAI() {
		providers = append(providers, provider.NewOpenAI(cfg.OpenAIAPIKey, cfg.GenerateTimeout))
	}
	if cfg.HasGroq() {
		providers = append(providers, provider.NewGroq(cfg.GroqAPIKey, cfg.GenerateTimeout))
	}
	return provider.NewRegistry(providers...)
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
