package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pdfquiz-service/internal/app"
	"pdfquiz-service/internal/config"
	"pdfquiz-service/internal/extract"
	"pdfquiz-service/internal/genai"
	"pdfquiz-service/internal/infra/memory"
	inframinio "pdfquiz-service/internal/infra/minio"
	"pdfquiz-service/internal/infra/postgres"
	infraredis "pdfquiz-service/internal/infra/redis"
	transport "pdfquiz-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	objects, err := inframinio.NewObjectStore(inframinio.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return err
	}

	generator, err := genai.New(cfg.AI.APIKey, cfg.AI.BaseURL, genai.Options{
		Model:          cfg.AI.Model,
		Temperature:    cfg.Quiz.Temperature,
		MaxTokens:      cfg.Quiz.MaxTokens,
		MaxPromptChars: cfg.Quiz.MaxPromptChars,
	}, log)
	if err != nil {
		return err
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		ingestStore   app.IngestStore
		documentStore app.DocumentStore
		attempts      interface {
			app.AttemptRecorder
			app.AttemptLister
		}
		questionSource app.QuestionSource
	)
	if cfg.Postgres.URL != "" {
		store := postgres.NewStore(cfg.Postgres.URL)
		defer store.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		ingestStore = store
		documentStore = store
		attempts = store
		questionSource = postgres.NewQuestionLoader(pool)
	} else {
		// No Postgres configured: rows live in process memory. Object storage
		// and the model API are still external.
		store := memory.NewStore()
		ingestStore = store
		documentStore = store
		attempts = store
		questionSource = store
	}

	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Redis.CacheTTL, 10*time.Minute)
		questionSource = infraredis.NewQuestionCache(redisClient, questionSource, cacheTTL)
	}

	var lock app.GenerationLock
	if redisClient != nil {
		lockTTL := config.TTLDuration(cfg.Redis.LockTTL, 5*time.Minute)
		lock = infraredis.NewGenerationLock(redisClient, lockTTL)
	} else {
		lock = memory.NewGenerationLock()
	}

	extractor := extract.Extractor{MinChars: cfg.Quiz.MinTextChars}
	ingest := app.NewIngestService(objects, extractor, generator, ingestStore, lock, log,
		cfg.Quiz.QuestionCount)
	documents := app.NewDocumentService(objects, documentStore, attempts, log)

	handler := transport.NewHandler(ingest, documents, questionSource, log)

	server := &http.Server{
		Addr:    ":" + finalPort,
		Handler: handler.Routes(),
		// Generation runs well past typical request timeouts; only bound reads.
		ReadTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("starting pdf quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
