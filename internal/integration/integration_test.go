package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"pdfquiz-service/internal/app"
	"pdfquiz-service/internal/domain"
	"pdfquiz-service/internal/infra/memory"
	"pdfquiz-service/internal/infra/postgres"
	pgmigrations "pdfquiz-service/internal/infra/postgres/migrations"
	infraredis "pdfquiz-service/internal/infra/redis"
)

type fixedExtractor struct{ text string }

func (e fixedExtractor) ExtractText([]byte) (string, error) { return e.text, nil }

type fixedGenerator struct{}

func (fixedGenerator) Generate(_ context.Context, _ string, count int) ([]domain.QuestionDraft, error) {
	drafts := make([]domain.QuestionDraft, count)
	for i := range drafts {
		drafts[i] = domain.QuestionDraft{
			Text: fmt.Sprintf("Question %d?", i+1),
			Options: map[domain.Label]string{
				domain.LabelA: "first", domain.LabelB: "second",
				domain.LabelC: "third", domain.LabelD: "fourth",
			},
			Correct: domain.LabelB,
		}
	}
	return drafts, nil
}

func TestGenerateAndSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateUp(t, ctx, db)

	store := postgres.NewStoreFromDB(db)
	log := zap.NewNop()

	objects := memory.NewObjectStore()
	if err := objects.Upload(ctx, "user-1/1.pdf", []byte("%PDF-1.4"), "application/pdf"); err != nil {
		t.Fatalf("seed object: %v", err)
	}
	doc, err := store.InsertDocument(ctx, domain.Document{
		UserID:   "user-1",
		FileName: "notes.pdf",
		FilePath: "user-1/1.pdf",
		FileSize: 8,
	})
	if err != nil {
		t.Fatalf("insert document: %v", err)
	}

	ingest := app.NewIngestService(
		objects,
		fixedExtractor{text: strings.Repeat("lecture notes ", 50)},
		fixedGenerator{},
		store,
		memory.NewGenerationLock(),
		log,
		10,
	)
	result, err := ingest.GenerateQuiz(ctx, app.GenerateRequest{DocumentPath: doc.FilePath, DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("generate quiz: %v", err)
	}
	if result.QuestionsCount != 10 {
		t.Fatalf("expected 10 questions, got %d", result.QuestionsCount)
	}
	if got, err := store.GetDocument(ctx, doc.ID); err != nil || !got.Processed {
		t.Fatalf("expected processed document, got %+v err=%v", got, err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	loader := postgres.NewQuestionLoader(pool)
	cache := infraredis.NewQuestionCache(redisClient, loader, 5*time.Minute)

	session := app.NewQuizSession(cache, store, log)
	if err := session.Load(ctx, doc.ID); err != nil {
		t.Fatalf("load session: %v", err)
	}

	for {
		q, ok := session.Current()
		if !ok {
			t.Fatalf("ran out of questions before the last one")
		}
		if q.Text == "Question 1?" || q.Text == "Question 2?" {
			session.SelectAnswer(q.ID, domain.LabelC)
		} else {
			session.SelectAnswer(q.ID, domain.LabelB)
		}
		if session.IsLast() {
			break
		}
		session.Next()
	}

	quizResult, err := session.Submit(ctx, "user-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if quizResult.Score != 8 || quizResult.TotalQuestions != 10 || quizResult.Percentage != 80 {
		t.Fatalf("unexpected result: %+v", quizResult)
	}

	attempts, err := store.AttemptsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].Score != 8 || attempts[0].UserID != "user-1" || len(attempts[0].Answers) != 10 {
		t.Fatalf("unexpected attempt: %+v", attempts[0])
	}

	// A second load comes from the cache and keeps creation order.
	batch, err := cache.QuestionsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if len(batch) != 10 || batch[0].Text != "Question 1?" || batch[9].Text != "Question 10?" {
		t.Fatalf("unexpected cached batch order: first=%q last=%q", batch[0].Text, batch[len(batch)-1].Text)
	}
}

func TestConcurrentGenerationIsDeduplicated(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	lock := infraredis.NewGenerationLock(redisClient, time.Minute)

	release, err := lock.Acquire(ctx, "doc-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := lock.Acquire(ctx, "doc-1"); err != domain.ErrGenerationInProgress {
		t.Fatalf("expected ErrGenerationInProgress, got %v", err)
	}
	release()
	if _, err := lock.Acquire(ctx, "doc-1"); err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateUp(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
