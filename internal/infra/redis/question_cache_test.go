package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"pdfquiz-service/internal/domain"
)

type countingLoader struct {
	questions []domain.Question
	err       error
	calls     int
}

func (l *countingLoader) QuestionsByDocument(context.Context, string) ([]domain.Question, error) {
	l.calls++
	return l.questions, l.err
}

func sampleBatch() []domain.Question {
	return []domain.Question{
		{ID: "q1", DocumentID: "doc-1", Text: "First?", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: domain.LabelA},
		{ID: "q2", DocumentID: "doc-1", Text: "Second?", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: domain.LabelD},
	}
}

func newTestCache(t *testing.T, loader QuestionSource) (*QuestionCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewQuestionCache(client, loader, time.Minute), mr
}

func TestQuestionCacheFillsOnMiss(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{questions: sampleBatch()}
	cache, mr := newTestCache(t, loader)

	first, err := cache.QuestionsByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(first) != 2 || first[0].ID != "q1" {
		t.Fatalf("unexpected batch: %+v", first)
	}
	if !mr.Exists("doc:doc-1:questions") {
		t.Fatalf("expected cache key")
	}

	second, err := cache.QuestionsByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", loader.calls)
	}
	if second[1].CorrectAnswer != domain.LabelD {
		t.Fatalf("cached batch lost data: %+v", second[1])
	}
}

func TestQuestionCacheDoesNotCacheEmptyBatch(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{}
	cache, mr := newTestCache(t, loader)

	got, err := cache.QuestionsByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty batch, got %d", len(got))
	}
	if mr.Exists("doc:doc-1:questions") {
		t.Fatalf("empty batch must not be cached")
	}

	// Once the pipeline writes questions, the next read sees them.
	loader.questions = sampleBatch()
	got, err = cache.QuestionsByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 questions after generation, got %d", len(got))
	}
}

func TestQuestionCachePropagatesLoaderError(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	cache, _ := newTestCache(t, loader)

	if _, err := cache.QuestionsByDocument(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected loader error")
	}
}

func TestQuestionCacheRecoversFromCorruptEntry(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{questions: sampleBatch()}
	cache, mr := newTestCache(t, loader)

	mr.Set("doc:doc-1:questions", "{definitely not json")

	got, err := cache.QuestionsByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected reload from loader, got %d questions", len(got))
	}
}
