package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pdfquiz-service/internal/domain"
)

// ObjectStore abstracts the file storage the pipeline reads from and the
// upload flow writes to. Per-user access scoping is enforced by the store
// itself, not here.
type ObjectStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Remove(ctx context.Context, paths []string) error
}

// TextExtractor turns raw PDF bytes into plain text and classifies it.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// QuestionGenerator produces a validated batch of question drafts from text.
type QuestionGenerator interface {
	Generate(ctx context.Context, text string, count int) ([]domain.QuestionDraft, error)
}

// IngestStore is the row-store surface the pipeline writes through.
type IngestStore interface {
	InsertQuestions(ctx context.Context, documentID string, drafts []domain.QuestionDraft) ([]domain.Question, error)
	MarkProcessed(ctx context.Context, documentID string) error
}

// GenerationLock deduplicates concurrent generation runs for one document.
// Acquire returns a release func on success and domain.ErrGenerationInProgress
// when another run holds the lock.
type GenerationLock interface {
	Acquire(ctx context.Context, documentID string) (func(), error)
}

// GenerateRequest references an uploaded document by storage path and row id.
type GenerateRequest struct {
	DocumentPath string `json:"documentPath"`
	DocumentID   string `json:"documentId"`
}

// GenerateResult reports how many questions were created.
type GenerateResult struct {
	QuestionsCount int `json:"questionsCount"`
}

// IngestService orchestrates one document's transition from uploaded to
// quiz-ready: download, extract, generate, persist, mark processed.
type IngestService struct {
	objects   ObjectStore
	extractor TextExtractor
	generator QuestionGenerator
	store     IngestStore
	lock      GenerationLock
	log       *zap.Logger

	questionCount int
}

func NewIngestService(
	objects ObjectStore,
	extractor TextExtractor,
	generator QuestionGenerator,
	store IngestStore,
	lock GenerationLock,
	log *zap.Logger,
	questionCount int,
) *IngestService {
	return &IngestService{
		objects:       objects,
		extractor:     extractor,
		generator:     generator,
		store:         store,
		lock:          lock,
		log:           log,
		questionCount: questionCount,
	}
}

// GenerateQuiz runs the full pipeline for one document. Steps run strictly in
// sequence and there is no partial retry within a single invocation; the
// caller may retry the whole call. The final processed-flag update is the one
// deliberate asymmetry: its failure is logged, not surfaced, because the
// questions already exist and are usable.
func (s *IngestService) GenerateQuiz(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if req.DocumentPath == "" || req.DocumentID == "" {
		return GenerateResult{}, fmt.Errorf("%w: missing documentPath or documentId", domain.ErrConfiguration)
	}

	release, err := s.lock.Acquire(ctx, req.DocumentID)
	if err != nil {
		return GenerateResult{}, err
	}
	defer release()

	data, err := s.objects.Download(ctx, req.DocumentPath)
	if err != nil {
		s.log.Error("document download failed",
			zap.String("document_id", req.DocumentID),
			zap.String("path", req.DocumentPath),
			zap.Error(err))
		return GenerateResult{}, fmt.Errorf("%w: %v", domain.ErrDownload, err)
	}

	text, err := s.extractor.ExtractText(data)
	if err != nil {
		return GenerateResult{}, err
	}

	drafts, err := s.generator.Generate(ctx, text, s.questionCount)
	if err != nil {
		return GenerateResult{}, err
	}

	questions, err := s.store.InsertQuestions(ctx, req.DocumentID, drafts)
	if err != nil {
		s.log.Error("question batch insert failed",
			zap.String("document_id", req.DocumentID),
			zap.Error(err))
		return GenerateResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if err := s.store.MarkProcessed(ctx, req.DocumentID); err != nil {
		// Convenience marker, not a correctness gate.
		s.log.Warn("failed to mark document processed",
			zap.String("document_id", req.DocumentID),
			zap.Error(err))
	}

	s.log.Info("quiz generated",
		zap.String("document_id", req.DocumentID),
		zap.Int("questions", len(questions)))
	return GenerateResult{QuestionsCount: len(questions)}, nil
}
