package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pdfquiz-service/internal/domain"
)

// MaxUploadBytes caps accepted PDF uploads at 10MB.
const MaxUploadBytes = 10 * 1024 * 1024

// DocumentStore persists and reads document rows.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc domain.Document) (domain.Document, error)
	GetDocument(ctx context.Context, id string) (domain.Document, error)
}

// AttemptLister reads persisted attempt history.
type AttemptLister interface {
	AttemptsByDocument(ctx context.Context, documentID string) ([]domain.QuizAttempt, error)
}

// DocumentService handles the upload flow and attempt history reads.
type DocumentService struct {
	objects  ObjectStore
	docs     DocumentStore
	attempts AttemptLister
	log      *zap.Logger
	now      func() time.Time
}

func NewDocumentService(objects ObjectStore, docs DocumentStore, attempts AttemptLister, log *zap.Logger) *DocumentService {
	return &DocumentService{
		objects:  objects,
		docs:     docs,
		attempts: attempts,
		log:      log,
		now:      time.Now,
	}
}

// NewDocumentServiceWithClock is test-only for deterministic storage paths.
func NewDocumentServiceWithClock(objects ObjectStore, docs DocumentStore, attempts AttemptLister, log *zap.Logger, now func() time.Time) *DocumentService {
	s := NewDocumentService(objects, docs, attempts, log)
	s.now = now
	return s
}

// Upload validates a PDF, stores its bytes under a per-user path, and inserts
// the document row. If the row insert fails the stored object is removed so
// storage and rows cannot drift apart.
func (s *DocumentService) Upload(ctx context.Context, userID, fileName, contentType string, data []byte) (domain.Document, error) {
	if contentType != "application/pdf" {
		return domain.Document{}, domain.ErrNotPDF
	}
	if int64(len(data)) > MaxUploadBytes {
		return domain.Document{}, domain.ErrFileTooLarge
	}

	path := fmt.Sprintf("%s/%d.pdf", userID, s.now().UnixMilli())
	if err := s.objects.Upload(ctx, path, data, contentType); err != nil {
		return domain.Document{}, fmt.Errorf("upload object: %w", err)
	}

	doc, err := s.docs.InsertDocument(ctx, domain.Document{
		UserID:     userID,
		FileName:   fileName,
		FilePath:   path,
		FileSize:   int64(len(data)),
		UploadedAt: s.now(),
		Processed:  false,
	})
	if err != nil {
		if rmErr := s.objects.Remove(ctx, []string{path}); rmErr != nil {
			s.log.Warn("orphaned object cleanup failed", zap.String("path", path), zap.Error(rmErr))
		}
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return doc, nil
}

// Get returns one document row.
func (s *DocumentService) Get(ctx context.Context, id string) (domain.Document, error) {
	return s.docs.GetDocument(ctx, id)
}

// ListAttempts returns a document's attempt history, most recent first.
func (s *DocumentService) ListAttempts(ctx context.Context, documentID string) ([]domain.QuizAttempt, error) {
	return s.attempts.AttemptsByDocument(ctx, documentID)
}
