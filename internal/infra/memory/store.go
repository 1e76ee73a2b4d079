// Package memory provides in-process implementations of the app-layer
// storage interfaces, used by tests and as the row-store fallback when no
// Postgres is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pdfquiz-service/internal/domain"
)

// Store keeps documents, questions, and attempts in maps. It implements
// app.DocumentStore, app.IngestStore, app.QuestionSource, app.AttemptRecorder,
// and app.AttemptLister.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	questions map[string][]domain.Question // by document ID, insertion order
	attempts  map[string][]domain.QuizAttempt
	clock     func() time.Time
}

func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.Document),
		questions: make(map[string][]domain.Question),
		attempts:  make(map[string][]domain.QuizAttempt),
		clock:     time.Now,
	}
}

// NewStoreWithClock is test-only for deterministic timestamps.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.clock = now
	return s
}

func (s *Store) InsertDocument(_ context.Context, doc domain.Document) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = s.clock()
	}
	s.documents[doc.ID] = doc
	return doc, nil
}

func (s *Store) GetDocument(_ context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s not found", id)
	}
	return doc, nil
}

func (s *Store) InsertQuestions(_ context.Context, documentID string, drafts []domain.QuestionDraft) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	batch := make([]domain.Question, 0, len(drafts))
	for i, d := range drafts {
		batch = append(batch, domain.Question{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			Text:          d.Text,
			OptionA:       d.Options[domain.LabelA],
			OptionB:       d.Options[domain.LabelB],
			OptionC:       d.Options[domain.LabelC],
			OptionD:       d.Options[domain.LabelD],
			CorrectAnswer: d.Correct,
			// Staggered timestamps keep creation order stable under sorting.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	s.questions[documentID] = append(s.questions[documentID], batch...)
	return batch, nil
}

func (s *Store) MarkProcessed(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	doc.Processed = true
	s.documents[documentID] = doc
	return nil
}

func (s *Store) QuestionsByDocument(_ context.Context, documentID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch := s.questions[documentID]
	out := make([]domain.Question, len(batch))
	copy(out, batch)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertAttempt(_ context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = s.clock()
	}
	s.attempts[attempt.DocumentID] = append(s.attempts[attempt.DocumentID], attempt)
	return attempt, nil
}

func (s *Store) AttemptsByDocument(_ context.Context, documentID string) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.attempts[documentID]
	out := make([]domain.QuizAttempt, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

// AttemptCount is a test helper.
func (s *Store) AttemptCount(documentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts[documentID])
}
