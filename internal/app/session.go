package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pdfquiz-service/internal/domain"
)

// QuestionSource loads the ordered question batch for a document.
type QuestionSource interface {
	QuestionsByDocument(ctx context.Context, documentID string) ([]domain.Question, error)
}

// AttemptRecorder persists completed quiz attempts.
type AttemptRecorder interface {
	InsertAttempt(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error)
}

// SessionState tracks where a quiz session is in its lifecycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateLoading
	StateReady
	StateSubmitting
	StateCompleted
	StateErrored
)

// QuizSession is the state container for one open quiz. It owns the question
// list, the current position, the per-question answers, and the last result.
// One session serves one quiz screen; it is never persisted and is discarded
// on reset. All methods are safe for the concurrent triggers a UI can fire.
type QuizSession struct {
	questions QuestionSource
	attempts  AttemptRecorder
	log       *zap.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      SessionState
	documentID string
	batch      []domain.Question
	current    int
	answers    map[string]domain.Label
	result     *domain.QuizResult
	busy       bool
	lastErr    error
}

func NewQuizSession(questions QuestionSource, attempts AttemptRecorder, log *zap.Logger) *QuizSession {
	return &QuizSession{
		questions: questions,
		attempts:  attempts,
		log:       log,
		now:       time.Now,
		answers:   make(map[string]domain.Label),
	}
}

// NewQuizSessionWithClock is test-only for deterministic completion timestamps.
func NewQuizSessionWithClock(questions QuestionSource, attempts AttemptRecorder, log *zap.Logger, now func() time.Time) *QuizSession {
	s := NewQuizSession(questions, attempts, log)
	s.now = now
	return s
}

// Load opens a quiz for a document: it fetches all questions in creation
// order and resets position, answers, and result. Zero questions is
// domain.ErrNoQuestionsAvailable and leaves the session in Errored, from
// which Load may be called again.
func (s *QuizSession) Load(ctx context.Context, documentID string) error {
	s.mu.Lock()
	s.state = StateLoading
	s.lastErr = nil
	s.mu.Unlock()

	batch, err := s.questions.QuestionsByDocument(ctx, documentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateErrored
		s.lastErr = err
		return err
	}
	if len(batch) == 0 {
		s.state = StateErrored
		s.lastErr = domain.ErrNoQuestionsAvailable
		return domain.ErrNoQuestionsAvailable
	}

	s.documentID = documentID
	s.batch = batch
	s.current = 0
	s.answers = make(map[string]domain.Label)
	s.result = nil
	s.state = StateReady
	return nil
}

// SelectAnswer records (or overwrites) the answer for a question. It never
// advances the position; selecting the same label twice is a no-op in effect.
func (s *QuizSession) SelectAnswer(questionID string, label domain.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionID] = label
}

// Next advances to the next question. Callers are expected to check IsLast
// and submit instead of advancing past the end; Next simply refuses to move
// past the last question. It does not require the current question to be
// answered.
func (s *QuizSession) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < len(s.batch)-1 {
		s.current++
	}
}

// Current returns the question at the current position.
func (s *QuizSession) Current() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current >= len(s.batch) {
		return domain.Question{}, false
	}
	return s.batch[s.current], true
}

// IsLast reports whether the current position is the final question.
func (s *QuizSession) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batch) > 0 && s.current == len(s.batch)-1
}

// Progress returns the zero-based current index and the answered count.
func (s *QuizSession) Progress() (index, answered, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, len(s.answers), len(s.batch)
}

// Submit grades the session and persists one attempt for the user. The
// session must hold a loaded batch and every question must have a recorded
// answer. A Submit that arrives while another
// is in flight is a silent no-op: duplicate submission would create duplicate
// persisted attempts, and the busy flag is the sole guard against that.
func (s *QuizSession) Submit(ctx context.Context, userID string) (*domain.QuizResult, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.log.Debug("quiz submission already in progress")
		return nil, nil
	}
	if len(s.batch) == 0 {
		// Nothing loaded: there is no quiz to grade, and persisting a
		// zero-question attempt would corrupt the history.
		s.mu.Unlock()
		return nil, domain.ErrNoQuestionsAvailable
	}
	if err := ValidateAnswers(s.answers, len(s.batch)); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.busy = true
	s.state = StateSubmitting
	batch := s.batch
	documentID := s.documentID
	answers := make(map[string]domain.Label, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	s.mu.Unlock()

	result := Grade(batch, answers)

	_, err := s.attempts.InsertAttempt(ctx, domain.QuizAttempt{
		UserID:         userID,
		DocumentID:     documentID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Answers:        result.Answers,
		CompletedAt:    s.now(),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		// The prior state stays usable so the user can submit again.
		s.state = StateErrored
		s.lastErr = err
		return nil, err
	}
	s.result = &result
	s.state = StateCompleted
	return &result, nil
}

// Result returns the last computed result, if any.
func (s *QuizSession) Result() *domain.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// State returns the current lifecycle state and the last error, if any.
func (s *QuizSession) State() (SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Reset returns the session to its initial empty state from any state.
func (s *QuizSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.documentID = ""
	s.batch = nil
	s.current = 0
	s.answers = make(map[string]domain.Label)
	s.result = nil
	s.busy = false
	s.lastErr = nil
}
