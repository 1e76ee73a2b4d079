// Package postgres persists documents, questions, and attempts. Writes go
// through bun; the read path used by quiz sessions lives in QuestionLoader.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"pdfquiz-service/internal/domain"
)

type documentRow struct {
	bun.BaseModel `bun:"table:documents"`

	ID         string    `bun:"id,pk"`
	UserID     string    `bun:"user_id"`
	FileName   string    `bun:"file_name"`
	FilePath   string    `bun:"file_path"`
	FileSize   int64     `bun:"file_size"`
	UploadedAt time.Time `bun:"uploaded_at"`
	Processed  bool      `bun:"processed"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            string    `bun:"id,pk"`
	DocumentID    string    `bun:"document_id"`
	Question      string    `bun:"question"`
	OptionA       string    `bun:"option_a"`
	OptionB       string    `bun:"option_b"`
	OptionC       string    `bun:"option_c"`
	OptionD       string    `bun:"option_d"`
	CorrectAnswer string    `bun:"correct_answer"`
	CreatedAt     time.Time `bun:"created_at"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts"`

	ID             string                `bun:"id,pk"`
	UserID         string                `bun:"user_id"`
	DocumentID     string                `bun:"document_id"`
	Score          int                   `bun:"score"`
	TotalQuestions int                   `bun:"total_questions"`
	Answers        []domain.AnswerRecord `bun:"answers,type:jsonb"`
	CompletedAt    time.Time             `bun:"completed_at"`
}

// Store implements the write-side row store interfaces of the app layer.
type Store struct {
	db *bun.DB
}

// NewStore opens a bun connection over the pgdriver DSN.
func NewStore(dsn string) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}
}

// NewStoreFromDB wraps an existing bun.DB (used by tests and migrations).
func NewStoreFromDB(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertDocument(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	row := documentRow{
		ID:         doc.ID,
		UserID:     doc.UserID,
		FileName:   doc.FileName,
		FilePath:   doc.FilePath,
		FileSize:   doc.FileSize,
		UploadedAt: doc.UploadedAt,
		Processed:  doc.Processed,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var row documentRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}
	return domain.Document{
		ID:         row.ID,
		UserID:     row.UserID,
		FileName:   row.FileName,
		FilePath:   row.FilePath,
		FileSize:   row.FileSize,
		UploadedAt: row.UploadedAt,
		Processed:  row.Processed,
	}, nil
}

// InsertQuestions persists one generated batch in a single insert. Creation
// timestamps are staggered within the batch so created_at ordering matches
// insertion order exactly.
func (s *Store) InsertQuestions(ctx context.Context, documentID string, drafts []domain.QuestionDraft) ([]domain.Question, error) {
	now := time.Now()
	rows := make([]questionRow, 0, len(drafts))
	out := make([]domain.Question, 0, len(drafts))
	for i, d := range drafts {
		q := domain.Question{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			Text:          d.Text,
			OptionA:       d.Options[domain.LabelA],
			OptionB:       d.Options[domain.LabelB],
			OptionC:       d.Options[domain.LabelC],
			OptionD:       d.Options[domain.LabelD],
			CorrectAnswer: d.Correct,
			CreatedAt:     now.Add(time.Duration(i) * time.Microsecond),
		}
		rows = append(rows, questionRow{
			ID:            q.ID,
			DocumentID:    q.DocumentID,
			Question:      q.Text,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectAnswer: string(q.CorrectAnswer),
			CreatedAt:     q.CreatedAt,
		})
		out = append(out, q)
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert questions: %w", err)
	}
	return out, nil
}

func (s *Store) MarkProcessed(ctx context.Context, documentID string) error {
	res, err := s.db.NewUpdate().
		Model((*documentRow)(nil)).
		Set("processed = TRUE").
		Where("id = ?", documentID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark processed: document %s not found", documentID)
	}
	return nil
}

func (s *Store) InsertAttempt(ctx context.Context, attempt domain.QuizAttempt) (domain.QuizAttempt, error) {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = time.Now()
	}
	row := attemptRow{
		ID:             attempt.ID,
		UserID:         attempt.UserID,
		DocumentID:     attempt.DocumentID,
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
		Answers:        attempt.Answers,
		CompletedAt:    attempt.CompletedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("insert attempt: %w", err)
	}
	return attempt, nil
}

func (s *Store) AttemptsByDocument(ctx context.Context, documentID string) ([]domain.QuizAttempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("document_id = ?", documentID).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.QuizAttempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.QuizAttempt{
			ID:             row.ID,
			UserID:         row.UserID,
			DocumentID:     row.DocumentID,
			Score:          row.Score,
			TotalQuestions: row.TotalQuestions,
			Answers:        row.Answers,
			CompletedAt:    row.CompletedAt,
		})
	}
	return out, nil
}
