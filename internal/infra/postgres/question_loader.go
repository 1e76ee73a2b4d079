package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"pdfquiz-service/internal/domain"
)

// QuestionLoader is the read path quiz sessions load from. It runs its own
// ordered query rather than going through the write-side bun store, so the
// client-facing read surface stays decoupled from the pipeline's writes.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

// QuestionsByDocument returns the document's question batch ordered by
// creation time; creation order is the canonical question order.
func (l *QuestionLoader) QuestionsByDocument(ctx context.Context, documentID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, document_id, question, option_a, option_b, option_c, option_d, correct_answer, created_at
		FROM questions
		WHERE document_id = $1
		ORDER BY created_at ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var correct string
		var createdAt time.Time
		if err := rows.Scan(&q.ID, &q.DocumentID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &correct, &createdAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.CorrectAnswer = domain.Label(correct)
		q.CreatedAt = createdAt
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}
