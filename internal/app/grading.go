package app

import (
	"math"

	"pdfquiz-service/internal/domain"
)

// Grade scores an answer map against the ordered question batch. It is a pure
// function: the same inputs always produce the same result. A missing answer
// is simply wrong, never a crash; label comparison is exact and case-sensitive.
func Grade(questions []domain.Question, answers map[string]domain.Label) domain.QuizResult {
	records := make([]domain.AnswerRecord, 0, len(questions))
	score := 0
	for _, q := range questions {
		selected := answers[q.ID]
		correct := selected == q.CorrectAnswer
		if correct {
			score++
		}
		records = append(records, domain.AnswerRecord{
			QuestionID: q.ID,
			Question:   q.Text,
			Selected:   selected,
			Correct:    q.CorrectAnswer,
			IsCorrect:  correct,
		})
	}

	total := len(questions)
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(score) / float64(total) * 100))
	}

	return domain.QuizResult{
		Score:          score,
		TotalQuestions: total,
		Percentage:     percentage,
		Answers:        records,
	}
}

// ValidateAnswers rejects submission when not every question has an answer or
// when any recorded answer falls outside the closed label set. Completeness is
// checked against the total count, not against specific question identities.
func ValidateAnswers(answers map[string]domain.Label, totalQuestions int) error {
	for _, label := range answers {
		if !label.Valid() {
			return domain.ErrInvalidAnswerLabel
		}
	}
	if len(answers) < totalQuestions {
		return &domain.IncompleteAnswersError{Answered: len(answers), Total: totalQuestions}
	}
	return nil
}
