package app_test

import (
	"errors"
	"fmt"
	"testing"

	"pdfquiz-service/internal/app"
	"pdfquiz-service/internal/domain"
)

func makeQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          fmt.Sprintf("Question %d?", i+1),
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectAnswer: domain.LabelA,
		})
	}
	return questions
}

func TestGradeSevenOfTen(t *testing.T) {
	questions := makeQuestions(10)
	answers := make(map[string]domain.Label)
	for i, q := range questions {
		if i < 7 {
			answers[q.ID] = domain.LabelA
		} else {
			answers[q.ID] = domain.LabelB
		}
	}

	result := app.Grade(questions, answers)
	if result.Score != 7 || result.TotalQuestions != 10 || result.Percentage != 70 {
		t.Fatalf("got score=%d total=%d pct=%d, want 7/10/70", result.Score, result.TotalQuestions, result.Percentage)
	}
	if len(result.Answers) != 10 {
		t.Fatalf("expected 10 answer records, got %d", len(result.Answers))
	}
}

func TestGradeRoundsPercentage(t *testing.T) {
	questions := makeQuestions(3)
	answers := map[string]domain.Label{"q1": domain.LabelA}

	result := app.Grade(questions, answers)
	if result.Score != 1 || result.Percentage != 33 {
		t.Fatalf("got score=%d pct=%d, want 1/33", result.Score, result.Percentage)
	}
}

func TestGradeMissingAnswerIsWrong(t *testing.T) {
	questions := makeQuestions(2)
	answers := map[string]domain.Label{"q1": domain.LabelA}

	result := app.Grade(questions, answers)
	if result.Score != 1 {
		t.Fatalf("expected score 1, got %d", result.Score)
	}
	if result.Answers[1].Selected != "" || result.Answers[1].IsCorrect {
		t.Fatalf("unanswered question should be wrong with empty selection, got %+v", result.Answers[1])
	}
}

func TestGradeRecordsFollowQuestionOrder(t *testing.T) {
	questions := makeQuestions(10)
	answers := make(map[string]domain.Label)
	for _, q := range questions {
		answers[q.ID] = domain.LabelA
	}

	result := app.Grade(questions, answers)
	for i, record := range result.Answers {
		if record.QuestionID != questions[i].ID {
			t.Fatalf("record %d is for %s, want %s", i, record.QuestionID, questions[i].ID)
		}
		if record.Question != questions[i].Text {
			t.Fatalf("record %d snapshot text mismatch", i)
		}
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	questions := makeQuestions(10)
	answers := make(map[string]domain.Label)
	for i, q := range questions {
		if i%2 == 0 {
			answers[q.ID] = domain.LabelA
		} else {
			answers[q.ID] = domain.LabelC
		}
	}

	first := app.Grade(questions, answers)
	for i := 0; i < 5; i++ {
		again := app.Grade(questions, answers)
		if again.Score != first.Score || again.Percentage != first.Percentage {
			t.Fatalf("grade changed between calls: %+v vs %+v", first, again)
		}
		for j := range first.Answers {
			if again.Answers[j] != first.Answers[j] {
				t.Fatalf("answer record %d changed between calls", j)
			}
		}
	}
}

func TestValidateAnswersIncomplete(t *testing.T) {
	answers := map[string]domain.Label{"q1": domain.LabelA, "q2": domain.LabelB}
	err := app.ValidateAnswers(answers, 10)

	var incomplete *domain.IncompleteAnswersError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected incomplete answers error, got %v", err)
	}
	if incomplete.Answered != 2 || incomplete.Total != 10 {
		t.Fatalf("expected 2/10, got %d/%d", incomplete.Answered, incomplete.Total)
	}
}

func TestValidateAnswersRejectsUnknownLabel(t *testing.T) {
	answers := map[string]domain.Label{"q1": "Z"}
	if err := app.ValidateAnswers(answers, 1); !errors.Is(err, domain.ErrInvalidAnswerLabel) {
		t.Fatalf("expected invalid label, got %v", err)
	}
}

func TestValidateAnswersComplete(t *testing.T) {
	answers := map[string]domain.Label{"q1": domain.LabelA, "q2": domain.LabelD}
	if err := app.ValidateAnswers(answers, 2); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
