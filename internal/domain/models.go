package domain

import "time"

// Label identifies one of the four fixed answer options.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// Labels returns the closed option label set in display order.
func Labels() [4]Label {
	return [4]Label{LabelA, LabelB, LabelC, LabelD}
}

// Valid reports whether l is one of the four allowed labels.
func (l Label) Valid() bool {
	switch l {
	case LabelA, LabelB, LabelC, LabelD:
		return true
	}
	return false
}

// Document is an uploaded source PDF tracked with a processed flag.
// Only the ingestion pipeline flips Processed; clients never write it.
type Document struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Processed  bool      `json:"processed"`
}

// Question is one generated multiple-choice question. Questions are created
// in a single batch per document and are immutable afterwards.
type Question struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	Text          string    `json:"question"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer Label     `json:"correct_answer"`
	CreatedAt     time.Time `json:"created_at"`
}

// Option returns the option text for a label, or "" for an unknown label.
func (q Question) Option(l Label) string {
	switch l {
	case LabelA:
		return q.OptionA
	case LabelB:
		return q.OptionB
	case LabelC:
		return q.OptionC
	case LabelD:
		return q.OptionD
	}
	return ""
}

// QuestionDraft is a validated question as produced by the generator,
// before it has been assigned an identity or persisted.
type QuestionDraft struct {
	Text    string
	Options map[Label]string
	Correct Label
}

// AnswerRecord is a denormalized grading snapshot for one question, so that
// historical attempts stay readable even if questions later change.
type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Selected   Label  `json:"selected_answer"`
	Correct    Label  `json:"correct_answer"`
	IsCorrect  bool   `json:"is_correct"`
}

// QuizResult is the outcome of grading one full pass through a question batch.
type QuizResult struct {
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     int            `json:"percentage"`
	Answers        []AnswerRecord `json:"answers"`
}

// QuizAttempt is one completed, graded run persisted as append-only history.
type QuizAttempt struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	DocumentID     string         `json:"document_id"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Answers        []AnswerRecord `json:"answers"`
	CompletedAt    time.Time      `json:"completed_at"`
}
