package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means required credentials or settings are missing; not retryable.
	ErrConfiguration = errors.New("service configuration incomplete")
	// ErrDownload means the document bytes could not be fetched from storage; retryable.
	ErrDownload = errors.New("document download failed")
	// ErrNetwork covers transient transport failures talking to external services.
	ErrNetwork = errors.New("network failure")
	// ErrUnreadableDocument means the bytes could not be parsed as a PDF.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrEmptyContent means the PDF parsed but contained no extractable text.
	ErrEmptyContent = errors.New("no text content in document")
	// ErrInsufficientContent means the extracted text is too short to question reliably.
	ErrInsufficientContent = errors.New("insufficient text content in document")
	// ErrModelRateLimited means the model provider rejected the call with a quota error.
	ErrModelRateLimited = errors.New("model provider rate limited")
	// ErrModelAuth means the model provider rejected the configured credentials.
	ErrModelAuth = errors.New("model provider authentication failed")
	// ErrMalformedModelOutput means the model response could not be parsed as JSON
	// even after repair.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrInvalidQuestionShape means the parsed model output violated the question
	// batch contract (count, options, or correct label).
	ErrInvalidQuestionShape = errors.New("invalid question shape")
	// ErrPersistence means a row store write failed; retryable.
	ErrPersistence = errors.New("persistence failed")
	// ErrNoQuestionsAvailable means a quiz was opened before questions were generated.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrGenerationInProgress means another generation run holds the per-document lock.
	ErrGenerationInProgress = errors.New("generation already in progress")
	// ErrInvalidAnswerLabel means a recorded answer is outside the closed label set.
	ErrInvalidAnswerLabel = errors.New("invalid answer label")
	// ErrNotPDF means an upload is not a PDF file.
	ErrNotPDF = errors.New("file is not a PDF")
	// ErrFileTooLarge means an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// IncompleteAnswersError rejects a quiz submission with unanswered questions.
type IncompleteAnswersError struct {
	Answered int
	Total    int
}

func (e *IncompleteAnswersError) Error() string {
	return fmt.Sprintf("quiz incomplete: %d of %d questions answered", e.Answered, e.Total)
}

// UserMessage translates any error from the pipeline or the quiz session into
// a single user-facing string. Raw provider text is never exposed except as a
// last-resort fallback when no classification matches and the message is short.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrModelAuth):
		return "Service is not configured correctly. Please contact support."
	case errors.Is(err, ErrDownload), errors.Is(err, ErrNetwork):
		return "Connection failed. Please check your internet connection."
	case errors.Is(err, ErrUnreadableDocument):
		return "Unable to read PDF file. Please ensure it's a valid, readable PDF document."
	case errors.Is(err, ErrEmptyContent):
		return "No text found in PDF. Please upload a PDF with readable text content."
	case errors.Is(err, ErrInsufficientContent):
		return "The PDF does not contain enough text to generate questions. Please upload a longer document."
	case errors.Is(err, ErrModelRateLimited):
		return "The question generator is busy. Please try again later."
	case errors.Is(err, ErrMalformedModelOutput), errors.Is(err, ErrInvalidQuestionShape):
		return "Failed to generate questions. Please try again."
	case errors.Is(err, ErrPersistence):
		return "Failed to save questions. Please try again."
	case errors.Is(err, ErrNoQuestionsAvailable):
		return "No questions found. Please generate questions first."
	case errors.Is(err, ErrGenerationInProgress):
		return "Questions are already being generated for this document. Please wait."
	case errors.Is(err, ErrInvalidAnswerLabel):
		return "One of your answers is invalid. Please answer again."
	case errors.Is(err, ErrNotPDF):
		return "Please select a valid PDF file."
	case errors.Is(err, ErrFileTooLarge):
		return "File size exceeds the limit. Please choose a smaller PDF."
	}

	var incomplete *IncompleteAnswersError
	if errors.As(err, &incomplete) {
		return fmt.Sprintf("Please answer all questions before submitting (%d of %d answered).",
			incomplete.Answered, incomplete.Total)
	}

	if msg := err.Error(); len(msg) > 0 && len(msg) <= 120 {
		return msg
	}
	return "An unexpected error occurred. Please try again."
}
