// Package genai generates validated multiple-choice questions from extracted
// document text using an OpenAI-compatible chat completion API.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"pdfquiz-service/internal/domain"
)

const systemPrompt = "You are a helpful assistant that generates educational multiple-choice questions. Always respond with valid JSON only, no additional text."

// Options tunes the generator. Zero values fall back to the design defaults
// set by config.
type Options struct {
	Model          string
	Temperature    float32
	MaxTokens      int
	MaxPromptChars int
}

// Generator produces question batches via a chat completion model.
type Generator struct {
	client *openai.Client
	opts   Options
	log    *zap.Logger
}

// New builds a Generator. A missing API key is a configuration error, caught
// here so the pipeline can refuse to start rather than fail mid-run.
func New(apiKey, baseURL string, opts Options, log *zap.Logger) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: model API key not set", domain.ErrConfiguration)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Generator{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		log:    log,
	}, nil
}

// rawQuestion is the wire shape demanded from the model.
type rawQuestion struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correctAnswer"`
}

// Generate asks the model for exactly count questions based on text and
// returns them fully validated. The batch is all-or-nothing: any element
// that violates the contract rejects the whole response.
func (g *Generator) Generate(ctx context.Context, text string, count int) ([]domain.QuestionDraft, error) {
	prompt := g.buildPrompt(text, count)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty model response", domain.ErrMalformedModelOutput)
	}

	drafts, err := ParseQuestions(resp.Choices[0].Message.Content, count)
	if err != nil {
		g.log.Warn("model output rejected", zap.Int("want", count), zap.Error(err))
		return nil, err
	}
	return drafts, nil
}

// ParseQuestions repairs, parses, and validates raw model output into exactly
// count question drafts.
func ParseQuestions(raw string, count int) ([]domain.QuestionDraft, error) {
	payload := RepairResponse(raw)

	var parsed []rawQuestion
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}

	if len(parsed) != count {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", domain.ErrInvalidQuestionShape, count, len(parsed))
	}

	drafts := make([]domain.QuestionDraft, 0, count)
	for i, q := range parsed {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("%w: question %d has empty text", domain.ErrInvalidQuestionShape, i+1)
		}
		options := make(map[domain.Label]string, 4)
		for _, label := range domain.Labels() {
			text, ok := q.Options[string(label)]
			if !ok || strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("%w: question %d missing option %s", domain.ErrInvalidQuestionShape, i+1, label)
			}
			options[label] = text
		}
		correct := domain.Label(q.CorrectAnswer)
		if !correct.Valid() {
			return nil, fmt.Errorf("%w: question %d has invalid correct answer %q", domain.ErrInvalidQuestionShape, i+1, q.CorrectAnswer)
		}
		drafts = append(drafts, domain.QuestionDraft{
			Text:    q.Question,
			Options: options,
			Correct: correct,
		})
	}
	return drafts, nil
}

func (g *Generator) buildPrompt(text string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d multiple-choice questions from the following text.\n", count)
	sb.WriteString("The questions should be university level or above, suitable for adult learners.\n")
	sb.WriteString("Each question should have 4 options (A, B, C, D) with only one correct answer.\n\n")
	sb.WriteString("Return the response as a JSON array with this exact format:\n")
	sb.WriteString(`[
  {
    "question": "Question text here?",
    "options": {
      "A": "Option A text",
      "B": "Option B text",
      "C": "Option C text",
      "D": "Option D text"
    },
    "correctAnswer": "A"
  }
]`)
	sb.WriteString("\n\nText to analyze:\n")
	sb.WriteString(truncate(text, g.opts.MaxPromptChars))
	return sb.String()
}

// truncate bounds text to max bytes without splitting a rune. Truncation is
// silent: a prefix of the document still yields valid questions.
func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// classifyProviderError maps go-openai failures onto the typed taxonomy so
// callers never branch on message text.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", domain.ErrModelAuth, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", domain.ErrModelRateLimited, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
}
