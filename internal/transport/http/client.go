package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pdfquiz-service/internal/app"
	"pdfquiz-service/internal/domain"
)

// Client invokes the remote generation boundary from the client side.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Generation is dominated by the model call, so the timeout is generous.
		http: &http.Client{Timeout: 3 * time.Minute},
	}
}

// GenerateQuiz POSTs a generation request. Non-2xx responses carry a JSON
// body with an error field; that message is surfaced in preference to a
// generic transport error, matching what callers are expected to do.
func (c *Client) GenerateQuiz(ctx context.Context, req app.GenerateRequest) (app.GenerateResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return app.GenerateResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/generate-quiz", bytes.NewReader(body))
	if err != nil {
		return app.GenerateResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return app.GenerateResult{}, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return app.GenerateResult{}, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody errorResponse
		if jsonErr := json.Unmarshal(raw, &errBody); jsonErr == nil && errBody.Error != "" {
			return app.GenerateResult{}, fmt.Errorf("generate quiz: %s", errBody.Error)
		}
		return app.GenerateResult{}, fmt.Errorf("%w: unexpected status %d", domain.ErrNetwork, resp.StatusCode)
	}

	var ok generateResponse
	if err := json.Unmarshal(raw, &ok); err != nil {
		return app.GenerateResult{}, fmt.Errorf("generate quiz: decode response: %w", err)
	}
	if !ok.Success {
		return app.GenerateResult{}, fmt.Errorf("generate quiz: request did not succeed")
	}
	return app.GenerateResult{QuestionsCount: ok.QuestionsCount}, nil
}
