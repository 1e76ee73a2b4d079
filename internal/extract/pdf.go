// Package extract turns raw PDF bytes into plain text and classifies whether
// the text is usable for question generation.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"pdfquiz-service/internal/domain"
)

// Extractor bundles extraction and classification behind the pipeline's
// TextExtractor interface.
type Extractor struct {
	MinChars int
}

// ExtractText parses PDF bytes and rejects empty or too-short content.
func (e Extractor) ExtractText(data []byte) (string, error) {
	text, err := Extract(data)
	if err != nil {
		return "", err
	}
	if err := Classify(text, e.MinChars); err != nil {
		return "", err
	}
	return text, nil
}

// Extract parses data as a PDF and returns its plain text. Bytes that cannot
// be parsed yield domain.ErrUnreadableDocument.
func Extract(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs; fold those into the
	// unreadable-document error instead of crashing the pipeline.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}
	return sb.String(), nil
}

// Classify checks extracted text against the content thresholds: empty or
// whitespace-only text is ErrEmptyContent, text shorter than minChars is
// ErrInsufficientContent.
func Classify(text string, minChars int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ErrEmptyContent
	}
	if len(trimmed) < minChars {
		return fmt.Errorf("%w: %d chars, need %d", domain.ErrInsufficientContent, len(trimmed), minChars)
	}
	return nil
}
