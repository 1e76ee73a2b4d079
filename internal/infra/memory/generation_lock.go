package memory

import (
	"context"
	"sync"

	"pdfquiz-service/internal/domain"
)

// GenerationLock deduplicates generation runs within a single process.
type GenerationLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewGenerationLock() *GenerationLock {
	return &GenerationLock{held: make(map[string]struct{})}
}

func (l *GenerationLock) Acquire(_ context.Context, documentID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[documentID]; ok {
		return nil, domain.ErrGenerationInProgress
	}
	l.held[documentID] = struct{}{}
	release := func() {
		l.mu.Lock()
		delete(l.held, documentID)
		l.mu.Unlock()
	}
	return release, nil
}
