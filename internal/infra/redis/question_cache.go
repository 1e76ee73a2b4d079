// Package redis caches question batches and coordinates per-document
// generation locks across service instances.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"pdfquiz-service/internal/domain"
)

// QuestionSource mirrors the app-layer read interface this cache wraps.
type QuestionSource interface {
	QuestionsByDocument(ctx context.Context, documentID string) ([]domain.Question, error)
}

// QuestionCache caches a document's question batch as JSON under a single key
// and falls back to the loader on miss. Question batches are immutable once
// written, so a TTL is only needed to bound memory, not for freshness.
type QuestionCache struct {
	client *redis.Client
	loader QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) QuestionsByDocument(ctx context.Context, documentID string) ([]domain.Question, error) {
	key := c.key(documentID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal(raw, &questions); err == nil {
			return questions, nil
		}
		// Corrupt entry: drop it and reload below.
		_ = c.client.Del(ctx, key).Err()
	}

	result, err, _ := c.sf.Do(documentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal(raw, &questions); err == nil {
				return questions, nil
			}
		}

		questions, err := c.loader.QuestionsByDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			// Never cache an empty batch; the pipeline may be about to write it.
			return questions, nil
		}

		raw, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal questions: %w", err)
		}
		_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) key(documentID string) string {
	return "doc:" + documentID + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
