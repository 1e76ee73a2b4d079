package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"pdfquiz-service/internal/domain"
)

// GenerationLock deduplicates concurrent generation runs for one document
// across all service instances using SET NX with a TTL. The TTL bounds how
// long a crashed run can block regeneration.
type GenerationLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGenerationLock(client *redis.Client, ttl time.Duration) *GenerationLock {
	return &GenerationLock{client: client, ttl: ttl}
}

func (l *GenerationLock) Acquire(ctx context.Context, documentID string) (func(), error) {
	key := l.key(documentID)
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrGenerationInProgress
	}
	release := func() {
		_ = l.client.Del(context.Background(), key).Err()
	}
	return release, nil
}

func (l *GenerationLock) key(documentID string) string {
	return "doc:" + documentID + ":genlock"
}
