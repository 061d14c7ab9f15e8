package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const labelTTL = 24 * time.Hour

// LabelCache memoizes sentiment labels by content hash so repeated identical
// texts skip the external analysis call. Purely best-effort: a miss or a
// Redis failure just means the collaborator gets called again.
type LabelCache struct {
	rdb *goredis.Client
}

func NewLabelCache(rdb *goredis.Client) *LabelCache {
	return &LabelCache{rdb: rdb}
}

// Get returns the cached label for text, or "" on miss.
func (c *LabelCache) Get(ctx context.Context, text string) (string, error) {
	label, err := c.rdb.Get(ctx, labelKey(text)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached label: %w", err)
	}
	return label, nil
}

// Set stores the label for text with a TTL.
func (c *LabelCache) Set(ctx context.Context, text, label string) error {
	if err := c.rdb.Set(ctx, labelKey(text), label, labelTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache label: %w", err)
	}
	return nil
}

func labelKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sentiment:label:" + hex.EncodeToString(sum[:16])
}
