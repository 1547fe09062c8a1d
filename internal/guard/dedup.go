// internal/guard/dedup.go
package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"itbot/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Deduplicator suppresses redelivered turns. Chat transports retry
// event delivery on slow acknowledgements, so the same turn can arrive
// more than once; the first claim on a turn's fingerprint wins and
// every later claim inside the window is reported as a duplicate.
type Deduplicator struct {
	client *redis.Client
	window time.Duration
	logger logger.Logger
}

func NewDeduplicator(client *redis.Client, window time.Duration, log logger.Logger) *Deduplicator {
	return &Deduplicator{
		client: client,
		window: window,
		logger: log.WithFields(map[string]interface{}{"component": "turn-dedup"}),
	}
}

// fingerprint identifies a delivered turn. Source timestamp plus
// normalized text distinguishes a retry of one message from a user
// genuinely sending the same text twice.
func fingerprint(conversationKey, sourceTimestamp, text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(conversationKey + "\x00" + sourceTimestamp + "\x00" + normalized))
	return fmt.Sprintf("dedup:%s", hex.EncodeToString(sum[:]))
}

// Claim atomically claims a turn. It returns true for the first
// delivery and false for a duplicate within the window. On a Redis
// failure the turn is treated as fresh; answering twice is better
// than not answering at all.
func (d *Deduplicator) Claim(ctx context.Context, conversationKey, sourceTimestamp, text string) bool {
	key := fingerprint(conversationKey, sourceTimestamp, text)
	fresh, err := d.client.SetNX(ctx, key, "1", d.window).Result()
	if err != nil {
		d.logger.WithError(err).Warn("dedup claim failed, treating turn as fresh", nil)
		return true
	}
	return fresh
}
