// internal/state/redis.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"itbot/internal/common/logger"
	"itbot/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists conversation state as JSON with a per-record TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "state-store"}),
	}
}

func (s *RedisStore) Get(ctx context.Context, userID, channelID string) (*models.ConversationState, error) {
	raw, err := s.client.Get(ctx, Key(userID, channelID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state get failed: %w", err)
	}

	var st models.ConversationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		// A corrupt record is unrecoverable. Drop it instead of wedging
		// the conversation on every subsequent turn.
		s.logger.WithError(err).Warn("dropping corrupt state record", map[string]interface{}{
			"key": Key(userID, channelID),
		})
		s.client.Del(ctx, Key(userID, channelID))
		return nil, nil
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, userID, channelID string, st *models.ConversationState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("state marshal failed: %w", err)
	}
	if err := s.client.Set(ctx, Key(userID, channelID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("state save failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID, channelID string) error {
	if err := s.client.Del(ctx, Key(userID, channelID)).Err(); err != nil {
		return fmt.Errorf("state delete failed: %w", err)
	}
	return nil
}
