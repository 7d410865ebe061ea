package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/tripflow/server/internal/core/error"
	"github.com/tripflow/server/internal/planner/model"
	logx "github.com/tripflow/server/pkg/logger"
)

// RedisConversationStore keeps the full TripState as one JSON value per
// conversation. TTL is extended on every save so active conversations stay
// alive while abandoned ones expire.
type RedisConversationStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationStore(rdb redis.Cmdable, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationStore) stateKey(conversationID string) string {
	return fmt.Sprintf("trip:%s:state", conversationID)
}

func (r *RedisConversationStore) Load(ctx context.Context, conversationID string) (*model.TripState, error) {
	key := r.stateKey(conversationID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load trip state from redis")
		return nil, errx.WrapRedis(err)
	}

	var st model.TripState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to unmarshal trip state")
		return nil, fmt.Errorf("unmarshal trip state: %w", err)
	}
	return &st, nil
}

func (r *RedisConversationStore) Save(ctx context.Context, conversationID string, state *model.TripState) error {
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to marshal trip state")
		return fmt.Errorf("marshal trip state: %w", err)
	}

	key := r.stateKey(conversationID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save trip state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ConversationStore = (*RedisConversationStore)(nil)
