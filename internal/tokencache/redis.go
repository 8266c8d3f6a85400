package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// RedisStore keeps the token in a redis key with a native TTL, so the
// cache self-expires even if the process dies.
type RedisStore struct {
	client *redis.Client
	key    string
	margin time.Duration
	logger *otelzap.Logger
}

// NewRedisStore creates a redis-backed token store. The key is namespaced
// under the given prefix ("fretebot:" by convention).
func NewRedisStore(client *redis.Client, prefix string, logger *otelzap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    prefix + "token",
		margin: DefaultSafetyMargin,
		logger: logger,
	}
}

// Read implements Store.
func (s *RedisStore) Read(ctx context.Context) string {
	tok, err := s.read(ctx)
	if err != nil {
		s.logger.Ctx(ctx).Warn("redis token read failed", zap.Error(err))
		return ""
	}
	return tok
}

// read distinguishes infrastructure errors from misses so FallbackStore
// can decide whether to consult the file store.
func (s *RedisStore) read(ctx context.Context) (string, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", nil
	}
	if !rec.valid(time.Now(), s.margin) {
		return "", nil
	}
	return rec.Token, nil
}

// Write implements Store.
func (s *RedisStore) Write(ctx context.Context, token string, ttl time.Duration) {
	if err := s.write(ctx, token, ttl); err != nil {
		s.logger.Ctx(ctx).Warn("redis token write failed", zap.Error(err))
	}
}

func (s *RedisStore) write(ctx context.Context, token string, ttl time.Duration) error {
	payload, err := json.Marshal(record{
		Token: token,
		ExpAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, payload, ttl).Err()
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) {
	if err := s.client.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Ctx(ctx).Warn("redis token clear failed", zap.Error(err))
	}
}

var _ Store = (*RedisStore)(nil)
