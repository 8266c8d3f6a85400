package tokencache

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// FallbackStore prefers redis and falls back to the local file only when
// redis is unreachable, mirroring the deployment where the cache survives
// restarts in redis but a network blip must not lose the token.
type FallbackStore struct {
	primary  *RedisStore
	fallback *FileStore
	logger   *otelzap.Logger
}

// NewFallbackStore composes the redis store with a file fallback.
func NewFallbackStore(primary *RedisStore, fallback *FileStore, logger *otelzap.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Read implements Store. A redis miss is authoritative; only a redis
// failure consults the file.
func (s *FallbackStore) Read(ctx context.Context) string {
	tok, err := s.primary.read(ctx)
	if err != nil {
		s.logger.Ctx(ctx).Warn("redis token read failed, trying file", zap.Error(err))
		return s.fallback.Read(ctx)
	}
	return tok
}

// Write implements Store. The file is written only when the redis write
// fails.
func (s *FallbackStore) Write(ctx context.Context, token string, ttl time.Duration) {
	if err := s.primary.write(ctx, token, ttl); err != nil {
		s.logger.Ctx(ctx).Warn("redis token write failed, falling back to file", zap.Error(err))
		s.fallback.Write(ctx, token, ttl)
	}
}

// Clear implements Store. Both stores are cleared so a stale file copy
// cannot resurrect an invalidated token.
func (s *FallbackStore) Clear(ctx context.Context) {
	s.primary.Clear(ctx)
	s.fallback.Clear(ctx)
}

var _ Store = (*FallbackStore)(nil)
