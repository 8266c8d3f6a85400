package tokencache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// FileStore keeps the token in a single local JSON file. Writes fully
// replace the previous content; there is no coordination for concurrent
// writers beyond the single-process assumption.
type FileStore struct {
	path   string
	margin time.Duration
	logger *otelzap.Logger
}

// NewFileStore creates a file-backed token store.
func NewFileStore(path string, logger *otelzap.Logger) *FileStore {
	if path == "" {
		path = ".token.json"
	}
	return &FileStore{
		path:   path,
		margin: DefaultSafetyMargin,
		logger: logger,
	}
}

// Read implements Store.
func (s *FileStore) Read(ctx context.Context) string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ""
	}
	if !rec.valid(time.Now(), s.margin) {
		return ""
	}
	return rec.Token
}

// Write implements Store.
func (s *FileStore) Write(ctx context.Context, token string, ttl time.Duration) {
	payload, err := json.Marshal(record{
		Token: token,
		ExpAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		s.logger.Ctx(ctx).Warn("token marshal failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		s.logger.Ctx(ctx).Warn("token file write failed", zap.String("path", s.path), zap.Error(err))
	}
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context) {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Ctx(ctx).Warn("token file remove failed", zap.String("path", s.path), zap.Error(err))
	}
}

var _ Store = (*FileStore)(nil)
