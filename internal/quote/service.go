// Package quote orchestrates the quote pipeline: throttle, then the rate
// source (which handles login and the single 401 retry internally).
package quote

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/freteaz/fretebot/internal/telemetry"
	"github.com/freteaz/fretebot/internal/throttle"
	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Service runs shipment requests through the outbound pipeline.
type Service struct {
	source   carrier.RateSource
	throttle *throttle.Throttle
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// NewService creates a quote service.
func NewService(source carrier.RateSource, th *throttle.Throttle, logger *otelzap.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{
		source:   source,
		throttle: th,
		logger:   logger,
		metrics:  metrics,
	}
}

// Quote waits for an upstream slot and fetches normalized quotes.
func (s *Service) Quote(ctx context.Context, req *carrier.ShipmentRequest) ([]carrier.ServiceQuote, error) {
	if err := s.throttle.Acquire(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	quotes, err := s.source.Quote(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.RecordUpstream(s.source.Name(), "error", elapsed.Seconds())
		s.logger.Ctx(ctx).Error("quote pipeline failed",
			zap.String("source", s.source.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordUpstream(s.source.Name(), "ok", elapsed.Seconds())
	return quotes, nil
}

// HTTPStatus maps a pipeline error to the status returned to the caller:
// the upstream's status when one was recorded, 500 otherwise. Validation
// errors map to 400 before the pipeline runs.
func HTTPStatus(err error) int {
	if errors.Is(err, carrier.ErrMissingFields) {
		return http.StatusBadRequest
	}
	if code := carrier.StatusCode(err); code > 0 {
		return code
	}
	return http.StatusInternalServerError
}
