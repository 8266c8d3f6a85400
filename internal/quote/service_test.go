package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/freteaz/fretebot/internal/telemetry"
	"github.com/freteaz/fretebot/internal/throttle"
	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// metrics registers collectors globally, so the package shares one instance.
var testMetrics = telemetry.NewMetrics()

type fakeSource struct {
	quotes []carrier.ServiceQuote
	err    error
	calls  int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Quote(ctx context.Context, req *carrier.ShipmentRequest) ([]carrier.ServiceQuote, error) {
	f.calls++
	return f.quotes, f.err
}

func newTestService(source carrier.RateSource) *Service {
	return NewService(source, throttle.New(time.Millisecond), otelzap.New(zap.NewNop()), testMetrics)
}

func TestService_Quote_Success(t *testing.T) {
	source := &fakeSource{quotes: []carrier.ServiceQuote{
		{Servico: "Sedex", Valor: "55,25"},
	}}
	svc := newTestService(source)

	quotes, err := svc.Quote(context.Background(), &carrier.ShipmentRequest{})

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Sedex", quotes[0].Servico)
	assert.Equal(t, 1, source.calls)
}

func TestService_Quote_PropagatesError(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("portal down")}
	svc := newTestService(source)

	_, err := svc.Quote(context.Background(), &carrier.ShipmentRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal down")
}

func TestService_Quote_CancelledContextSkipsUpstream(t *testing.T) {
	source := &fakeSource{}
	svc := NewService(source, throttle.New(time.Hour), otelzap.New(zap.NewNop()), testMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	// burn the initial slot, then cancel so the second call blocks and aborts
	_, err := svc.Quote(ctx, &carrier.ShipmentRequest{})
	require.NoError(t, err)
	cancel()

	_, err = svc.Quote(ctx, &carrier.ShipmentRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, source.calls)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing fields", carrier.ErrMissingFields, http.StatusBadRequest},
		{
			"wrapped missing fields",
			fmt.Errorf("validate: %w", carrier.ErrMissingFields),
			http.StatusBadRequest,
		},
		{
			"upstream status recorded",
			carrier.NewError("postaja", "/api/cotacao", "nope").WithStatusCode(503),
			503,
		},
		{
			"unauthorized after retry",
			carrier.NewError("postaja", "/api/cotacao", "unauthorized").
				WithStatusCode(401).WithCause(carrier.ErrUnauthorized),
			http.StatusUnauthorized,
		},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
