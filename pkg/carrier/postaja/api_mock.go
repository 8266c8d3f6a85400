package postaja

import (
	"context"
	"time"

	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	LoginCalls      int
	PrecoPrazoCalls int

	OnLogin      func(ctx context.Context, usuario, senha string) (*LoginResponse, error)
	OnPrecoPrazo func(ctx context.Context, token string, req *PrecoPrazoRequest) (*PrecoPrazoResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Login returns a mock login response.
func (m *MockAPIClient) Login(ctx context.Context, usuario, senha string) (*LoginResponse, error) {
	m.LoginCalls++

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, carrier.NewError(carrierName, "/auth/login", "simulated login error").
			WithStatusCode(500)
	}

	if m.OnLogin != nil {
		return m.OnLogin(ctx, usuario, senha)
	}

	return &LoginResponse{Fields: map[string]any{
		"token":      "mock-token-" + uuid.New().String()[:8],
		"expires_in": float64(3600),
	}}, nil
}

// PrecoPrazo returns mock price line items.
func (m *MockAPIClient) PrecoPrazo(ctx context.Context, token string, req *PrecoPrazoRequest) (*PrecoPrazoResponse, error) {
	m.PrecoPrazoCalls++

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, carrier.NewError(carrierName, "/api/cotacao", "simulated pricing error").
			WithStatusCode(500)
	}

	if m.OnPrecoPrazo != nil {
		return m.OnPrecoPrazo(ctx, token, req)
	}

	return &PrecoPrazoResponse{Items: []Item{
		{"coProduto": "03220", "pcFinal": "27,50", "prazoEntrega": float64(2)},
		{"coProduto": "03298", "pcFinal": "18,90", "prazoEntrega": float64(6)},
		{"coProduto": "04227", "pcFinal": "12,30", "prazoEntrega": float64(8)},
	}}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
