package postaja_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/freteaz/fretebot/pkg/carrier/postaja"
	"github.com/freteaz/fretebot/pkg/cep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockAPI *postaja.MockAPIClient, cfg postaja.Config, store postaja.TokenStore) *postaja.Client {
	logger := otelzap.New(zap.NewNop())
	auth := postaja.NewAuthenticator(mockAPI, store, postaja.AuthConfig{
		Usuario: "loja",
		Senha:   "segredo",
	}, logger)
	return postaja.NewWithAPIClient(cfg, mockAPI, auth, nil, logger, nil)
}

func testShipment() *carrier.ShipmentRequest {
	return &carrier.ShipmentRequest{
		CepOrigem:  "29190014",
		CepDestino: "01000000",
		PesoKg:     0.5,
	}
}

func TestClient_Quote_AppliesMarkup(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		return &postaja.PrecoPrazoResponse{Items: []postaja.Item{
			{"coProduto": "03220", "pcFinal": "50,00", "prazoEntrega": float64(2)},
		}}, nil
	}
	client := newTestClient(mockAPI, postaja.Config{
		Tariff: carrier.Tariff{Percents: map[string]float64{"Sedex": 10.5}},
	}, &fakeStore{})

	quotes, err := client.Quote(context.Background(), testShipment())

	require.NoError(t, err)
	require.Len(t, quotes, len(carrier.DefaultServices))

	sedex := quotes[0]
	assert.Equal(t, "Sedex", sedex.Servico)
	assert.Equal(t, "55,25", sedex.Valor)
	assert.False(t, sedex.IsError)
	require.NotNil(t, sedex.Prazo)
	assert.Equal(t, "2", *sedex.Prazo)
}

func TestClient_Quote_DefaultMockReturnsAllServices(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	client := newTestClient(mockAPI, postaja.Config{}, &fakeStore{})

	quotes, err := client.Quote(context.Background(), testShipment())

	require.NoError(t, err)
	require.Len(t, quotes, len(carrier.DefaultServices))
	for _, q := range quotes {
		assert.False(t, q.IsError, q.Servico)
		assert.NotEmpty(t, q.Valor)
	}
}

func TestClient_Quote_SynthesizesMissingServices(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		return &postaja.PrecoPrazoResponse{Items: []postaja.Item{
			{"coProduto": "03298", "pcFinal": "18,90"},
		}}, nil
	}
	client := newTestClient(mockAPI, postaja.Config{}, &fakeStore{})

	quotes, err := client.Quote(context.Background(), testShipment())

	require.NoError(t, err)
	require.Len(t, quotes, 3)

	byName := map[string]carrier.ServiceQuote{}
	for _, q := range quotes {
		byName[q.Servico] = q
	}
	assert.False(t, byName["Pac"].IsError)
	assert.True(t, byName["Sedex"].IsError)
	assert.NotEmpty(t, byName["Sedex"].Mensagem)
	assert.True(t, byName["Mini Envios"].IsError)
}

func TestClient_Quote_ZeroPriceBecomesPlaceholder(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		return &postaja.PrecoPrazoResponse{Items: []postaja.Item{
			{"coProduto": "03220", "pcFinal": "0,00"},
		}}, nil
	}
	client := newTestClient(mockAPI, postaja.Config{
		Tariff: carrier.Tariff{Percents: map[string]float64{"Sedex": 10.5}},
	}, &fakeStore{})

	quotes, err := client.Quote(context.Background(), testShipment())

	require.NoError(t, err)
	sedex := quotes[0]
	assert.True(t, sedex.IsError)
	assert.Equal(t, "0,00", sedex.Valor)
	assert.Contains(t, sedex.Mensagem, "Sedex")
}

func TestClient_Quote_DuplicateLineItemsFirstWins(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		return &postaja.PrecoPrazoResponse{Items: []postaja.Item{
			{"coProduto": "03220", "pcFinal": "50,00"},
			{"coProduto": "03220", "pcFinal": "99,99"},
		}}, nil
	}
	client := newTestClient(mockAPI, postaja.Config{}, &fakeStore{})

	quotes, err := client.Quote(context.Background(), testShipment())

	require.NoError(t, err)
	assert.Equal(t, "50,00", quotes[0].Valor)

	count := 0
	for _, q := range quotes {
		if q.Servico == "Sedex" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestClient_Quote_UnauthorizedForcesReloginAndRetries(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	calls := 0
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		calls++
		if calls == 1 {
			return nil, carrier.NewError("postaja", "/api/cotacao", "unauthorized").
				WithCause(carrier.ErrUnauthorized).WithStatusCode(401)
		}
		return &postaja.PrecoPrazoResponse{Items: []postaja.Item{
			{"coProduto": "03220", "pcFinal": "50,00"},
		}}, nil
	}
	store := &fakeStore{token: "stale-token"}
	client := newTestClient(mockAPI, postaja.Config{}, store)

	quotes, err := client.Quote(context.Background(), testShipment())

	require.NoError(t, err)
	assert.Equal(t, 2, mockAPI.PrecoPrazoCalls)
	assert.Equal(t, 1, mockAPI.LoginCalls)
	assert.Equal(t, 1, store.clears)
	assert.False(t, quotes[0].IsError)
}

func TestClient_Quote_SecondUnauthorizedIsTerminal(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		return nil, carrier.NewError("postaja", "/api/cotacao", "unauthorized").
			WithCause(carrier.ErrUnauthorized).WithStatusCode(401)
	}
	client := newTestClient(mockAPI, postaja.Config{}, &fakeStore{token: "stale-token"})

	_, err := client.Quote(context.Background(), testShipment())

	require.Error(t, err)
	assert.True(t, carrier.IsUnauthorized(err))
	assert.Equal(t, 2, mockAPI.PrecoPrazoCalls)
	assert.Equal(t, 1, mockAPI.LoginCalls)
}

func TestClient_Quote_BuildsUpstreamRequest(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	var captured *postaja.PrecoPrazoRequest
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		captured = req
		return &postaja.PrecoPrazoResponse{Items: nil}, nil
	}
	client := newTestClient(mockAPI, postaja.Config{}, &fakeStore{})

	_, err := client.Quote(context.Background(), &carrier.ShipmentRequest{
		CepOrigem:     "29190014",
		CepDestino:    "01000000",
		PesoKg:        0.5,
		AlturaCm:      4,
		LarguraCm:     16,
		ComprimentoCm: 24,
	})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "29190014", captured.CepOrigem)
	assert.Equal(t, "01000000", captured.CepDestino)
	assert.Equal(t, 500, captured.Peso)
	assert.Equal(t, 25.0, captured.Valor) // declared value floored
	assert.Equal(t, []string{"03220", "03298", "04227"}, captured.Servicos)
}

type fakeCEPs struct {
	addrs map[string]*cep.Address
}

func (f *fakeCEPs) Lookup(ctx context.Context, cepCode string) (*cep.Address, error) {
	if a, ok := f.addrs[cepCode]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("cep %s not found", cepCode)
}

func TestClient_Quote_EnrichesAddresses(t *testing.T) {
	mockAPI := postaja.NewMockAPIClient()
	var captured *postaja.PrecoPrazoRequest
	mockAPI.OnPrecoPrazo = func(ctx context.Context, token string, req *postaja.PrecoPrazoRequest) (*postaja.PrecoPrazoResponse, error) {
		captured = req
		return &postaja.PrecoPrazoResponse{Items: nil}, nil
	}

	logger := otelzap.New(zap.NewNop())
	auth := postaja.NewAuthenticator(mockAPI, &fakeStore{}, postaja.AuthConfig{
		Usuario: "loja", Senha: "segredo",
	}, logger)
	ceps := &fakeCEPs{addrs: map[string]*cep.Address{
		"29190014": {Cep: "29190014", Cidade: "Aracruz", UF: "ES"},
	}}
	client := postaja.NewWithAPIClient(postaja.Config{}, mockAPI, auth, ceps, logger, nil)

	_, err := client.Quote(context.Background(), testShipment())

	require.NoError(t, err)
	require.NotNil(t, captured.Remetente)
	assert.Equal(t, "Aracruz", captured.Remetente.Cidade)
	// destination lookup failed; enrichment is best effort
	assert.Nil(t, captured.Destinatario)
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(postaja.NewMockAPIClient(), postaja.Config{}, &fakeStore{})
	assert.Equal(t, "postaja", client.Name())
}

func TestWeightGrams(t *testing.T) {
	tests := []struct {
		name string
		peso float64
		want int
	}{
		{"fraction of a kg", 0.1, 100},
		{"half kg", 0.5, 500},
		{"boundary stays kg", 10, 10000},
		{"already grams passes through", 150, 150},
		{"heavy shipment swallowed by heuristic", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, postaja.WeightGrams(tt.peso))
		})
	}
}
