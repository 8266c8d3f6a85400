// Package postaja provides integration with the Posta Já carrier portal.
package postaja

import (
	"context"
	"math"
	"time"

	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/freteaz/fretebot/pkg/cep"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "postaja"

// CEPLookup resolves a postal code into an address block. Lookups are
// enrichment only: failures never fail a quote.
type CEPLookup interface {
	Lookup(ctx context.Context, cepCode string) (*cep.Address, error)
}

// Config holds Posta Já configuration.
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	Services         []carrier.Service
	Tariff           carrier.Tariff
	MinDeclaredValue float64 // floor for zero/absent declared values; the portal rejects zero
	UseMock          bool    // when true, uses a mock API client
}

// Client is the Posta Já quote client.
// It implements the carrier.RateSource interface and delegates portal
// calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config Config
	api    APIClient
	auth   *Authenticator
	ceps   CEPLookup
	logger *otelzap.Logger
	tracer trace.Tracer
}

// New creates a new Posta Já client and its authenticator, sharing one
// API client between them.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, tokens TokenStore, authCfg AuthConfig, ceps CEPLookup, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var api APIClient

	if cfg.UseMock {
		api = NewMockAPIClient()
	} else {
		api = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	}

	auth := NewAuthenticator(api, tokens, authCfg, logger)
	return newClient(cfg, api, auth, ceps, logger, tracer)
}

// NewWithAPIClient creates a new Posta Já client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, api APIClient, auth *Authenticator, ceps CEPLookup, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return newClient(cfg, api, auth, ceps, logger, tracer)
}

func newClient(cfg Config, api APIClient, auth *Authenticator, ceps CEPLookup, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if len(cfg.Services) == 0 {
		cfg.Services = carrier.DefaultServices
	}
	if cfg.MinDeclaredValue <= 0 {
		cfg.MinDeclaredValue = 25
	}

	return &Client{
		config: cfg,
		api:    api,
		auth:   auth,
		ceps:   ceps,
		logger: logger,
		tracer: tracer,
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return carrierName
}

// Quote returns one ServiceQuote per configured service.
// A 401 from the pricing endpoint invalidates the cached token, forces a
// fresh login and retries the call exactly once; a second 401 is terminal.
func (c *Client) Quote(ctx context.Context, req *carrier.ShipmentRequest) ([]carrier.ServiceQuote, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "postaja.Quote")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("quoting shipment",
		zap.String("origem", req.CepOrigem),
		zap.String("destino", req.CepDestino),
		zap.Float64("peso", req.PesoKg),
	)

	apiReq := c.buildRequest(ctx, req)

	token, err := c.auth.Token(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.PrecoPrazo(ctx, token, apiReq)
	if err != nil && carrier.IsUnauthorized(err) {
		c.logger.Ctx(ctx).Warn("cached token rejected, forcing re-login")
		token, err = c.auth.Token(ctx, true)
		if err != nil {
			return nil, err
		}
		resp, err = c.api.PrecoPrazo(ctx, token, apiReq)
	}
	if err != nil {
		c.logger.Ctx(ctx).Error("pricing call failed", zap.Error(err))
		return nil, err
	}

	return c.normalize(resp), nil
}

// buildRequest converts the domain request into the portal's expected
// shape, including best-effort address enrichment via opencep.
func (c *Client) buildRequest(ctx context.Context, req *carrier.ShipmentRequest) *PrecoPrazoRequest {
	codes := make([]string, len(c.config.Services))
	for i, s := range c.config.Services {
		codes[i] = s.Code
	}

	apiReq := &PrecoPrazoRequest{
		CepOrigem:   req.CepOrigem,
		CepDestino:  req.CepDestino,
		Peso:        WeightGrams(req.PesoKg),
		Valor:       c.declaredValue(req.ValorDeclarado),
		Altura:      req.AlturaCm,
		Largura:     req.LarguraCm,
		Comprimento: req.ComprimentoCm,
		Servicos:    codes,
	}

	if c.ceps != nil {
		apiReq.Remetente = c.lookupEndereco(ctx, req.CepOrigem)
		apiReq.Destinatario = c.lookupEndereco(ctx, req.CepDestino)
	}

	return apiReq
}

func (c *Client) lookupEndereco(ctx context.Context, cepCode string) *Endereco {
	addr, err := c.ceps.Lookup(ctx, cepCode)
	if err != nil {
		c.logger.Ctx(ctx).Debug("cep lookup failed", zap.String("cep", cepCode), zap.Error(err))
		return nil
	}
	return &Endereco{
		Cep:        addr.Cep,
		Logradouro: addr.Logradouro,
		Bairro:     addr.Bairro,
		Cidade:     addr.Cidade,
		UF:         addr.UF,
	}
}

// normalize maps raw line items to ServiceQuotes, applying the tariff and
// synthesizing placeholders so every configured service appears exactly
// once in the output.
func (c *Client) normalize(resp *PrecoPrazoResponse) []carrier.ServiceQuote {
	byService := make(map[string]carrier.ServiceQuote, len(c.config.Services))

	for _, item := range resp.Items {
		code, ok := item.Code()
		if !ok {
			continue
		}
		svc, ok := c.resolveService(code)
		if !ok {
			continue
		}
		if _, seen := byService[svc.Code]; seen {
			continue
		}

		base, ok := item.Price()
		if !ok {
			byService[svc.Code] = placeholder(svc)
			continue
		}

		quote := carrier.ServiceQuote{
			Servico: svc.Name,
			Valor:   carrier.FormatValor(c.config.Tariff.Apply(svc.Name, base)),
		}
		if prazo, ok := item.Prazo(); ok {
			quote.Prazo = &prazo
		}
		byService[svc.Code] = quote
	}

	out := make([]carrier.ServiceQuote, 0, len(c.config.Services))
	for _, svc := range c.config.Services {
		quote, ok := byService[svc.Code]
		if !ok {
			quote = placeholder(svc)
		}
		out = append(out, quote)
	}
	return out
}

// resolveService matches a raw line item against the configured service
// table, by product code first and by display name second.
func (c *Client) resolveService(codeOrName string) (carrier.Service, bool) {
	for _, svc := range c.config.Services {
		if svc.Code == codeOrName || svc.Name == codeOrName {
			return svc, true
		}
	}
	return carrier.Service{}, false
}

func placeholder(svc carrier.Service) carrier.ServiceQuote {
	return carrier.ServiceQuote{
		Servico:  svc.Name,
		Valor:    carrier.FormatValor(0),
		IsError:  true,
		Mensagem: svc.UnavailableMsg,
	}
}

func (c *Client) declaredValue(v float64) float64 {
	if v <= 0 {
		return c.config.MinDeclaredValue
	}
	return v
}

// WeightGrams converts a client-supplied weight to the grams the portal
// expects. Inputs above 10 are assumed to already be grams and pass
// through unchanged, which also swallows legitimate >10kg shipments;
// callers that need heavy freight must send grams until the API grows an
// explicit unit field.
func WeightGrams(peso float64) int {
	if peso > 10 {
		return int(math.Round(peso))
	}
	return int(math.Round(peso * 1000))
}

var _ carrier.RateSource = (*Client)(nil)
