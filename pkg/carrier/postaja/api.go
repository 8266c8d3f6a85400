package postaja

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/freteaz/fretebot/pkg/carrier"
)

// APIClient defines the interface for Posta Já portal operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// Login authenticates against the portal and returns the raw response.
	Login(ctx context.Context, usuario, senha string) (*LoginResponse, error)

	// PrecoPrazo fetches raw price/lead-time line items for a shipment.
	PrecoPrazo(ctx context.Context, token string, req *PrecoPrazoRequest) (*PrecoPrazoResponse, error)
}

// ============================================================================
// API Request/Response Types
// ============================================================================

// LoginResponse is the raw login payload. The portal's backend has shipped
// several shapes over time, so the body is kept as a generic map and probed
// with ordered extractors.
type LoginResponse struct {
	Fields map[string]any
}

// tokenFields is the priority order in which a bearer token is searched
// inside the login response. The order encodes observed portal variance;
// do not reorder without checking against the live backend.
var tokenFields = []string{"token", "access_token", "accessToken", "jwt", "bearer"}

// expiresFields is the priority order for the token lifetime, in seconds.
var expiresFields = []string{"expires_in", "expiresIn", "expira_em"}

// Token returns the bearer token from the login response, probing each
// known field name in priority order.
func (r *LoginResponse) Token() (string, bool) {
	return firstString(r.Fields, tokenFields...)
}

// ExpiresIn returns the advertised token lifetime in seconds, when present.
func (r *LoginResponse) ExpiresIn() (int64, bool) {
	v, ok := firstNumber(r.Fields, expiresFields...)
	if !ok || v <= 0 {
		return 0, false
	}
	return int64(v), true
}

// Endereco is the address block attached to quote requests, filled from
// the opencep lookup when available.
type Endereco struct {
	Cep        string `json:"cep"`
	Logradouro string `json:"logradouro,omitempty"`
	Bairro     string `json:"bairro,omitempty"`
	Cidade     string `json:"cidade,omitempty"`
	UF         string `json:"uf,omitempty"`
}

// PrecoPrazoRequest is the outbound quote request.
// POST /api/cotacao with Authorization: Bearer <token>.
type PrecoPrazoRequest struct {
	CepOrigem    string    `json:"cepOrigem"`
	CepDestino   string    `json:"cepDestino"`
	Peso         int       `json:"peso"` // grams
	Valor        float64   `json:"valor"`
	Altura       float64   `json:"altura,omitempty"`
	Largura      float64   `json:"largura,omitempty"`
	Comprimento  float64   `json:"comprimento,omitempty"`
	Servicos     []string  `json:"servicos"`
	Remetente    *Endereco `json:"remetente,omitempty"`
	Destinatario *Endereco `json:"destinatario,omitempty"`
}

// Item is one raw line item from the pricing endpoint. Field names vary
// by backend release, so items stay generic maps probed with extractors.
type Item map[string]any

// PrecoPrazoResponse is the normalized pricing payload: the upstream
// returns either a bare array or an object wrapping the array under one
// of several keys.
type PrecoPrazoResponse struct {
	Items []Item
}

// itemsFields is the priority order for the wrapper key holding the line
// items when the response is an object rather than a bare array.
var itemsFields = []string{"itens", "servicos", "resultados"}

// codeFields is the priority order for the service code or name.
var codeFields = []string{"coProduto", "code", "service_code", "servico", "nome"}

// priceFields is the priority order for the raw price.
var priceFields = []string{"pcFinal", "valor", "valorFrete", "preco", "price"}

// prazoFields is the priority order for the delivery lead time.
var prazoFields = []string{"prazoEntrega", "prazo", "deadline"}

// Code returns the item's service code or name.
func (it Item) Code() (string, bool) {
	return firstString(it, codeFields...)
}

// Price returns the item's raw price. Zero, empty and absent prices all
// report false so callers synthesize an unavailability placeholder.
func (it Item) Price() (float64, bool) {
	v, ok := firstNumber(it, priceFields...)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Prazo returns the item's lead time as a string, when present.
func (it Item) Prazo() (string, bool) {
	for _, k := range prazoFields {
		raw, ok := it[k]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case json.Number:
			return v.String(), true
		}
	}
	return "", false
}

// decodeItems accepts either a JSON array of items or an object with the
// items under one of the known wrapper keys.
func decodeItems(raw json.RawMessage) []Item {
	var arr []Item
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	for _, k := range itemsFields {
		inner, ok := obj[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &arr); err == nil {
			return arr
		}
	}
	return nil
}

// firstString probes keys in order and returns the first non-empty string.
func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok || raw == nil {
			continue
		}
		if s, ok := raw.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// firstNumber probes keys in order and returns the first value coercible
// to a number. Strings parse through carrier.ParseValor so Brazilian
// decimal commas ("50,00") are accepted.
func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, ok := carrier.ParseValor(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}
