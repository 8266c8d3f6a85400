package carrier

import (
	"math"
	"strconv"
	"strings"
)

// ShipmentRequest holds the normalized shipment parameters for a quote.
// PesoKg is the client-supplied weight in kilograms; values above 10 are
// treated downstream as already being grams (see postaja.WeightGrams).
type ShipmentRequest struct {
	CepOrigem      string
	CepDestino     string
	PesoKg         float64
	ValorDeclarado float64
	AlturaCm       float64
	LarguraCm      float64
	ComprimentoCm  float64
}

// ServiceQuote is a single normalized line item returned to the caller.
// Valor carries the marked-up price formatted with a decimal comma
// ("55,25"). IsError marks synthetic placeholders for services the
// carrier rejected or omitted; Mensagem explains why.
type ServiceQuote struct {
	Servico  string  `json:"servico"`
	Valor    string  `json:"valor"`
	Prazo    *string `json:"prazo"`
	IsError  bool    `json:"isError"`
	Mensagem string  `json:"mensagem,omitempty"`
}

// Service describes one carrier product the gateway always quotes.
type Service struct {
	Code           string
	Name           string
	UnavailableMsg string
}

// DefaultServices is the fixed product list requested from the carrier.
// Codes follow the Correios contract-product numbering the portal uses.
var DefaultServices = []Service{
	{Code: "03220", Name: "Sedex", UnavailableMsg: "Peso ou valor declarado acima do limite para o Sedex"},
	{Code: "03298", Name: "Pac", UnavailableMsg: "Peso ou valor declarado acima do limite para o Pac"},
	{Code: "04227", Name: "Mini Envios", UnavailableMsg: "CEP de destino não atendido pelo Mini Envios"},
}

// Tariff maps service names to the markup applied over the carrier's raw
// price. Multipliers win over Percents when both name the same service,
// matching the precedence of the legacy taxes/taxas config blocks.
// Immutable after startup.
type Tariff struct {
	Multipliers map[string]float64
	Percents    map[string]float64
}

// Apply returns the marked-up price for a service, rounded to 2 decimals.
// Services absent from both tables pass through unchanged.
func (t Tariff) Apply(service string, base float64) float64 {
	final := base
	if mult, ok := t.Multipliers[service]; ok {
		final = base * mult
	} else if perc, ok := t.Percents[service]; ok {
		final = base * (1 + perc/100)
	}
	return math.Round(final*100) / 100
}

// FormatValor renders a price with two decimals and a decimal comma,
// the shape the storefront expects ("55,25").
func FormatValor(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

// ParseValor parses carrier price strings such as "50,00", "1.234,56" or
// "R$ 19,90" into a float. Plain dot-decimal strings also parse. Returns
// false when nothing numeric remains.
func ParseValor(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
