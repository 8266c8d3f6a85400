package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freteaz/fretebot/internal/quote"
	"github.com/freteaz/fretebot/pkg/carrier"
)

// cotacaoRequest is the inbound quote body. The storefront and its older
// integrations disagree on field names, so the legacy cepOrigem/cepDestino/
// valor spellings are accepted as aliases.
type cotacaoRequest struct {
	Origem         string  `json:"origem"`
	CepOrigem      string  `json:"cepOrigem"`
	Destino        string  `json:"destino"`
	CepDestino     string  `json:"cepDestino"`
	Peso           float64 `json:"peso"`
	Altura         float64 `json:"altura"`
	Largura        float64 `json:"largura"`
	Comprimento    float64 `json:"comprimento"`
	ValorDeclarado float64 `json:"valorDeclarado"`
	Valor          float64 `json:"valor"`
}

// normalize collapses the aliases into a ShipmentRequest and reports the
// names of missing mandatory fields.
func (r *cotacaoRequest) normalize() (*carrier.ShipmentRequest, []string) {
	origem := r.Origem
	if origem == "" {
		origem = r.CepOrigem
	}
	destino := r.Destino
	if destino == "" {
		destino = r.CepDestino
	}
	valor := r.ValorDeclarado
	if valor == 0 {
		valor = r.Valor
	}

	var missing []string
	if origem == "" {
		missing = append(missing, "origem")
	}
	if destino == "" {
		missing = append(missing, "destino")
	}
	if r.Peso <= 0 {
		missing = append(missing, "peso")
	}
	if len(missing) > 0 {
		return nil, missing
	}

	return &carrier.ShipmentRequest{
		CepOrigem:      origem,
		CepDestino:     destino,
		PesoKg:         r.Peso,
		ValorDeclarado: valor,
		AlturaCm:       r.Altura,
		LarguraCm:      r.Largura,
		ComprimentoCm:  r.Comprimento,
	}, nil
}

// cotacaoResponse is the response envelope for POST /cotacao.
type cotacaoResponse struct {
	OK              bool                   `json:"ok"`
	TempoRespostaMs int64                  `json:"tempoRespostaMs"`
	Resultados      []carrier.ServiceQuote `json:"resultados,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

func (s *Server) handleCotacao(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		s.fail(c, start, http.StatusBadRequest, "corpo da requisição ilegível")
		return
	}

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.Key(body)
		if payload, ok := s.cache.Get(ctx, cacheKey); ok {
			s.metrics.RecordCache("response", "hit")
			c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
			return
		}
		s.metrics.RecordCache("response", "miss")
	}

	var req cotacaoRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.fail(c, start, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return
	}

	shipment, missing := req.normalize()
	if len(missing) > 0 {
		s.fail(c, start, http.StatusBadRequest,
			"Parâmetros obrigatórios ausentes: "+strings.Join(missing, ", "))
		return
	}

	resultados, err := s.quotes.Quote(ctx, shipment)
	if err != nil {
		s.logger.Ctx(ctx).Error("cotacao failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		s.fail(c, start, quote.HTTPStatus(err), err.Error())
		return
	}

	resp := cotacaoResponse{
		OK:              true,
		TempoRespostaMs: time.Since(start).Milliseconds(),
		Resultados:      resultados,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(resp); err == nil {
			s.cache.Set(ctx, cacheKey, payload)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) fail(c *gin.Context, start time.Time, status int, msg string) {
	c.JSON(status, cotacaoResponse{
		OK:              false,
		TempoRespostaMs: time.Since(start).Milliseconds(),
		Error:           msg,
	})
}
