package postaja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/freteaz/fretebot/pkg/carrier"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login authenticates against the portal.
// POST /auth/login with {usuario, senha}.
func (c *HTTPAPIClient) Login(ctx context.Context, usuario, senha string) (*LoginResponse, error) {
	body := map[string]string{"usuario": usuario, "senha": senha}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", body)
	if err != nil {
		return nil, carrier.NewError(carrierName, "/auth/login", "request failed").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError("/auth/login", resp)
	}

	var fields map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, carrier.NewError(carrierName, "/auth/login", "failed to decode login response").
			WithCause(err)
	}

	return &LoginResponse{Fields: fields}, nil
}

// PrecoPrazo fetches raw price/lead-time line items.
// POST /api/cotacao with Authorization: Bearer <token>.
func (c *HTTPAPIClient) PrecoPrazo(ctx context.Context, token string, req *PrecoPrazoRequest) (*PrecoPrazoResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/cotacao", token, req)
	if err != nil {
		return nil, carrier.NewError(carrierName, "/api/cotacao", "request failed").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, carrier.NewError(carrierName, "/api/cotacao", "unauthorized").
			WithCause(carrier.ErrUnauthorized).WithStatusCode(resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError("/api/cotacao", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, carrier.NewError(carrierName, "/api/cotacao", "failed to read response").
			WithCause(err)
	}

	items := decodeItems(raw)
	if items == nil {
		return nil, carrier.NewError(carrierName, "/api/cotacao", "unrecognized response shape").
			WithStatusCode(resp.StatusCode)
	}

	return &PrecoPrazoResponse{Items: items}, nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fretebot/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response. The body is
// truncated so upstream HTML error pages don't flood the logs.
func (c *HTTPAPIClient) parseError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	var simpleErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Erro    string `json:"erro"`
	}
	msg := ""
	if err := json.Unmarshal(body, &simpleErr); err == nil {
		switch {
		case simpleErr.Error != "":
			msg = simpleErr.Error
		case simpleErr.Message != "":
			msg = simpleErr.Message
		case simpleErr.Erro != "":
			msg = simpleErr.Erro
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return carrier.NewError(carrierName, endpoint, msg).
		WithStatusCode(resp.StatusCode).
		WithRetryable(resp.StatusCode >= 500)
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
