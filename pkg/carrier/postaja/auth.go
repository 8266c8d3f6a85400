package postaja

import (
	"context"
	"time"

	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/golang-jwt/jwt/v4"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TokenStore persists the cached bearer token. Implementations fail
// closed: Read returns "" for a miss, an expired record or any storage
// problem, and Write/Clear never surface infrastructure errors.
type TokenStore interface {
	Read(ctx context.Context) string
	Write(ctx context.Context, token string, ttl time.Duration)
	Clear(ctx context.Context)
}

// Authenticator obtains and caches bearer tokens for the portal.
// Concurrent cache misses collapse into a single login call.
type Authenticator struct {
	api         APIClient
	store       TokenStore
	usuario     string
	senha       string
	fallbackTTL time.Duration
	onRefresh   func(result string)
	logger      *otelzap.Logger
	sf          singleflight.Group
}

// AuthConfig holds authenticator configuration.
type AuthConfig struct {
	Usuario     string
	Senha       string
	FallbackTTL time.Duration // token lifetime when neither claim nor response advertise one

	// OnRefresh, when set, observes every login attempt with "ok" or "error".
	OnRefresh func(result string)
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(api APIClient, store TokenStore, cfg AuthConfig, logger *otelzap.Logger) *Authenticator {
	fallback := cfg.FallbackTTL
	if fallback == 0 {
		fallback = time.Hour
	}

	return &Authenticator{
		api:         api,
		store:       store,
		usuario:     cfg.Usuario,
		senha:       cfg.Senha,
		fallbackTTL: fallback,
		onRefresh:   cfg.OnRefresh,
		logger:      logger,
	}
}

// Token returns a valid bearer token, logging in on a cache miss.
// With force set, the cached token is discarded and a fresh login is
// performed regardless of cache state.
func (a *Authenticator) Token(ctx context.Context, force bool) (string, error) {
	if !force {
		if tok := a.store.Read(ctx); tok != "" {
			return tok, nil
		}
	} else {
		a.store.Clear(ctx)
	}

	v, err, shared := a.sf.Do("login", func() (interface{}, error) {
		return a.login(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		a.logger.Ctx(ctx).Debug("login shared across concurrent requests")
	}
	return v.(string), nil
}

func (a *Authenticator) login(ctx context.Context) (string, error) {
	if a.usuario == "" || a.senha == "" {
		return "", carrier.ErrMissingCredentials
	}

	resp, err := a.api.Login(ctx, a.usuario, a.senha)
	if err != nil {
		a.refreshed("error")
		a.logger.Ctx(ctx).Error("portal login failed", zap.Error(err))
		return "", err
	}

	token, ok := resp.Token()
	if !ok {
		a.refreshed("error")
		return "", carrier.NewError(carrierName, "/auth/login", "no token field in login response").
			WithCause(carrier.ErrNoToken)
	}

	ttl := a.tokenTTL(resp, token)
	a.store.Write(ctx, token, ttl)
	a.refreshed("ok")
	a.logger.Ctx(ctx).Info("portal login succeeded", zap.Duration("ttl", ttl))
	return token, nil
}

func (a *Authenticator) refreshed(result string) {
	if a.onRefresh != nil {
		a.onRefresh(result)
	}
}

// tokenTTL determines the token lifetime, by priority: the unverified exp
// claim embedded in the token (the token is opaque to this system, its
// signature is the portal's concern), then the response's expires_in
// field, then the configured fallback.
func (a *Authenticator) tokenTTL(resp *LoginResponse, token string) time.Duration {
	if parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err == nil {
		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			if exp, ok := claims["exp"].(float64); ok {
				if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
					return until
				}
			}
		}
	}

	if secs, ok := resp.ExpiresIn(); ok {
		return time.Duration(secs) * time.Second
	}

	return a.fallbackTTL
}
