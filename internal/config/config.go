package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port           int           `envconfig:"PORT" default:"10000"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"https://freteaz.com.br,https://www.freteaz.com.br"`

	// Inbound rate limit (per client IP)
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"2"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	// Posta Já portal
	BackBase         string        `envconfig:"BACK_BASE" default:"https://back.clubepostaja.com.br"`
	Usuario          string        `envconfig:"POSTAJA_USUARIO"`
	Senha            string        `envconfig:"POSTAJA_SENHA"`
	UpstreamTimeout  time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"20s"`
	TokenFallbackTTL time.Duration `envconfig:"TOKEN_FALLBACK_TTL" default:"1h"`
	ThrottleInterval time.Duration `envconfig:"THROTTLE_INTERVAL" default:"400ms"`
	MinDeclaredValue float64       `envconfig:"MIN_DECLARED_VALUE" default:"25"`
	UseMockCarrier   bool          `envconfig:"POSTAJA_USE_MOCK" default:"false"`

	// Redis (optional; token cache falls back to the file, the response
	// cache is disabled entirely without it)
	RedisURL     string        `envconfig:"REDIS_URL"`
	RedisPrefix  string        `envconfig:"REDIS_PREFIX" default:"fretebot:"`
	RespCacheTTL time.Duration `envconfig:"REDIS_TTL_SECONDS" default:"5m"`
	TokenFile    string        `envconfig:"TOKEN_FILE" default:".token.json"`

	// Tariff table
	TariffFile string `envconfig:"TARIFF_FILE" default:"config.json"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"fretebot"`
	Version      string `envconfig:"SERVICE_VERSION" default:"5.0.0"`
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// tariffFile mirrors the legacy config.json layout: taxes are raw
// multipliers, taxas are percentages, SERVICE_MAP renames product codes.
type tariffFile struct {
	Taxes      map[string]float64 `json:"taxes"`
	Taxas      map[string]float64 `json:"taxas"`
	ServiceMap map[string]string  `json:"SERVICE_MAP"`
}

// LoadTariff reads the tariff table and service list from the configured
// JSON file. A missing file yields the compiled-in defaults; a malformed
// file is an error since silently quoting without markup loses money.
func (c *Config) LoadTariff() (carrier.Tariff, []carrier.Service, error) {
	services := append([]carrier.Service(nil), carrier.DefaultServices...)

	raw, err := os.ReadFile(c.TariffFile)
	if os.IsNotExist(err) {
		return carrier.Tariff{}, services, nil
	}
	if err != nil {
		return carrier.Tariff{}, nil, fmt.Errorf("reading tariff file: %w", err)
	}

	var tf tariffFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return carrier.Tariff{}, nil, fmt.Errorf("parsing tariff file %s: %w", c.TariffFile, err)
	}

	for i, svc := range services {
		if name, ok := tf.ServiceMap[svc.Code]; ok {
			services[i].Name = name
		}
	}

	return carrier.Tariff{
		Multipliers: tf.Taxes,
		Percents:    tf.Taxas,
	}, services, nil
}
