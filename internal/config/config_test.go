package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://back.clubepostaja.com.br", cfg.BackBase)
	assert.Equal(t, 400*time.Millisecond, cfg.ThrottleInterval)
	assert.Equal(t, time.Hour, cfg.TokenFallbackTTL)
	assert.Equal(t, 25.0, cfg.MinDeclaredValue)
	assert.Equal(t, "fretebot:", cfg.RedisPrefix)
	assert.Equal(t, 5*time.Minute, cfg.RespCacheTTL)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("POSTAJA_USUARIO", "loja")
	t.Setenv("POSTAJA_SENHA", "segredo")
	t.Setenv("THROTTLE_INTERVAL", "1s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "loja", cfg.Usuario)
	assert.Equal(t, "segredo", cfg.Senha)
	assert.Equal(t, time.Second, cfg.ThrottleInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func writeTariff(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTariff_MissingFileUsesDefaults(t *testing.T) {
	cfg := &Config{TariffFile: filepath.Join(t.TempDir(), "missing.json")}

	tariff, services, err := cfg.LoadTariff()

	require.NoError(t, err)
	assert.Empty(t, tariff.Multipliers)
	assert.Empty(t, tariff.Percents)
	require.Len(t, services, 3)
	assert.Equal(t, "Sedex", services[0].Name)
}

func TestLoadTariff_ReadsTaxesAndTaxas(t *testing.T) {
	cfg := &Config{TariffFile: writeTariff(t, `{
		"taxes": {"Mini Envios": 1.35},
		"taxas": {"Sedex": 10.5, "Pac": 8}
	}`)}

	tariff, services, err := cfg.LoadTariff()

	require.NoError(t, err)
	assert.Equal(t, 1.35, tariff.Multipliers["Mini Envios"])
	assert.Equal(t, 10.5, tariff.Percents["Sedex"])
	assert.Len(t, services, 3)
}

func TestLoadTariff_ServiceMapRenames(t *testing.T) {
	cfg := &Config{TariffFile: writeTariff(t, `{
		"SERVICE_MAP": {"03220": "Sedex Expresso"}
	}`)}

	_, services, err := cfg.LoadTariff()

	require.NoError(t, err)
	assert.Equal(t, "Sedex Expresso", services[0].Name)
	assert.Equal(t, "03220", services[0].Code)
	assert.Equal(t, "Pac", services[1].Name)
}

func TestLoadTariff_MalformedFileIsAnError(t *testing.T) {
	cfg := &Config{TariffFile: writeTariff(t, `{not json`)}

	_, _, err := cfg.LoadTariff()
	assert.Error(t, err)
}

func TestLoadTariff_DoesNotMutateDefaults(t *testing.T) {
	cfg := &Config{TariffFile: writeTariff(t, `{
		"SERVICE_MAP": {"03220": "Renamed"}
	}`)}

	_, _, err := cfg.LoadTariff()
	require.NoError(t, err)

	cfg2 := &Config{TariffFile: filepath.Join(t.TempDir(), "missing.json")}
	_, services, err := cfg2.LoadTariff()
	require.NoError(t, err)
	assert.Equal(t, "Sedex", services[0].Name)
}
