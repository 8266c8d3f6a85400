package carrier_test

import (
	"testing"

	"github.com/freteaz/fretebot/pkg/carrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTariff_Apply_Percent(t *testing.T) {
	tariff := carrier.Tariff{
		Percents: map[string]float64{"Sedex": 10.5},
	}

	assert.Equal(t, 55.25, tariff.Apply("Sedex", 50.0))
}

func TestTariff_Apply_Multiplier(t *testing.T) {
	tariff := carrier.Tariff{
		Multipliers: map[string]float64{"Pac": 1.2},
	}

	assert.Equal(t, 24.0, tariff.Apply("Pac", 20.0))
}

func TestTariff_Apply_MultiplierWinsOverPercent(t *testing.T) {
	tariff := carrier.Tariff{
		Multipliers: map[string]float64{"Sedex": 2},
		Percents:    map[string]float64{"Sedex": 10},
	}

	assert.Equal(t, 100.0, tariff.Apply("Sedex", 50.0))
}

func TestTariff_Apply_UnknownServicePassesThrough(t *testing.T) {
	tariff := carrier.Tariff{
		Percents: map[string]float64{"Sedex": 10.5},
	}

	assert.Equal(t, 19.9, tariff.Apply("Mini Envios", 19.9))
}

func TestTariff_Apply_RoundsToTwoDecimals(t *testing.T) {
	tariff := carrier.Tariff{
		Percents: map[string]float64{"Sedex": 33.333},
	}

	// 10 * 1.33333 = 13.3333 -> 13.33
	assert.Equal(t, 13.33, tariff.Apply("Sedex", 10.0))
}

func TestParseValor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"brazilian comma", "50,00", 50.0, true},
		{"thousands separator", "1.234,56", 1234.56, true},
		{"currency prefix", "R$ 19,90", 19.9, true},
		{"dot decimal", "27.5", 27.5, true},
		{"integer", "42", 42.0, true},
		{"empty", "", 0, false},
		{"garbage", "indisponível", 0, false},
		{"whitespace only", "   ", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := carrier.ParseValor(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestFormatValor(t *testing.T) {
	assert.Equal(t, "55,25", carrier.FormatValor(55.25))
	assert.Equal(t, "0,00", carrier.FormatValor(0))
	assert.Equal(t, "1234,50", carrier.FormatValor(1234.5))
}
