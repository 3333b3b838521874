package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate_French(t *testing.T) {
	result := Translate("meter.degraded", "fr")
	assert.Equal(t, "Connexion instable, affichage estimé", result)
}

func TestTranslate_English(t *testing.T) {
	result := Translate("meter.degraded", "en")
	assert.Equal(t, "Connection unstable, showing estimate", result)
}

func TestTranslate_FallsBackToFrench_UnknownLang(t *testing.T) {
	result := Translate("meter.degraded", "ln")
	assert.Equal(t, "Connexion instable, affichage estimé", result)
}

func TestTranslate_EmptyLang_UsesDefault(t *testing.T) {
	result := Translate("meter.billing", "", "12:00")
	assert.Equal(t, "Facturation en cours : 12:00", result)
}

func TestTranslate_UnknownKey_ReturnsKey(t *testing.T) {
	result := Translate("does.not.exist", "en")
	assert.Equal(t, "does.not.exist", result)
}

func TestTranslate_WithArgs(t *testing.T) {
	result := Translate("meter.settled", "en", "19 000 FC")
	assert.Equal(t, "Ride completed. Total: 19 000 FC", result)
}

func TestFormatAmount_USD(t *testing.T) {
	assert.Equal(t, "$15.50", FormatAmount(15.5, "USD"))
}

func TestFormatAmount_CDF(t *testing.T) {
	assert.Equal(t, "19 000 FC", FormatAmount(19000, "CDF"))
	assert.Equal(t, "950 FC", FormatAmount(950, "CDF"))
	assert.Equal(t, "1 250 000 FC", FormatAmount(1250000, "CDF"))
}

func TestFormatAmount_UnknownCurrency(t *testing.T) {
	assert.Equal(t, "10.00 XYZ", FormatAmount(10.0, "XYZ"))
}

func TestDecimals(t *testing.T) {
	assert.Equal(t, 0, Decimals("CDF"))
	assert.Equal(t, 2, Decimals("USD"))
	assert.Equal(t, 2, Decimals("XYZ"))
}

func TestNormalizeLang(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"FR_cd", "fr"},
		{" EN ", "en"},
		{"ln", "fr"},
		{"", "fr"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLang(tt.in))
		})
	}
}

func TestTranslate_Locale(t *testing.T) {
	assert.Equal(t, "Billing: 0:05:00", Translate("meter.billing", "en-GB", "0:05:00"))
}
