package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPromptFilterValidate(t *testing.T) {
	f := NewPromptFilter(zaptest.NewLogger(t))

	assert.NoError(t, f.Validate("son 30 gun odeme gecikmeleri"))
	assert.NoError(t, f.Validate(strings.Repeat("a", MaxPromptLength)))

	tests := []struct {
		name   string
		prompt string
	}{
		{"too long", strings.Repeat("a", MaxPromptLength+1)},
		{"null byte", "riskli\x00sirketler"},
		{"invalid utf8", "riskli \xff sirketler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Validate(tt.prompt)
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
		})
	}
}

func TestPromptFilterMask(t *testing.T) {
	f := NewPromptFilter(zaptest.NewLogger(t))

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"email", "ahmet@acme.com calisan", "ah**********om calisan"},
		{"national id", "12345678901 numarali calisan", "12*******01 numarali calisan"},
		{"phone", "0532 123 45 67 arayan", "05**********67 arayan"},
		{"secret", "api_key=abc123 ile", "ap**********23 ile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Mask(tt.prompt))
		})
	}
}

func TestPromptFilterKeepsReportVocabulary(t *testing.T) {
	f := NewPromptFilter(zaptest.NewLogger(t))

	for _, prompt := range []string{
		"son 30 gun odeme gecikmeleri",
		"2025-01-01 ile 2025-03-31 arasi tahsilat",
		"Acme vs Globex karsilastir",
		"onumuzdeki 90 gunde yenilenecek policeler",
	} {
		assert.Equal(t, prompt, f.Mask(prompt))
	}
}

func TestNilPromptFilter(t *testing.T) {
	var f *PromptFilter
	assert.NoError(t, f.Validate("\x00"))
	assert.Equal(t, "ahmet@acme.com", f.Mask("ahmet@acme.com"))
}
