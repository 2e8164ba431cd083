package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "calisan gun odeme sirket", Fold("  ÇALIŞAN   Gün\tÖdeme ŞİRKET "))
	assert.Equal(t, "risk igdir", Fold("RİSK IĞDIR"))
	assert.Equal(t, "", Fold("   "))
}

func TestContains(t *testing.T) {
	tests := []struct {
		s, substr string
		want      bool
	}{
		{"Çelik Holding", "çelik holding", true},
		{"Çelik Holding", "celik", true},
		{"ŞAHİN Sigorta", "Şahin sigorta", true},
		{"Ömer", "omer", true},
		{"100% Sigorta", "100%", true},
		{"1000 Sigorta", "100%", false},
		{"Acme", "", true},
		{"Acme", "globex", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Contains(tt.s, tt.substr), "%q in %q", tt.substr, tt.s)
	}
}
