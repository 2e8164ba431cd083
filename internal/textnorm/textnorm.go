// Package textnorm folds Turkish text for keyword and name matching.
package textnorm

import (
	"strings"
	"unicode"
)

var diacriticFolder = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"â", "a", "î", "i", "û", "u",
)

// Fold lower-cases text with Turkish casing rules, folds diacritics to
// ASCII and collapses whitespace. "Çalışan GÜN" becomes "calisan gun".
func Fold(s string) string {
	s = strings.ToLowerSpecial(unicode.TurkishCase, s)
	// combining dot left behind by some decomposed inputs
	s = strings.ReplaceAll(s, "\u0307", "")
	return strings.Join(strings.Fields(diacriticFolder.Replace(s)), " ")
}

// Contains reports whether substr is within s once both are folded.
// An empty substr matches everything.
func Contains(s, substr string) bool {
	substr = Fold(substr)
	return substr == "" || strings.Contains(Fold(s), substr)
}
