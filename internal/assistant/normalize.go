package assistant

import "github.com/corporate-insurance/insights/internal/textnorm"

// Normalize prepares a prompt for keyword matching with the same folding the
// store applies to entity names.
func Normalize(s string) string {
	return textnorm.Fold(s)
}
