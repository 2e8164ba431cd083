package server

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/corporate-insurance/insights/internal/jsonx"
)

var (
	sensitivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`),
		regexp.MustCompile(`(?i)secret\s*[:=]\s*\S+`),
		regexp.MustCompile(`(?i)api[_-]?key\s*[:=]\s*\S+`),
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		// user:password@ in DSNs
		regexp.MustCompile(`[^\s/:@]+:[^\s/@]+@`),
	}
	stackTracePatterns = []*regexp.Regexp{
		regexp.MustCompile(`goroutine \d+`),
		regexp.MustCompile(`\S+\.go:\d+`),
	}
	spaces = regexp.MustCompile(`\s+`)
)

// SanitizeError strips credentials and stack fragments from an error so it
// can be logged.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, "[REDACTED]")
	}
	for _, p := range stackTracePatterns {
		s = p.ReplaceAllString(s, "")
	}
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// SafeErrorWithID is the client-facing message for an internal failure. The
// reference id ties it to the logged detail.
func SafeErrorWithID(operation, errorID string) string {
	return fmt.Sprintf("%s failed (ref: %s)", operation, errorID)
}

type errorResponse struct {
	Error string `json:"error"`
	Ref   string `json:"ref,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonx.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, ref string) {
	writeJSON(w, status, errorResponse{Error: msg, Ref: ref})
}
