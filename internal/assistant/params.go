package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// MaxWindowDays bounds every day count, explicit or read from text.
const MaxWindowDays = 3650

var (
	isoDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	lastDaysPattern = regexp.MustCompile(`son\s+(\d+)\s*gun`)
	windowPattern   = regexp.MustCompile(`(\d+)\s*gun`)
	pairPattern     = regexp.MustCompile(`(?i)^(.+?)\s+(ve|ile|vs\.?)\s+(.+)$`)
)

// ResolveDateRange pulls a date range out of the prompt. Two ISO dates give
// [first 00:00, second 23:59:59.999] in textual order, never swapped. "son N
// gun" gives [now-N days, now] with N capped at MaxWindowDays. Otherwise the
// range is the last fallbackDays.
func ResolveDateRange(prompt string, fallbackDays int, now time.Time) (from, to time.Time) {
	var dates []time.Time
	for _, m := range isoDatePattern.FindAllString(prompt, -1) {
		if t, err := time.Parse(time.DateOnly, m); err == nil {
			dates = append(dates, t)
		}
	}
	if len(dates) >= 2 {
		return startOfDay(dates[0]), endOfDay(dates[1])
	}

	if m := lastDaysPattern.FindStringSubmatch(Normalize(prompt)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return now.Add(-time.Duration(clampDays(n)) * day), now
		}
	}
	return now.Add(-time.Duration(fallbackDays) * day), now
}

// ResolveWindowDays returns the first integer immediately preceding "gun",
// capped at MaxWindowDays, else fallbackDays.
func ResolveWindowDays(prompt string, fallbackDays int) int {
	if m := windowPattern.FindStringSubmatch(Normalize(prompt)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return clampDays(n)
		}
	}
	return fallbackDays
}

func clampDays(n int) int {
	return min(n, MaxWindowDays)
}

// ExtractName removes every keyword from the prompt and returns what is left,
// keeping the original spelling of the remaining words. Keywords are matched
// case- and diacritic-insensitively against whole words; keywords of four or
// more letters also match when followed by a Turkish inflection, so
// "sirketinin" drops with "sirket" while "Riskon" survives "risk".
func ExtractName(prompt string, keywords []string) string {
	var kept []string
	for _, tok := range nameTokens(prompt) {
		if !isKeyword(Normalize(tok), keywords) {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// ExtractCompanyPair strips comparison filler words and splits the rest on
// "ve", "ile" or "vs". ok is false when the prompt does not name two companies.
func ExtractCompanyPair(prompt string) (a, b string, ok bool) {
	rest := ExtractName(prompt, compareKeywords)
	m := pairPattern.FindStringSubmatch(rest)
	if m == nil {
		return "", "", false
	}
	a, b = strings.TrimSpace(m[1]), strings.TrimSpace(m[3])
	if a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// nameTokens splits on whitespace, trims punctuation and cuts Turkish case
// suffixes written after an apostrophe ("Acme'nin" becomes "Acme").
func nameTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if i := strings.IndexAny(tok, "'’"); i > 0 {
			tok = tok[:i]
		}
		tok = strings.Trim(tok, `?!.,:;"()`)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Case, plural and possessive endings in folded form.
var inflections = map[string]bool{
	"i": true, "u": true, "e": true, "a": true, "in": true, "un": true,
	"si": true, "su": true, "ni": true, "nu": true, "yi": true, "yu": true,
	"nin": true, "nun": true, "sin": true, "inin": true, "sinin": true,
	"ini": true, "sini": true, "ine": true, "sine": true, "ye": true, "ya": true,
	"de": true, "da": true, "te": true, "ta": true, "den": true, "dan": true,
	"deki": true, "daki": true, "nde": true, "nda": true, "inde": true, "inda": true,
	"indeki": true, "indaki": true, "le": true, "la": true, "li": true, "lu": true,
	"ler": true, "lar": true, "leri": true, "lari": true, "lerin": true, "larin": true,
	"lerini": true, "larini": true, "lerinin": true, "larinin": true,
	"lerde": true, "larda": true, "ma": true, "me": true,
}

func isKeyword(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if folded == kw {
			return true
		}
		if len(kw) >= 4 && strings.HasPrefix(folded, kw) && inflections[folded[len(kw):]] {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(day - time.Millisecond)
}

// parseFilterDate accepts YYYY-MM-DD or RFC 3339. Bare dates used as an upper
// bound extend to the end of that day.
func parseFilterDate(s string, upper bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if upper {
			return endOfDay(t), true
		}
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Filler vocabulary stripped from entity name slots. Entries are in
// normalized form.
var fillerKeywords = []string{
	"bilgi", "hakkinda", "detay", "goster", "getir", "listele", "nedir", "kim", "olan",
	"analiz", "rapor", "bazinda", "icin", "hangi", "lutfen", "ver", "bul",
	"risk", "riskli", "en", "cok", "ile", "ve", "the", "show", "info", "about", "details", "for", "of",
}

var (
	companyKeywords    = withFiller("sirket", "firma", "company", "companies", "musteri")
	employeeKeywords   = withFiller("calisan", "personel", "employee", "employees", "isci")
	departmentKeywords = withFiller("departman", "bolum", "department", "birim")
	compareKeywords    = []string{
		"karsilastir", "kiyasla", "compare", "sirket", "firma", "company", "companies",
		"arasinda", "farki", "fark", "goster", "lutfen",
	}
)

func withFiller(words ...string) []string {
	return append(words, fillerKeywords...)
}
