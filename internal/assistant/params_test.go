package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "calisan gun odeme sirket", Normalize("  ÇALIŞAN   Gün\tÖdeme ŞİRKET "))
}

func TestResolveDateRangeTwoDatesKeepsTextualOrder(t *testing.T) {
	from, to := ResolveDateRange("2026-03-01 ile 2026-03-31 arasi odemeler", 30, now)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 999_000_000, time.UTC), to)

	from, to = ResolveDateRange("2026-05-10 - 2026-01-02", 30, now)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 2, 23, 59, 59, 999_000_000, time.UTC), to)
	assert.True(t, from.After(to))
}

func TestResolveDateRangeLastDays(t *testing.T) {
	from, to := ResolveDateRange("son 30 gun odeme gecikmeleri", 90, now)
	assert.Equal(t, now, to)
	assert.Equal(t, now.Add(-30*24*time.Hour), from)

	from, to = ResolveDateRange("Son 7 gün", 90, now)
	assert.Equal(t, now.Add(-7*24*time.Hour), from)
	assert.Equal(t, now, to)
}

func TestResolveDateRangeFallback(t *testing.T) {
	from, to := ResolveDateRange("geciken odemeler", 45, now)
	assert.Equal(t, now, to)
	assert.Equal(t, now.Add(-45*24*time.Hour), from)

	// a single date is not a range
	from, _ = ResolveDateRange("2026-01-01 sonrasi", 10, now)
	assert.Equal(t, now.Add(-10*24*time.Hour), from)
}

func TestResolveWindowDays(t *testing.T) {
	assert.Equal(t, 45, ResolveWindowDays("yaklasan policeler 45 gun", 30))
	assert.Equal(t, 14, ResolveWindowDays("önümüzdeki 14gün", 30))
	assert.Equal(t, 30, ResolveWindowDays("yaklasan policeler", 30))
	assert.Equal(t, 5, ResolveWindowDays("5 gun 10 gun", 30))
	assert.Equal(t, MaxWindowDays, ResolveWindowDays("tahsilat tahmini 100000 gun", 30))
	assert.Equal(t, MaxWindowDays, ResolveWindowDays("99999999999999999 gun", 30))
}

func TestExtractName(t *testing.T) {
	assert.Equal(t, "Acme", ExtractName("Acme şirketi hakkında bilgi", companyKeywords))
	assert.Equal(t, "Acme Sigorta", ExtractName("Acme Sigorta'nin detaylari?", companyKeywords))
	assert.Equal(t, "Ayse Yilmaz", ExtractName("Ayse Yilmaz calisan bilgisi", employeeKeywords))
	assert.Equal(t, "", ExtractName("calisan bilgisi goster", employeeKeywords))
	assert.Equal(t, "Finans", ExtractName("Finans departmani risk analizi", departmentKeywords))
	assert.Equal(t, "Çelik Holding", ExtractName("Çelik Holding şirketinin bilgileri", companyKeywords))
}

func TestExtractNameKeepsNamesStartingWithKeywords(t *testing.T) {
	assert.Equal(t, "Riskon", ExtractName("Riskon sirketi hakkinda bilgi", companyKeywords))
	assert.Equal(t, "Bilgisayar Dunyasi", ExtractName("Bilgisayar Dunyasi firmasi detay", companyKeywords))
	assert.Equal(t, "Detaycilar", ExtractName("Detaycilar sirketi", companyKeywords))
	assert.Equal(t, "Finans", ExtractName("Finans departmanindaki riskler", departmentKeywords))
}

func TestExtractCompanyPair(t *testing.T) {
	a, b, ok := ExtractCompanyPair("Acme ve Globex sirketlerini karsilastir")
	assert.True(t, ok)
	assert.Equal(t, "Acme", a)
	assert.Equal(t, "Globex", b)

	a, b, ok = ExtractCompanyPair("Kıyasla: Acme Holding ile Globex Sigorta")
	assert.True(t, ok)
	assert.Equal(t, "Acme Holding", a)
	assert.Equal(t, "Globex Sigorta", b)

	a, b, ok = ExtractCompanyPair("compare Initech vs. Hooli")
	assert.True(t, ok)
	assert.Equal(t, "Initech", a)
	assert.Equal(t, "Hooli", b)

	_, _, ok = ExtractCompanyPair("Acme sirketini karsilastir")
	assert.False(t, ok)
}
