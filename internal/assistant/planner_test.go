package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corporate-insurance/insights/internal/llm"
)

type fakeCompleter struct {
	key      bool
	content  string
	err      error
	calls    int
	messages []llm.Message
	block    bool
}

func (f *fakeCompleter) Configured() bool { return f.key }

func (f *fakeCompleter) CompleteJSON(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	f.messages = messages
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.content, f.err
}

func TestPlannerParsesPlan(t *testing.T) {
	fc := &fakeCompleter{key: true, content: "```json\n{\"intent\":\"company_compare\",\"companyNameA\":\"Acme\",\"companyNameB\":\"Globex\",\"windowDays\":null}\n```"}
	p := NewPlanner(fc, time.Second, zaptest.NewLogger(t))

	plan, err := p.Plan(context.Background(), "Acme ve Globex karsilastir", now)
	require.NoError(t, err)
	assert.Equal(t, IntentCompanyCompare, plan.Intent)
	assert.Equal(t, "Acme", slot(plan.CompanyNameA))
	assert.Equal(t, "Globex", slot(plan.CompanyNameB))
	assert.Nil(t, plan.WindowDays)

	require.Len(t, fc.messages, 2)
	assert.Equal(t, "system", fc.messages[0].Role)
	assert.Contains(t, fc.messages[0].Content, "top_risky_employees")
	assert.Contains(t, fc.messages[0].Content, "2026-06-15")
	assert.Equal(t, "Acme ve Globex karsilastir", fc.messages[1].Content)
}

type redactFunc func(string) string

func (f redactFunc) Mask(text string) string { return f(text) }

func TestPlannerMasksPromptSentToProvider(t *testing.T) {
	fc := &fakeCompleter{key: true, content: `{"intent":"employee_info","employeeName":"Ayse"}`}
	mask := redactFunc(func(s string) string { return strings.ReplaceAll(s, "ayse@acme.com", "ay*********om") })
	p := NewPlanner(fc, time.Second, zaptest.NewLogger(t), WithRedactor(mask))

	plan, err := p.Plan(context.Background(), "ayse@acme.com adresli Ayse calisan", now)
	require.NoError(t, err)
	assert.Equal(t, IntentEmployeeInfo, plan.Intent)
	require.Len(t, fc.messages, 2)
	assert.Equal(t, "ay*********om adresli Ayse calisan", fc.messages[1].Content)
}

func TestPlannerErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		fc   *fakeCompleter
		want PlanErrorKind
	}{
		{"disabled", &fakeCompleter{}, PlanErrDisabled},
		{"transport", &fakeCompleter{key: true, err: errors.New("dial tcp: connection refused")}, PlanErrTransport},
		{"status", &fakeCompleter{key: true, err: &llm.StatusError{Code: 500}}, PlanErrStatus},
		{"empty", &fakeCompleter{key: true, err: llm.ErrEmptyContent}, PlanErrEmpty},
		{"malformed body", &fakeCompleter{key: true, err: llm.ErrMalformedResponse}, PlanErrDecode},
		{"bad json", &fakeCompleter{key: true, content: "not json at all"}, PlanErrDecode},
		{"unknown intent", &fakeCompleter{key: true, content: `{"intent":"weather"}`}, PlanErrUnknownIntent},
		{"timeout", &fakeCompleter{key: true, block: true}, PlanErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlanner(tc.fc, 20*time.Millisecond, zaptest.NewLogger(t))
			_, err := p.Plan(context.Background(), "soru", now)
			var pe *PlanError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tc.want, pe.Kind)
		})
	}
}

func TestResolverUsesLLMWhenAvailable(t *testing.T) {
	fc := &fakeCompleter{key: true, content: `{"intent":"risky_companies"}`}
	r := NewResolver(NewPlanner(fc, time.Second, zaptest.NewLogger(t)), zaptest.NewLogger(t))

	plan, source := r.Resolve(context.Background(), "hangi musteriler sorunlu", nil, now)
	assert.Equal(t, IntentRiskyCompanies, plan.Intent)
	assert.Equal(t, SourceLLM, source)
}

func TestResolverFallsBackToRules(t *testing.T) {
	fc := &fakeCompleter{key: true, err: errors.New("boom")}
	r := NewResolver(NewPlanner(fc, time.Second, zaptest.NewLogger(t)), zaptest.NewLogger(t))

	plan, source := r.Resolve(context.Background(), "son 30 gun odeme gecikmeleri", nil, now)
	assert.Equal(t, IntentOverduePayments, plan.Intent)
	assert.Equal(t, SourceRules, source)
	assert.Equal(t, 1, fc.calls)
}

func TestResolverKeepsSlotsOfUnknownIntent(t *testing.T) {
	fc := &fakeCompleter{key: true, content: `{"intent":"compare_things","companyNameA":"Acme","companyNameB":"Globex"}`}
	r := NewResolver(NewPlanner(fc, time.Second, zaptest.NewLogger(t)), zaptest.NewLogger(t))

	plan, source := r.Resolve(context.Background(), "Acme ile Globex kiyasla", nil, now)
	assert.Equal(t, IntentCompanyCompare, plan.Intent)
	assert.Equal(t, SourceRules, source)
	assert.Equal(t, "Acme", slot(plan.CompanyNameA))
}

func TestResolverRespectsOptOut(t *testing.T) {
	fc := &fakeCompleter{key: true, content: `{"intent":"global_stats"}`}
	r := NewResolver(NewPlanner(fc, time.Second, zaptest.NewLogger(t)), zaptest.NewLogger(t))

	off := false
	plan, source := r.Resolve(context.Background(), "riskli sirketler", &off, now)
	assert.Equal(t, IntentRiskyCompanies, plan.Intent)
	assert.Equal(t, SourceRules, source)
	assert.Zero(t, fc.calls)

	// no key configured: opting in still runs rules only
	r = NewResolver(NewPlanner(&fakeCompleter{}, time.Second, zaptest.NewLogger(t)), zaptest.NewLogger(t))
	on := true
	_, source = r.Resolve(context.Background(), "riskli sirketler", &on, now)
	assert.Equal(t, SourceRules, source)
}

func TestSystemPromptListsEveryIntent(t *testing.T) {
	sp := systemPrompt(now)
	for _, in := range Intents {
		assert.True(t, strings.Contains(sp, string(in)), string(in))
	}
}
