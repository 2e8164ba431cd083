package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corporate-insurance/insights/internal/assistant"
	"github.com/corporate-insurance/insights/internal/auth"
	"github.com/corporate-insurance/insights/internal/jsonx"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func isolatedEnv(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "production")
	t.Setenv("ASSISTANT_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "insights.db"))
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("JWT_SECRET", "cli-test-secret-with-32-characters!!")
	return dir
}

func TestClassifyCommand(t *testing.T) {
	isolatedEnv(t)

	out, err := execute(t, "classify", "--no-llm", "son", "30", "gun", "odeme", "gecikmeleri")
	require.NoError(t, err)

	var got classifyOutput
	require.NoError(t, jsonx.UnmarshalFromString(out, &got))
	assert.Equal(t, assistant.IntentOverduePayments, got.Plan.Intent)
	assert.Equal(t, assistant.SourceRules, got.Source)
}

func TestMigrateThenAsk(t *testing.T) {
	isolatedEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	// migrating twice is a no-op
	_, err = execute(t, "migrate")
	require.NoError(t, err)

	out, err = execute(t, "ask", "--tenant", "tenant-a", "genel", "istatistik")
	require.NoError(t, err)
	var resp assistant.Response
	require.NoError(t, jsonx.UnmarshalFromString(out, &resp))
	assert.Equal(t, assistant.IntentGlobalStats, resp.Intent)
	assert.True(t, strings.HasPrefix(resp.Summary, "0 sirket"), resp.Summary)

	out, err = execute(t, "ask", "--tenant", "tenant-a", "--window-days", "14", "yaklasan", "policeler")
	require.NoError(t, err)
	assert.Contains(t, out, "14 gunde")
}

func TestAskRequiresTenantFlag(t *testing.T) {
	isolatedEnv(t)
	_, err := execute(t, "ask", "merhaba")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	isolatedEnv(t)

	out, err := execute(t, "token", "--tenant", "tenant-a")
	require.NoError(t, err)

	p, err := auth.NewJWTMiddleware("cli-test-secret-with-32-characters!!", zaptest.NewLogger(t)).Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{UserID: "local-admin", Role: auth.RoleAdmin, TenantID: "tenant-a"}, p)
}
