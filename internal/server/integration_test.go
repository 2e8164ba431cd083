package server

import (
	"bytes"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corporate-insurance/insights/internal/assistant"
	"github.com/corporate-insurance/insights/internal/auth"
	"github.com/corporate-insurance/insights/internal/jsonx"
)

// TestAssistantIntegration calls a running insights service.
// Set TEST_INTEGRATION=1 to run it; INSIGHTS_URL, JWT_SECRET and
// INSIGHTS_TENANT point it at the deployment under test.
func TestAssistantIntegration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Skipping integration test; set TEST_INTEGRATION=1 to run")
	}

	baseURL := envOr("INSIGHTS_URL", "http://localhost:8080")
	tenant := envOr("INSIGHTS_TENANT", "tenant-demo")
	tok, err := auth.GenerateToken(envOr("JWT_SECRET", auth.DevSecret),
		auth.Principal{UserID: "integration", Role: auth.RoleAdmin, TenantID: tenant}, time.Minute)
	require.NoError(t, err)

	client := &http.Client{Timeout: 15 * time.Second}

	t.Run("health", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	for _, prompt := range []string{"genel istatistik", "son 30 gun odeme gecikmeleri", ""} {
		t.Run("ask "+prompt, func(t *testing.T) {
			body, err := jsonx.Marshal(map[string]string{"prompt": prompt})
			require.NoError(t, err)
			req, err := http.NewRequest(http.MethodPost, baseURL+"/ai/admin", bytes.NewReader(body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tok)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out assistant.Response
			require.NoError(t, jsonx.NewDecoder(resp.Body).Decode(&out))
			assert.NotEmpty(t, out.Summary)
			assert.NotNil(t, out.Tables)
			assert.NotNil(t, out.Charts)
		})
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
