package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corporate-insurance/insights/internal/jsonx"
)

func newTestClient(t *testing.T, url, key string) *Client {
	return NewClient(Config{BaseURL: url, APIKey: key, Model: "test-model", Timeout: 2 * time.Second}, zaptest.NewLogger(t))
}

func TestCompleteJSONSendsContract(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, jsonx.Unmarshal(body, &got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"intent\":\"general\"}"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", "sk-test")
	content, err := c.CompleteJSON(context.Background(), []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}})
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"general"}`, content)
	assert.Equal(t, "test-model", got.Model)
	assert.Len(t, got.Messages, 2)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestCompleteJSONErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"status", http.StatusTooManyRequests, `{"error":"slow down"}`, func(t *testing.T, err error) {
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusTooManyRequests, se.Code)
		}},
		{"no choices", http.StatusOK, `{"choices":[]}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrEmptyContent)
		}},
		{"malformed", http.StatusOK, `<html>`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrMalformedResponse)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, "sk-test").CompleteJSON(context.Background(), nil)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestCompleteJSONNotConfigured(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", "")
	assert.False(t, c.Configured())
	_, err := c.CompleteJSON(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
