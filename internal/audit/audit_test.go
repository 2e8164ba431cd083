package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corporate-insurance/insights/internal/jsonx"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, message{subject, data})
	return f.err
}

func TestLoggerPublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	l := NewLogger(pub, Config{BufferSize: 1}, zaptest.NewLogger(t))

	for i := 0; i < 5; i++ {
		l.Log(context.Background(), QueryEvent{TenantID: "tenant-a", UserID: "u1", Intent: "global_stats", Source: "rules", Status: StatusOK})
	}
	l.Close()
	l.Close()

	require.Len(t, pub.msgs, 5)
	assert.Equal(t, "audit.assistant.tenant-a", pub.msgs[0].subject)

	var ev QueryEvent
	require.NoError(t, jsonx.Unmarshal(pub.msgs[0].data, &ev))
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, "global_stats", ev.Intent)
	assert.Equal(t, "u1", ev.UserID)
}

func TestLoggerSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	l := NewLogger(pub, Config{Subject: "audit.custom"}, zaptest.NewLogger(t))
	l.Log(context.Background(), QueryEvent{TenantID: "t"})
	l.Close()
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "audit.custom.t", pub.msgs[0].subject)
}

func TestLogAfterClosePublishesSynchronously(t *testing.T) {
	pub := &fakePublisher{}
	l := NewLogger(pub, Config{}, zaptest.NewLogger(t))
	l.Close()

	require.NotPanics(t, func() {
		l.Log(context.Background(), QueryEvent{TenantID: "late"})
	})
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "audit.assistant.late", pub.msgs[0].subject)
}

func TestConcurrentLogAndClose(t *testing.T) {
	pub := &fakePublisher{}
	l := NewLogger(pub, Config{BufferSize: 4}, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Log(context.Background(), QueryEvent{TenantID: "t"})
			}
		}()
	}
	l.Close()
	wg.Wait()
	l.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.msgs, 200)
}

func TestNilPublisherDisables(t *testing.T) {
	l := NewLogger(nil, Config{}, zaptest.NewLogger(t))
	assert.False(t, l.Enabled())
	l.Log(context.Background(), QueryEvent{TenantID: "t"})
	l.Close()

	var none *Logger
	none.Log(context.Background(), QueryEvent{})
	none.Close()
}

func TestSubjectSanitizesTenant(t *testing.T) {
	assert.Equal(t, "audit.assistant.acme_corp", Subject(DefaultSubject, "acme.corp"))
	assert.Equal(t, "audit.assistant.unknown", Subject(DefaultSubject, ""))
}
