// Package audit publishes one event per answered assistant question to NATS
// so that the platform audit trail can record admin read access.
package audit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corporate-insurance/insights/internal/jsonx"
)

// DefaultSubject is the subject prefix events are published under.
const DefaultSubject = "audit.assistant"

// Publisher is the part of *nats.Conn the logger needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Status of an audited request.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// QueryEvent records one assistant question. The prompt is never included.
type QueryEvent struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	Intent     string    `json:"intent"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	DurationMs int64     `json:"duration_ms"`
}

// Config configures the logger.
type Config struct {
	Subject    string
	BufferSize int
}

// Logger publishes events from a buffered queue. A Logger without a
// publisher discards everything. Events logged after Close are published
// synchronously.
type Logger struct {
	pub     Publisher
	subject string
	logger  *zap.Logger
	events  chan QueryEvent
	wg      sync.WaitGroup

	mu     sync.RWMutex // guards closed and sends on events
	closed bool
}

// NewLogger starts the publishing goroutine. pub may be nil.
func NewLogger(pub Publisher, cfg Config, logger *zap.Logger) *Logger {
	l := &Logger{
		pub:     pub,
		subject: cfg.Subject,
		logger:  logger.Named("audit"),
	}
	if l.subject == "" {
		l.subject = DefaultSubject
	}
	if pub == nil {
		return l
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = 1000
	}
	l.events = make(chan QueryEvent, size)
	l.wg.Add(1)
	go l.run()
	return l
}

// Enabled reports whether events are published.
func (l *Logger) Enabled() bool {
	return l != nil && l.pub != nil
}

// Log queues an event, filling in the id and timestamp. When the buffer is
// full the event is published synchronously.
func (l *Logger) Log(_ context.Context, ev QueryEvent) {
	if !l.Enabled() {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		l.logger.Warn("Audit logger closed, publishing synchronously", zap.String("event_id", ev.ID))
		l.publish(ev)
		return
	}
	select {
	case l.events <- ev:
		l.mu.RUnlock()
	default:
		l.mu.RUnlock()
		l.logger.Warn("Audit buffer full, publishing synchronously")
		l.publish(ev)
	}
}

// Close flushes queued events and stops the goroutine. It is safe to call
// more than once and concurrently with Log.
func (l *Logger) Close() {
	if !l.Enabled() {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Logger) run() {
	defer l.wg.Done()
	for ev := range l.events {
		l.publish(ev)
	}
}

func (l *Logger) publish(ev QueryEvent) {
	data, err := jsonx.Marshal(ev)
	if err != nil {
		l.logger.Error("Failed to encode audit event", zap.Error(err), zap.String("event_id", ev.ID))
		return
	}
	if err := l.pub.Publish(Subject(l.subject, ev.TenantID), data); err != nil {
		l.logger.Error("Failed to publish audit event", zap.Error(err), zap.String("event_id", ev.ID))
	}
}

// Subject returns prefix.<tenant>, with subject separators in the tenant id
// replaced.
func Subject(prefix, tenantID string) string {
	tenant := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(tenantID)
	if tenant == "" {
		tenant = "unknown"
	}
	return prefix + "." + tenant
}
