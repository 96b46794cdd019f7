// Package decisionlog writes the structured events the simulation emits:
// every line carries an event name plus the tenant and request id found in
// the request context.
package decisionlog

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CSroseX/bisney/internal/tenant"
)

// Event names a kind of log line so dashboards can filter on it.
type Event string

const (
	EventStartup         Event = "app_startup"
	EventShutdown        Event = "app_shutdown"
	EventCheckoutSuccess Event = "checkout_success"
	EventPaymentFailure  Event = "payment_failure"
	EventCacheHit        Event = "cache_hit"
	EventCacheMiss       Event = "cache_miss"
	EventCounterError    Event = "counter_error"
	EventInvalidMode     Event = "invalid_mode"
)

// ModeToggle is the event for switching the named mode.
func ModeToggle(mode string) Event { return Event(mode + "_mode_toggle") }

// ModeRecovered is the event for a mode switched off by its expiry.
func ModeRecovered(mode string) Event { return Event(mode + "_mode_recovered") }

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type Logger struct {
	base *zap.Logger
}

func New(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{base: base}
}

// Zap exposes the underlying logger for components that log outside a request.
func (l *Logger) Zap() *zap.Logger { return l.base }

func (l *Logger) Log(ctx context.Context, level zapcore.Level, event Event, msg string, fields ...zap.Field) {
	ce := l.base.Check(level, msg)
	if ce == nil {
		return
	}
	all := make([]zap.Field, 0, len(fields)+3)
	all = append(all, zap.String("event", string(event)))
	if t, ok := tenant.FromContext(ctx); ok {
		all = append(all, zap.String("tenant_id", t.ID))
	}
	if id := RequestID(ctx); id != "" {
		all = append(all, zap.String("request_id", id))
	}
	ce.Write(append(all, fields...)...)
}

func (l *Logger) Info(ctx context.Context, event Event, msg string, fields ...zap.Field) {
	l.Log(ctx, zapcore.InfoLevel, event, msg, fields...)
}

func (l *Logger) Warn(ctx context.Context, event Event, msg string, fields ...zap.Field) {
	l.Log(ctx, zapcore.WarnLevel, event, msg, fields...)
}

func (l *Logger) Error(ctx context.Context, event Event, msg string, fields ...zap.Field) {
	l.Log(ctx, zapcore.ErrorLevel, event, msg, fields...)
}
