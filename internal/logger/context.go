package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Syscall   string    // Syscall name (stat, fstat, newfstatat, etc.)
	PID       uint32    // Calling task PID
	Mount     string    // Mount point the operation resolved into (/data, etc.)
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for the given task
func NewLogContext(pid uint32) *LogContext {
	return &LogContext{
		PID:       pid,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		Syscall:   lc.Syscall,
		PID:       lc.PID,
		Mount:     lc.Mount,
		StartTime: lc.StartTime,
	}
}

// WithSyscall returns a copy with the syscall name set
func (lc *LogContext) WithSyscall(name string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Syscall = name
	}
	return clone
}

// WithMount returns a copy with the mount point set
func (lc *LogContext) WithMount(mount string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Mount = mount
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
