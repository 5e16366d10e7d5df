package editor

import (
	"context"
	"log/slog"
	"time"

	"quiltcore/pkg/design"
)

// Logger captures the minimal structured logging surface used by the service
// and editors. Implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type slogLogger struct {
	inner *slog.Logger
}

// NewSlogLogger adapts a slog.Logger to the Logger interface. A nil logger
// adapts the slog default.
func NewSlogLogger(inner *slog.Logger) Logger {
	if inner == nil {
		inner = slog.Default()
	}
	return slogLogger{inner: inner}
}

func (l slogLogger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l slogLogger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l slogLogger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l slogLogger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// AuditStatus describes the outcome recorded for an audited operation.
type AuditStatus string

const (
	// AuditStatusSuccess marks operations that committed.
	AuditStatusSuccess AuditStatus = "success"
	// AuditStatusError marks operations that failed or were rolled back.
	AuditStatusError AuditStatus = "error"
)

// AuditEntry is one audited service operation.
type AuditEntry struct {
	Operation string            `json:"operation"`
	Entity    design.EntityType `json:"entity"`
	Action    design.Action     `json:"action"`
	EntityID  string            `json:"entity_id,omitempty"`
	Status    AuditStatus       `json:"status"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
}

// AuditRecorder receives audit entries for operations in the audit catalog.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// MetricsRecorder receives the outcome and duration of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan ends a traced operation, carrying its terminal error if any.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type auditDescriptor struct {
	entity design.EntityType
	action design.Action
}

// auditCatalog enumerates the operations that emit audit entries. Operations
// outside the catalog are silently skipped so ad-hoc instrumentation cannot
// invent entries with missing metadata.
var auditCatalog = map[string]auditDescriptor{
	"create_block_design":   {entity: design.EntityBlockDesign, action: design.ActionCreate},
	"update_block_design":   {entity: design.EntityBlockDesign, action: design.ActionUpdate},
	"delete_block_design":   {entity: design.EntityBlockDesign, action: design.ActionDelete},
	"create_pattern_design": {entity: design.EntityPatternDesign, action: design.ActionCreate},
	"update_pattern_design": {entity: design.EntityPatternDesign, action: design.ActionUpdate},
	"delete_pattern_design": {entity: design.EntityPatternDesign, action: design.ActionDelete},
}
