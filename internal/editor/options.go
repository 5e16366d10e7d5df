package editor

import "github.com/google/uuid"

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for audit timestamps and
// durations.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder wires an audit sink for catalogued operations.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder wires a metrics sink for operation outcomes.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer wires a tracer around service operations.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithIDGenerator overrides the identifier generator handed to editors opened
// through the service, so tests can supply deterministic ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.idGen = fn
		}
	}
}

func defaultIDGenerator() string {
	return uuid.NewString()
}

type editorConfig struct {
	logger       Logger
	idGen        func() string
	historyLimit int
}

func newEditorConfig(opts []EditorOption) editorConfig {
	cfg := editorConfig{
		logger: noopLogger{},
		idGen:  defaultIDGenerator,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// EditorOption configures a block or pattern editor.
type EditorOption func(*editorConfig)

// WithEditorLogger overrides the editor logger.
func WithEditorLogger(logger Logger) EditorOption {
	return func(cfg *editorConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithEditorIDGenerator overrides the generator used for unit, instance,
// role, and border ids.
func WithEditorIDGenerator(fn func() string) EditorOption {
	return func(cfg *editorConfig) {
		if fn != nil {
			cfg.idGen = fn
		}
	}
}

// WithEditorHistoryLimit bounds the undo stack.
func WithEditorHistoryLimit(limit int) EditorOption {
	return func(cfg *editorConfig) {
		if limit > 0 {
			cfg.historyLimit = limit
		}
	}
}
