package observe

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"go.opentelemetry.io/otel/trace"
)

const redacted = "[REDACTED]"

// ParseLogLevel parses a string log level. Unknown levels fall back to info.
func ParseLogLevel(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// apexLogger adapts an apex/log Logger to Logger.
type apexLogger struct {
	logger *log.Logger
	base   log.Fields
}

// NewLogger creates a JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger writing one entry per line to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return NewLoggerWithHandler(level, json.New(w))
}

// NewLoggerWithHandler creates a logger that sends entries to h.
func NewLoggerWithHandler(level string, h log.Handler) Logger {
	return &apexLogger{
		logger: &log.Logger{Handler: h, Level: ParseLogLevel(level)},
		base:   log.Fields{},
	}
}

// WithOperation returns a logger with operation context attached.
func (l *apexLogger) WithOperation(meta OpMeta) Logger {
	fields := make(log.Fields, len(l.base)+5)
	for k, v := range l.base {
		fields[k] = v
	}
	fields["op"] = meta.OpID()
	if meta.Report != "" {
		fields["report_id"] = meta.Report
	}
	if meta.Task != "" {
		fields["task"] = meta.Task
	}
	if meta.Source != "" {
		fields["data_source"] = meta.Source
	}
	return &apexLogger{logger: l.logger, base: fields}
}

func (l *apexLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.entry(ctx, log.InfoLevel, fields).Info(msg)
}

func (l *apexLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.entry(ctx, log.WarnLevel, fields).Warn(msg)
}

func (l *apexLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.entry(ctx, log.ErrorLevel, fields).Error(msg)
}

func (l *apexLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.entry(ctx, log.DebugLevel, fields).Debug(msg)
}

func (l *apexLogger) entry(ctx context.Context, level log.Level, fields []Field) log.Interface {
	if level < l.logger.Level {
		// apex filters too, but skip building the field map
		return l.logger
	}
	merged := make(log.Fields, len(l.base)+len(fields)+1)
	for k, v := range l.base {
		merged[k] = v
	}
	for _, f := range fields {
		if isRedactedField(f.Key) {
			merged[f.Key] = redacted
		} else {
			merged[f.Key] = f.Value
		}
	}
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			merged["trace_id"] = sc.TraceID().String()
		}
	}
	return l.logger.WithFields(merged)
}

// redactedFields are never written to logs. Feature and target arrays can
// be large and may carry sensitive records.
var redactedFields = []string{
	"X", "y",
	"X_test", "y_test",
	"X_train", "y_train",
	"y_true", "y_pred",
	"password", "secret", "token",
}

func isRedactedField(key string) bool {
	return slices.Contains(redactedFields, key)
}

var _ Logger = (*apexLogger)(nil)
