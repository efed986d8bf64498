package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/evalops/estimator"
)

// Sentinel errors.
var (
	ErrConfiguration = errors.New("report: invalid configuration")
	ErrUnsupported   = errors.New("report: unsupported operation")
	ErrImmutable     = errors.New("report: attribute is immutable")
)

// ConfigurationError reports invalid or missing arguments: a bad data
// source, missing training data, or a write to an immutable attribute.
type ConfigurationError struct {
	// Field names the offending argument, e.g. "X_train" or "data_source".
	Field   string
	Message string
	// Immutable is set for writes to attributes fixed at construction.
	Immutable bool
}

func (e *ConfigurationError) Error() string {
	return "report: " + e.Message
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Immutable {
		return []error{ErrConfiguration, ErrImmutable}
	}
	return []error{ErrConfiguration}
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func immutableErr(field, hint string) error {
	return &ConfigurationError{
		Field:     field,
		Message:   fmt.Sprintf("The %s attribute is immutable. %s", field, hint),
		Immutable: true,
	}
}

// UnsupportedOperationError reports an operation requested on a report
// whose task or estimator cannot serve it.
type UnsupportedOperationError struct {
	Operation string
	Task      estimator.Task
	Reason    string
}

func (e *UnsupportedOperationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "report: %s is not available", e.Operation)
	if e.Task != "" {
		fmt.Fprintf(&b, " for a %s report", e.Task)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupported }
