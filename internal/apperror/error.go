package apperror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Kind groups codes by how the cycle reacts to them.
type Kind int

const (
	// KindInternal is a bug or unexpected condition.
	KindInternal Kind = iota
	// KindSoft ends the current candidate or cycle without execution.
	KindSoft
	// KindConfiguration is fatal at startup.
	KindConfiguration
	// KindExecution is a failed dry run or submission; reported, never retried in-cycle.
	KindExecution
	// KindTransient is an RPC problem a fallback may recover from.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindSoft:
		return "soft"
	case KindConfiguration:
		return "configuration"
	case KindExecution:
		return "execution"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	Context   string    `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
	stack     []uintptr
}

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another AppError by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ToLog serializes the error for logging with stack trace
func (e *AppError) ToLog() map[string]any {
	log := map[string]any{
		"code":      e.Code,
		"message":   e.Message,
		"kind":      e.Kind.String(),
		"timestamp": e.Timestamp.Format(time.RFC3339),
	}

	if e.Context != "" {
		log["context"] = e.Context
	}

	if e.cause != nil {
		log["cause"] = e.cause.Error()
	}

	if len(e.stack) > 0 {
		log["stack"] = e.formatStack()
	}

	return log
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("\n\t%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Message:   messages[code],
		Kind:      defaultKind(code),
		Timestamp: time.Now(),
		stack:     captureStack(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithKind overrides the default classification.
func WithKind(kind Kind) Option {
	return func(e *AppError) {
		e.Kind = kind
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Configuration builds a fatal configuration error.
func Configuration(context string) *AppError {
	return New(CodeConfigurationError, WithContext(context))
}

// Wrap wraps a standard error into AppError. Existing AppErrors are
// returned as is, gaining context if they had none.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return New(code, WithContext(context), WithCause(err))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// GetKind extracts the classification, KindInternal for foreign errors.
func GetKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return errors.Is(err, &AppError{Code: code})
}

func defaultKind(code Code) Kind {
	switch code {
	case CodeConfigurationError, CodeExecutorNotOwner, CodeSignerUnavailable:
		return KindConfiguration
	case CodeNoRoute, CodeQuoteReverted, CodeInvalidQuote:
		return KindSoft
	case CodeDryRunRejected, CodeExecutionReverted, CodeExecutionFailed, CodeReceiptTimeout:
		return KindExecution
	}

	switch {
	case strings.HasPrefix(string(code), "ETHEREUM_"),
		strings.Contains(string(code), "TIMEOUT"),
		strings.Contains(string(code), "UNAVAILABLE"),
		strings.Contains(string(code), "FAILED"),
		code == CodeCircuitOpen,
		code == CodeRateLimitExceeded:
		return KindTransient
	default:
		return KindInternal
	}
}
