package reading

import (
	"errors"
	"time"

	"github.com/dgnsrekt/readaloud/document"
)

// Common errors for the reading pipeline.
var (
	// Lifecycle errors
	ErrAlreadyReading = errors.New("a reading session is already active")
	ErrStopping       = errors.New("reader is stopping")

	// Configuration errors
	ErrNoDocument = errors.New("reader has no document")
	ErrNoSpeaker  = errors.New("reader has no speaker")

	// Playback errors
	ErrSpeechFailed = errors.New("speech failed")
)

// IsRecoverableError checks if an error is recoverable.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, ErrNoDocument),
		errors.Is(err, ErrNoSpeaker),
		errors.Is(err, document.ErrUnknownFragment),
		errors.Is(err, document.ErrNilFragment):
		return false
	}

	return true
}

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for warnings that don't prevent operation.
	SeverityWarning
	// SeverityError is for errors that prevent normal operation.
	SeverityError
)

// ReaderError provides detailed error information.
type ReaderError struct {
	Err       error         // The underlying error
	Component string        // Component that generated the error
	Action    string        // Action being performed when error occurred
	Severity  ErrorSeverity // Severity of the error
	Timestamp time.Time
	Context   map[string]any // Additional context
}

// Error implements the error interface.
func (e *ReaderError) Error() string {
	if e.Err == nil {
		return e.Component + ": " + e.Action + ": unknown error"
	}
	return e.Component + ": " + e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ReaderError) Unwrap() error {
	return e.Err
}

// IsRecoverable checks if the error is recoverable.
func (e *ReaderError) IsRecoverable() bool {
	return IsRecoverableError(e.Err)
}

// NewReaderError creates a new error with context.
func NewReaderError(err error, component, action string) *ReaderError {
	return &ReaderError{
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityError,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
}

// WithSeverity sets the error severity.
func (e *ReaderError) WithSeverity(severity ErrorSeverity) *ReaderError {
	e.Severity = severity
	return e
}

// WithContext adds context to the error.
func (e *ReaderError) WithContext(key string, value any) *ReaderError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
