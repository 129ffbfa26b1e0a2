package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where along the native boundary the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // library image loading
	PhaseResolve Phase = "resolve" // export resolution
	PhaseInvoke  Phase = "invoke"  // entry point invocation
	PhaseQuery   Phase = "query"   // interface identifier query
	PhaseDispose Phase = "dispose" // teardown
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindLoadFailed      Kind = "load_failed"
	KindMissingExport   Kind = "missing_export"
	KindNativeStatus    Kind = "native_status"
	KindNotRecognized   Kind = "not_recognized"
	KindUnsupported     Kind = "unsupported"
)

// Error is the structured error type used throughout daclib
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Status uint32 // native status code (HRESULT), zero when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Status != 0 {
		b.WriteString(fmt.Sprintf(" (status 0x%08x)", e.Status))
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Status sets the native status code
func (b *Builder) Status(code uint32) *Builder {
	b.err.Status = code
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidArgument creates an invalid argument error
func InvalidArgument(detail string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// LoadFailed creates a library load failure error
func LoadFailed(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoadFailed,
		Detail: fmt.Sprintf("load library %q", path),
		Cause:  cause,
	}
}

// MissingExport creates a missing export error
func MissingExport(detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMissingExport,
		Detail: detail,
	}
}

// NativeStatus creates an error for a nonzero status returned by native code
func NativeStatus(phase Phase, what string, status uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNativeStatus,
		Detail: what,
		Status: status,
	}
}

// NotRecognized creates an error for a target with no detected runtime
func NotRecognized(detail string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotRecognized,
		Detail: detail,
	}
}

// Unsupported creates an error for an absent optional capability
func Unsupported(what string) *Error {
	return &Error{
		Phase:  PhaseQuery,
		Kind:   KindUnsupported,
		Detail: what,
	}
}
