// Package errors provides structured error types for the daclib library.
//
// Errors are categorized by Phase (where along the native boundary the
// error occurred) and Kind (error category). Errors that wrap a native
// status code carry it in Status and format it into the message.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindNativeStatus).
//		Detail("create primary instance").
//		Status(0x80004005).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingExport("failed to obtain factory entry point")
//	err := errors.LoadFailed(path, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
