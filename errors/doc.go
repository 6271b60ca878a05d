// Package errors provides structured error types for the duk5 runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Kind.ErrorClass maps a Kind onto the ECMAScript built-in error
// constructor it surfaces as (RangeError, TypeError, URIError, ...) when the
// runtime converts it into a script-visible Error instance.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseProperty, errors.KindTypeError).
//		Path("user", "age").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseAPI, path, "expected number")
//	err := errors.OutOfBounds(errors.PhaseStack, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
