// Package errors provides the classified error primitives used across vancouver.
//
// A ClassifiedError carries a category (config, validation, filesystem, ...),
// a severity and a small map of context values. Errors are created through
// the fluent ErrorBuilder:
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "failed to read source").
//		WithContext("source", path).
//		Build()
//
// The CLIErrorAdapter turns classified errors into exit codes and
// user-facing messages.
package errors
