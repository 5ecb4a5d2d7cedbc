// Package errx attaches a sentinel error to a cause so callers can match
// either with errors.Is.
package errx

import "fmt"

// Wrap returns an error that matches both sentinel and cause.
// A nil cause yields the sentinel itself.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// With appends a formatted suffix to sentinel. The suffix is written
// verbatim after the sentinel message, so it usually starts with ": " or a
// space. A %w verb in format wraps its argument as well.
func With(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w"+format, append([]any{sentinel}, args...)...)
}
