package tools

import (
	"errors"
	"fmt"
)

// RetryableError marks a tool failure the build actor is expected to correct
// and re-issue (missing file, absent edit target, command timeout, path
// escaping the sandbox). The gateway folds it into an ordinary tool-error
// string instead of aborting the attempt.
type RetryableError struct {
	Reason string
	Err    error
}

func (e *RetryableError) Error() string {
	return e.Reason
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func retryablef(format string, args ...any) error {
	return &RetryableError{Reason: fmt.Sprintf(format, args...)}
}

func retryable(reason string, err error) error {
	return &RetryableError{Reason: reason, Err: err}
}

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
