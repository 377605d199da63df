// Package lib holds helpers shared by command entry points.
package lib

import (
	"errors"
	"fmt"
	"os"
)

// CodedError is an error that chooses the process exit status.
type CodedError struct {
	Code int
	Err  error
}

func (e *CodedError) Error() string { return e.Err.Error() }
func (e *CodedError) Unwrap() error { return e.Err }

// WithCode attaches an exit status to err. A nil err stays nil.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Err: err}
}

// ExitCode returns the status Exit would use for err.
func ExitCode(err error) int {
	var ce *CodedError
	if errors.As(err, &ce) && ce.Code != 0 {
		return ce.Code
	}
	return 1
}

// Exit prints the error and exits the program with its exit code, 1 by default
func Exit(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(ExitCode(err))
}
