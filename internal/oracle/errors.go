package oracle

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is against an *Error.
var (
	ErrTransport         = errors.New("oracle: transport error")
	ErrMalformedResponse = errors.New("oracle: malformed response")
	ErrEmptyResponse     = errors.New("oracle: empty response")
)

// Error is a failed oracle call.
type Error struct {
	Kind error  // one of the Err* kinds
	Op   string // what was being done
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func transportErr(op string, err error) *Error {
	return &Error{Kind: ErrTransport, Op: op, Err: err}
}

func malformedErr(op string, err error) *Error {
	return &Error{Kind: ErrMalformedResponse, Op: op, Err: err}
}

func emptyErr(op string) *Error {
	return &Error{Kind: ErrEmptyResponse, Op: op}
}
