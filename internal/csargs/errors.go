package csargs

import "fmt"

// InterpreterError reports an argument vector the interpreter rejects.
type InterpreterError struct {
	Option string // the offending token
	Reason string
	Cause  error
}

func (e *InterpreterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid compiler argument `%s`: %s: %v", e.Option, e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid compiler argument `%s`: %s", e.Option, e.Reason)
}

func (e *InterpreterError) Unwrap() error { return e.Cause }
