// internal/recovery/recovery.go
// Package recovery converts panics into process exits or errors.
package recovery

import (
	"fmt"
	"os"
	"runtime/debug"
)

// PanicError carries a recovered panic value and the stack at the point of
// the panic.
type PanicError struct {
	Op    string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Op, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// HandlePanic should be deferred at the top of main().
// It prints the panic and stack to stderr and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		fatal(r)
		os.Exit(1)
	}
}

// HandlePanicFunc is HandlePanic with a cleanup step run before exiting.
// Use it in goroutines that own resources, e.g. an audio device.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		fatal(r)
		if cleanup != nil {
			cleanup()
		}
		os.Exit(1)
	}
}

// ToError recovers a panic and stores it in *errp as a *PanicError.
// It must be deferred directly:
//
//	func f() (err error) {
//		defer recovery.ToError("classify", &err)
//		...
//	}
func ToError(op string, errp *error) {
	if r := recover(); r != nil {
		*errp = &PanicError{Op: op, Value: r, Stack: debug.Stack()}
	}
}

func fatal(r any) {
	_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
}
