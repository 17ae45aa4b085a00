package ttyface

import (
	"errors"
	"fmt"
)

// ErrInvalidReference reports a step that targets a row or segment which
// does not exist for an operation requiring existence, or a negative index
// at staging time. It is raised during desired-state materialization,
// before any terminal output for the batch.
var ErrInvalidReference = errors.New("invalid row or segment reference")

// ErrSessionState reports a misuse of the session's batch discipline:
// starting a second update while one is outstanding, staging into or
// committing an already-committed batch, or using an ended session.
var ErrSessionState = errors.New("invalid session state")

// WriterError wraps an I/O failure from the underlying writer. Writes for
// earlier rows of the same commit may already have reached the terminal,
// so the physical state is indeterminate; the in-memory model is not
// advanced, and the only safe recovery is to End the session.
type WriterError struct {
	Err error
}

func (e *WriterError) Error() string {
	return fmt.Sprintf("terminal write: %v", e.Err)
}

func (e *WriterError) Unwrap() error { return e.Err }
