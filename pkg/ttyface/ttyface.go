// Package ttyface provides simple TTY-based interface capabilities,
// including partial re-renders of multi-line displays over the normal
// scrollback buffer. Content is modeled as lines of segments, changes are
// staged into batches, and each committed batch is turned into the minimal
// sequence of relative cursor moves, line clears, and text writes needed to
// bring the physical terminal in sync — without ever losing track of where
// the cursor actually is.
//
// The engine only uses position-relative terminal primitives (up/down N
// rows, column addressing, clear to end of line), so an interface can be
// rendered anywhere in the buffer without assuming control of the whole
// screen. Lines are assumed to fit the terminal width; the driver performs
// no wrap handling.
//
// Segments carry plain text only. After a WriterError the physical terminal
// state is indeterminate and the only safe recovery is to End the session
// and start a new one.
package ttyface

import (
	"fmt"
	"io"
)

// Interface is one terminal interface session. It owns the authoritative
// model of what is currently rendered, the tracked physical cursor
// position, and the underlying terminal for the life of the session.
//
// An Interface is not safe for concurrent use; all staging and commits are
// synchronous and single-threaded.
type Interface struct {
	term Terminal

	// state always reflects exactly what has been written to the terminal.
	// It advances only when a batch commits successfully.
	state interfaceState

	// cursor is the tracked physical cursor position, interface-relative.
	// The terminal is never queried; this field is the sole source of truth.
	cursor Position

	outstanding bool
	ended       bool
	updates     int

	debugWriter io.Writer
}

// New begins a session whose output is rendered as ANSI escape sequences to
// w. The physical cursor is assumed to sit at the interface origin (row 0,
// column 0) when the session starts.
func New(w io.Writer) (*Interface, error) {
	return NewWithTerminal(NewWriterTerminal(w))
}

// NewWithTerminal begins a session against a custom terminal driver, such
// as ProcessTerminal or a test double. The driver's interface mode is
// entered once, here, and exited by End.
func NewWithTerminal(t Terminal) (*Interface, error) {
	if err := t.EnterInterface(); err != nil {
		return nil, &WriterError{Err: err}
	}
	return &Interface{term: t}, nil
}

// StartUpdate begins a new update batch for staging changes to the
// interface. Only one batch may be outstanding at a time; starting a second
// before the first is committed fails with ErrSessionState.
func (i *Interface) StartUpdate() (*Batch, error) {
	if i.ended {
		return nil, fmt.Errorf("start update on ended session: %w", ErrSessionState)
	}
	if i.outstanding {
		return nil, fmt.Errorf("an update batch is already outstanding: %w", ErrSessionState)
	}
	i.outstanding = true
	return &Batch{iface: i}, nil
}

// PerformUpdate applies a staged batch to the interface by pushing the
// minimal set of changes to the terminal. The batch is consumed whether or
// not the commit succeeds; on failure the in-memory model is left exactly
// as it was before the call.
func (i *Interface) PerformUpdate(b *Batch) error {
	if b == nil || b.iface != i {
		return fmt.Errorf("batch does not belong to this session: %w", ErrSessionState)
	}
	if b.committed {
		return fmt.Errorf("batch already committed: %w", ErrSessionState)
	}
	b.committed = true
	i.outstanding = false
	if i.ended {
		return fmt.Errorf("update on ended session: %w", ErrSessionState)
	}
	return i.commit(b)
}

// Line returns a copy of the line at the given row. Rows beyond the
// interface's current height read as empty lines.
func (i *Interface) Line(row int) Line {
	return i.state.line(row).clone()
}

// Lines returns a copy of all rendered lines.
func (i *Interface) Lines() []Line {
	lines := make([]Line, len(i.state.lines))
	for idx := range i.state.lines {
		lines[idx] = i.state.lines[idx].clone()
	}
	return lines
}

// Cursor returns the interface-relative cursor position as of the last
// successful commit.
func (i *Interface) Cursor() Position {
	return i.state.cursor
}

// Updates returns the number of successfully committed batches.
func (i *Interface) Updates() int {
	return i.updates
}

// SetDebugWriter enables per-commit render stats logging. Each successful
// commit writes a single JSONL record to w. Pass nil to disable.
func (i *Interface) SetDebugWriter(w io.Writer) {
	i.debugWriter = w
}

// End terminates the session: the cursor is advanced past the interface
// content so subsequent terminal output lands below it, and the terminal is
// restored for normal use. The restore happens exactly once; later calls
// are no-ops.
func (i *Interface) End() error {
	if i.ended {
		return nil
	}
	i.ended = true

	i.move(&i.cursor, Position{Row: len(i.state.lines)})
	if err := i.term.Flush(); err != nil {
		return &WriterError{Err: err}
	}
	if err := i.term.ExitInterface(); err != nil {
		return &WriterError{Err: err}
	}
	return nil
}
