package ttyface

import (
	"bufio"
	"fmt"
	"io"
)

// Terminal abstracts the position-relative terminal primitives the render
// engine emits. All operations buffer; only Flush touches the underlying
// byte sink, so I/O failures surface there. Implementations exist for any
// io.Writer (WriterTerminal) and for the process's own TTY
// (ProcessTerminal); tests substitute recording doubles.
type Terminal interface {
	// MoveUp moves the cursor up n rows relative to the current row.
	MoveUp(n int)

	// MoveDown moves the cursor down n rows relative to the current row,
	// creating rows by scrolling when moving past the bottom of the buffer.
	MoveDown(n int)

	// MoveToColumn returns the cursor to column 0, then moves right to col.
	MoveToColumn(col int)

	// ClearToEndOfLine erases from the cursor to the end of the physical
	// line without moving the cursor.
	ClearToEndOfLine()

	// WriteText writes raw text at the cursor position; the cursor
	// advances by the text's display width.
	WriteText(s string)

	// Flush pushes all buffered output to the underlying byte sink and
	// reports any write error encountered since the previous flush.
	Flush() error

	// EnterInterface prepares the terminal for interface rendering.
	// Invoked once at session start.
	EnterInterface() error

	// ExitInterface restores the terminal for normal use. Invoked once at
	// session end.
	ExitInterface() error
}

// WriterTerminal renders driver primitives as ANSI escape sequences into a
// buffered writer. Write errors are sticky and reported by Flush, matching
// the driver contract of synchronous, non-failing operations with I/O
// failures surfaced at the flush boundary.
type WriterTerminal struct {
	out *bufio.Writer
}

// NewWriterTerminal creates a terminal that renders to w.
func NewWriterTerminal(w io.Writer) *WriterTerminal {
	return &WriterTerminal{out: bufio.NewWriter(w)}
}

func (t *WriterTerminal) MoveUp(n int) {
	if n > 0 {
		fmt.Fprintf(t.out, "\x1b[%dA", n)
	}
}

// MoveDown emits line feeds rather than CUD sequences so that moving below
// the last existing buffer row scrolls new rows into existence.
func (t *WriterTerminal) MoveDown(n int) {
	for range n {
		t.out.WriteByte('\n') //nolint:errcheck
	}
}

func (t *WriterTerminal) MoveToColumn(col int) {
	t.out.WriteByte('\r') //nolint:errcheck
	if col > 0 {
		fmt.Fprintf(t.out, "\x1b[%dC", col)
	}
}

func (t *WriterTerminal) ClearToEndOfLine() {
	t.out.WriteString("\x1b[K") //nolint:errcheck
}

func (t *WriterTerminal) WriteText(s string) {
	t.out.WriteString(s) //nolint:errcheck
}

func (t *WriterTerminal) Flush() error {
	return t.out.Flush()
}

func (t *WriterTerminal) EnterInterface() error {
	t.out.WriteString("\x1b[?25l") //nolint:errcheck
	return t.out.Flush()
}

func (t *WriterTerminal) ExitInterface() error {
	t.out.WriteString("\x1b[?25h") //nolint:errcheck
	return t.out.Flush()
}
