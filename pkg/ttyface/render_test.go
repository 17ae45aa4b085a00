package ttyface

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// opRecorder records driver operations at the primitive level so tests can
// assert exactly which terminal mutations a commit emits.
type opRecorder struct {
	ops      []string
	flushes  int
	flushErr error
	enterErr error
	entered  int
	exited   int
}

func (r *opRecorder) MoveUp(n int)          { r.ops = append(r.ops, fmt.Sprintf("up(%d)", n)) }
func (r *opRecorder) MoveDown(n int)        { r.ops = append(r.ops, fmt.Sprintf("down(%d)", n)) }
func (r *opRecorder) MoveToColumn(col int)  { r.ops = append(r.ops, fmt.Sprintf("col(%d)", col)) }
func (r *opRecorder) ClearToEndOfLine()     { r.ops = append(r.ops, "clear") }
func (r *opRecorder) WriteText(s string)    { r.ops = append(r.ops, "write("+s+")") }
func (r *opRecorder) Flush() error          { r.flushes++; return r.flushErr }
func (r *opRecorder) EnterInterface() error { r.entered++; return r.enterErr }
func (r *opRecorder) ExitInterface() error  { r.exited++; return nil }

func (r *opRecorder) reset() {
	r.ops = nil
	r.flushes = 0
}

func newTestInterface(t *testing.T) (*Interface, *opRecorder) {
	t.Helper()
	rec := &opRecorder{}
	iface, err := NewWithTerminal(rec)
	require.NoError(t, err)
	return iface, rec
}

// update stages steps via fn and commits them.
func update(t *testing.T, iface *Interface, fn func(b *Batch)) {
	t.Helper()
	b, err := iface.StartUpdate()
	require.NoError(t, err)
	fn(b)
	require.NoError(t, iface.PerformUpdate(b))
}

func TestFirstCommitWritesContent(t *testing.T) {
	iface, rec := newTestInterface(t)

	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("hello")))
	})

	assert.Equal(t, []string{"clear", "write(hello)", "col(0)"}, rec.ops)
	assert.Equal(t, 1, rec.flushes)
	assert.Equal(t, "hello", iface.Line(0).Text())
}

func TestStagedLineIndependentOfCaller(t *testing.T) {
	iface, rec := newTestInterface(t)

	line := NewLine("hello")
	b, err := iface.StartUpdate()
	require.NoError(t, err)
	require.NoError(t, b.SetLine(0, line))

	// Mutating the caller's value after staging must not reach the model:
	// the authoritative state has to keep matching what was rendered.
	line.Segments[0] = Seg("mangled")
	require.NoError(t, iface.PerformUpdate(b))
	assert.Equal(t, "hello", iface.Line(0).Text())

	line.Segments[0] = Seg("mangled again")
	assert.Equal(t, "hello", iface.Line(0).Text())

	// The next commit diffs against the rendered text, not the caller's
	// mutation, so the full rewrite is emitted.
	rec.reset()
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("mangled")))
	})
	assert.Equal(t, []string{"clear", "write(mangled)", "col(0)"}, rec.ops)
	assert.Equal(t, "mangled", iface.Line(0).Text())
}

func TestNoOpCommitEmitsNothing(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("stable")))
	})
	rec.reset()

	// Net effect reproduces the current state exactly.
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("stable")))
	})

	assert.Empty(t, rec.ops)
	// The writer is still flushed exactly once per commit.
	assert.Equal(t, 1, rec.flushes)
}

func TestMinimalSuffixRewrite(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("abcXYZ")))
	})
	rec.reset()

	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("abcQYZ")))
	})

	// Columns 0-2 are never rewritten: move to the first differing column,
	// clear the tail, write the suffix, restore the cursor.
	assert.Equal(t, []string{"col(3)", "clear", "write(QYZ)", "col(0)"}, rec.ops)
}

func TestShrinkingRowClearsWithoutWriting(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("abcdef")))
	})
	rec.reset()

	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("abc")))
	})

	// New text is a strict prefix of the old: the clear erases the stale
	// tail and nothing is written.
	assert.Equal(t, []string{"col(3)", "clear", "col(0)"}, rec.ops)
	assert.Equal(t, "abc", iface.Line(0).Text())
}

func TestMonotonicRowTraversal(t *testing.T) {
	iface, rec := newTestInterface(t)

	// Staged out of row order; emitted strictly ascending.
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(5, NewLine("five")))
		require.NoError(t, b.SetLine(2, NewLine("two")))
		require.NoError(t, b.SetLine(8, NewLine("eight")))
	})

	assert.Equal(t, []string{
		"down(2)", "col(0)", "clear", "write(two)",
		"down(3)", "col(0)", "clear", "write(five)",
		"down(3)", "col(0)", "clear", "write(eight)",
		"up(8)", "col(0)",
	}, rec.ops)
}

func TestCursorRestorationRoundTrip(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("one")))
		require.NoError(t, b.SetLine(1, NewLine("two")))
		require.NoError(t, b.SetLine(2, NewLine("three")))
		require.NoError(t, b.SetCursor(2, 4))
	})
	require.Equal(t, Position{Row: 2, Col: 4}, iface.Cursor())
	rec.reset()

	// No SetCursor staged: the pre-commit position is restored.
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("ONE")))
	})

	assert.Equal(t, []string{
		"up(2)", "col(0)", "clear", "write(ONE)",
		"down(2)", "col(4)",
	}, rec.ops)
	assert.Equal(t, Position{Row: 2, Col: 4}, iface.Cursor())
	assert.Equal(t, Position{Row: 2, Col: 4}, iface.cursor)
}

func TestExplicitCursorTarget(t *testing.T) {
	iface, _ := newTestInterface(t)

	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("prompt> ")))
		require.NoError(t, b.SetCursor(0, 8))
	})

	assert.Equal(t, Position{Row: 0, Col: 8}, iface.Cursor())
	assert.Equal(t, Position{Row: 0, Col: 8}, iface.cursor)
}

func TestRowGrowthCreatesEmptyLines(t *testing.T) {
	iface, _ := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("zero")))
		require.NoError(t, b.SetLine(1, NewLine("one")))
	})

	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(5, NewLine("five")))
	})

	assert.Len(t, iface.Lines(), 6)
	assert.Equal(t, "", iface.Line(3).Text())
	assert.Equal(t, "five", iface.Line(5).Text())
}

func TestSegmentDeletionShiftsDiff(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("A", "B", "C")))
	})
	rec.reset()

	update(t, iface, func(b *Batch) {
		require.NoError(t, b.DeleteSegment(0, 1))
	})

	segments := iface.Line(0).Segments
	require.Len(t, segments, 2)
	assert.Equal(t, "A", segments[0].Text)
	assert.Equal(t, "C", segments[1].Text)

	// "ABC" -> "AC": rewrite starts at column 1.
	assert.Equal(t, []string{"col(1)", "clear", "write(C)", "col(0)"}, rec.ops)
}

func TestDeletedLineKeepsRowIndex(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("zero")))
		require.NoError(t, b.SetLine(1, NewLine("one")))
		require.NoError(t, b.SetLine(2, NewLine("two")))
	})
	rec.reset()

	update(t, iface, func(b *Batch) {
		require.NoError(t, b.DeleteLine(1))
	})

	// Row 1 is erased in place; row 2 is untouched on screen.
	assert.Equal(t, []string{"down(1)", "col(0)", "clear", "up(1)", "col(0)"}, rec.ops)
	assert.Equal(t, "", iface.Line(1).Text())
	assert.Equal(t, "two", iface.Line(2).Text())
}

func TestExclusiveBatchInvariant(t *testing.T) {
	iface, _ := newTestInterface(t)

	b1, err := iface.StartUpdate()
	require.NoError(t, err)

	_, err = iface.StartUpdate()
	assert.ErrorIs(t, err, ErrSessionState)

	require.NoError(t, iface.PerformUpdate(b1))

	_, err = iface.StartUpdate()
	assert.NoError(t, err)
}

func TestInvalidReferenceLeavesEverythingUntouched(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("zero")))
		require.NoError(t, b.SetLine(1, NewLine("one")))
		require.NoError(t, b.SetLine(2, NewLine("two")))
	})
	before := iface.Lines()
	cursorBefore := iface.Cursor()
	rec.reset()

	b, err := iface.StartUpdate()
	require.NoError(t, err)
	// A valid step staged ahead of the invalid one must not leak output.
	require.NoError(t, b.SetLine(0, NewLine("changed")))
	require.NoError(t, b.DeleteLine(10))

	err = iface.PerformUpdate(b)
	assert.ErrorIs(t, err, ErrInvalidReference)

	assert.Empty(t, rec.ops)
	assert.Equal(t, 0, rec.flushes)
	assert.Equal(t, before, iface.Lines())
	assert.Equal(t, cursorBefore, iface.Cursor())
}

func TestCommitConsumesBatch(t *testing.T) {
	iface, _ := newTestInterface(t)

	b, err := iface.StartUpdate()
	require.NoError(t, err)
	require.NoError(t, iface.PerformUpdate(b))

	assert.ErrorIs(t, iface.PerformUpdate(b), ErrSessionState)
	assert.ErrorIs(t, b.SetLine(0, Line{}), ErrSessionState)
}

func TestForeignAndNilBatches(t *testing.T) {
	iface, _ := newTestInterface(t)
	other, _ := newTestInterface(t)

	b, err := other.StartUpdate()
	require.NoError(t, err)

	assert.ErrorIs(t, iface.PerformUpdate(b), ErrSessionState)
	assert.ErrorIs(t, iface.PerformUpdate(nil), ErrSessionState)
}

func TestWriterFailureKeepsModel(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("intact")))
	})
	before := iface.Lines()
	trackedBefore := iface.cursor

	rec.flushErr = io.ErrClosedPipe
	b, err := iface.StartUpdate()
	require.NoError(t, err)
	require.NoError(t, b.SetLine(0, NewLine("broken")))

	err = iface.PerformUpdate(b)
	require.Error(t, err)
	var we *WriterError
	require.ErrorAs(t, err, &we)
	assert.ErrorIs(t, we.Err, io.ErrClosedPipe)

	// The model and tracked cursor never advance past what a successful
	// flush confirmed.
	assert.Equal(t, before, iface.Lines())
	assert.Equal(t, trackedBefore, iface.cursor)
	assert.Equal(t, 1, iface.Updates())
}

func TestDebugStats(t *testing.T) {
	iface, _ := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("zero")))
		require.NoError(t, b.SetLine(1, NewLine("one")))
		require.NoError(t, b.SetLine(2, NewLine("two")))
	})

	var buf bytes.Buffer
	iface.SetDebugWriter(&buf)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("ZERO")))
		require.NoError(t, b.SetLine(2, NewLine("TWO")))
	})

	var rec struct {
		Steps        int `json:"steps"`
		RowsChanged  int `json:"rows_changed"`
		RowsClean    int `json:"rows_clean"`
		FirstChanged int `json:"first_changed"`
		LastChanged  int `json:"last_changed"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, 2, rec.Steps)
	assert.Equal(t, 2, rec.RowsChanged)
	assert.Equal(t, 1, rec.RowsClean)
	assert.Equal(t, 0, rec.FirstChanged)
	assert.Equal(t, 2, rec.LastChanged)
}

func TestEndAdvancesPastContent(t *testing.T) {
	iface, rec := newTestInterface(t)
	update(t, iface, func(b *Batch) {
		require.NoError(t, b.SetLine(0, NewLine("a")))
		require.NoError(t, b.SetLine(1, NewLine("b")))
	})
	rec.reset()

	require.NoError(t, iface.End())
	assert.Equal(t, []string{"down(2)", "col(0)"}, rec.ops)
	assert.Equal(t, 1, rec.exited)

	// End is exactly-once; later calls are no-ops.
	opsAfter := len(rec.ops)
	require.NoError(t, iface.End())
	assert.Len(t, rec.ops, opsAfter)
	assert.Equal(t, 1, rec.exited)

	_, err := iface.StartUpdate()
	assert.ErrorIs(t, err, ErrSessionState)
}

func TestEnterInterfaceFailure(t *testing.T) {
	rec := &opRecorder{enterErr: io.ErrShortWrite}
	_, err := NewWithTerminal(rec)
	var we *WriterError
	require.ErrorAs(t, err, &we)
}

func TestWriterTerminalStickyError(t *testing.T) {
	failing := &failingWriter{err: io.ErrClosedPipe}
	term := NewWriterTerminal(failing)

	// Overflow the buffer so the write error is captured, then confirm
	// Flush reports it.
	big := bytes.Repeat([]byte("x"), 64*1024)
	term.WriteText(string(big))
	assert.ErrorIs(t, term.Flush(), io.ErrClosedPipe)
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write(p []byte) (int, error) { return 0, w.err }
