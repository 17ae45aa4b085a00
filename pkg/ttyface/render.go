package ttyface

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// UpdateStats captures metrics for a single committed batch.
type UpdateStats struct {
	// DiffTime is how long it took to materialize the desired state,
	// compute the row diffs, and buffer the terminal operations.
	DiffTime time.Duration

	// FlushTime is how long the writer flush took.
	FlushTime time.Duration

	// Steps is the number of staged steps in the batch.
	Steps int

	// RowsChanged is the number of rows that required terminal output.
	RowsChanged int

	// RowsUnchanged is the number of rows skipped because their text
	// matched the previous state.
	RowsUnchanged int

	// FirstChangedRow is the first differing row, or -1 if none.
	FirstChangedRow int

	// LastChangedRow is the last differing row, or -1 if none.
	LastChangedRow int
}

// updateStatsJSON is the JSONL record written by the debug writer.
type updateStatsJSON struct {
	Ts           int64 `json:"ts"`
	DiffUs       int64 `json:"diff_us"`
	FlushUs      int64 `json:"flush_us"`
	Steps        int   `json:"steps"`
	RowsChanged  int   `json:"rows_changed"`
	RowsClean    int   `json:"rows_clean"`
	FirstChanged int   `json:"first_changed"`
	LastChanged  int   `json:"last_changed"`
}

// commit materializes the batch's desired state, emits the minimal
// terminal operations to get there, and — only after a successful flush —
// swaps the desired state in as the session's authoritative state.
func (i *Interface) commit(b *Batch) error {
	diffStart := time.Now()

	// Materialize the desired state. Any invalid reference fails the whole
	// commit here, before a single byte reaches the terminal.
	next := i.state.clone()
	for _, s := range b.steps {
		if err := s.apply(&next); err != nil {
			return err
		}
	}

	stats := UpdateStats{
		Steps:           len(b.steps),
		FirstChangedRow: -1,
		LastChangedRow:  -1,
	}

	// The tracked cursor advances on a working copy; the session's copy
	// moves only with the state swap below, so a failed flush leaves both
	// untouched.
	cur := i.cursor

	// Rows in ascending order: monotonic descent, minimal vertical travel.
	rows := max(len(i.state.lines), len(next.lines))
	for row := 0; row < rows; row++ {
		oldText := i.state.rowText(row)
		newText := next.rowText(row)
		if oldText == newText {
			stats.RowsUnchanged++
			continue
		}
		stats.RowsChanged++
		if stats.FirstChangedRow == -1 {
			stats.FirstChangedRow = row
		}
		stats.LastChangedRow = row

		// Only the suffix past the common prefix needs rewriting. The
		// clear also erases any stale tail when the new text is shorter.
		col, offset := commonPrefix(oldText, newText)
		i.move(&cur, Position{Row: row, Col: col})
		i.term.ClearToEndOfLine()
		if suffix := newText[offset:]; suffix != "" {
			i.term.WriteText(suffix)
			cur.Col += ansi.StringWidth(suffix)
		}
	}

	// Return the cursor to its staged target, or the pre-commit position
	// when the batch staged none. Exactly once, after all content writes.
	i.move(&cur, next.cursor)
	stats.DiffTime = time.Since(diffStart)

	flushStart := time.Now()
	if err := i.term.Flush(); err != nil {
		return &WriterError{Err: err}
	}
	stats.FlushTime = time.Since(flushStart)

	i.state = next
	i.cursor = cur
	i.updates++
	i.emitStats(stats)

	return nil
}

// move walks the physical cursor from *cur to target using relative
// primitives only, recording the new position in *cur. Row movement
// preserves neither column guarantees across cooked and raw modes, so any
// move that touches the row also re-addresses the column.
func (i *Interface) move(cur *Position, target Position) {
	if target == *cur {
		return
	}
	if target.Row > cur.Row {
		i.term.MoveDown(target.Row - cur.Row)
	} else if target.Row < cur.Row {
		i.term.MoveUp(cur.Row - target.Row)
	}
	i.term.MoveToColumn(target.Col)
	*cur = target
}

func (i *Interface) emitStats(stats UpdateStats) {
	if i.debugWriter == nil {
		return
	}
	rec := updateStatsJSON{
		Ts:           time.Now().UnixMilli(),
		DiffUs:       stats.DiffTime.Microseconds(),
		FlushUs:      stats.FlushTime.Microseconds(),
		Steps:        stats.Steps,
		RowsChanged:  stats.RowsChanged,
		RowsClean:    stats.RowsUnchanged,
		FirstChanged: stats.FirstChangedRow,
		LastChanged:  stats.LastChangedRow,
	}
	data, _ := json.Marshal(rec)
	data = append(data, '\n')
	i.debugWriter.Write(data) //nolint:errcheck
}
