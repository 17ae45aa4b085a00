package ttyface

import "fmt"

// Batch is an ordered collection of staged steps, owned exclusively by the
// caller until it is committed through Interface.PerformUpdate. Staging
// performs no I/O and only structural validation (non-negative indices);
// whether a referenced row or segment actually exists is checked at commit
// time, before any terminal output.
//
// A batch is consumed by its commit and cannot be staged into or committed
// again.
type Batch struct {
	iface     *Interface
	steps     []step
	committed bool
}

// step is one staged mutation intent, replayed against the working state
// in exactly staging order.
type step interface {
	apply(st *interfaceState) error
}

type setCursorStep struct {
	pos Position
}

func (s setCursorStep) apply(st *interfaceState) error {
	st.cursor = s.pos
	return nil
}

type setLineStep struct {
	row  int
	line Line
}

func (s setLineStep) apply(st *interfaceState) error {
	st.setLine(s.row, s.line)
	return nil
}

type setSegmentStep struct {
	row, index int
	segment    Segment
}

func (s setSegmentStep) apply(st *interfaceState) error {
	return st.setSegment(s.row, s.index, s.segment)
}

type deleteLineStep struct {
	row int
}

func (s deleteLineStep) apply(st *interfaceState) error {
	return st.deleteLine(s.row)
}

type deleteSegmentStep struct {
	row, index int
}

func (s deleteSegmentStep) apply(st *interfaceState) error {
	return st.deleteSegment(s.row, s.index)
}

// SetCursor stages the desired cursor position, relative to the interface.
// The target is evaluated after all content steps have been applied; a
// batch without a SetCursor step restores the pre-commit position instead.
func (b *Batch) SetCursor(row, col int) error {
	if err := checkIndex("row", row); err != nil {
		return err
	}
	if err := checkIndex("column", col); err != nil {
		return err
	}
	return b.stage(setCursorStep{pos: Position{Row: row, Col: col}})
}

// SetLine stages a wholesale replacement of the line at row. Rows between
// the current height and row are created empty. The line is copied at
// staging time; later mutations of the caller's value have no effect.
func (b *Batch) SetLine(row int, line Line) error {
	if err := checkIndex("row", row); err != nil {
		return err
	}
	return b.stage(setLineStep{row: row, line: line.clone()})
}

// SetSegment stages a replacement of segment index within row. The index
// one past the line's last segment appends; anything beyond that fails the
// commit with ErrInvalidReference.
func (b *Batch) SetSegment(row, index int, segment Segment) error {
	if err := checkIndex("row", row); err != nil {
		return err
	}
	if err := checkIndex("segment index", index); err != nil {
		return err
	}
	return b.stage(setSegmentStep{row: row, index: index, segment: segment})
}

// DeleteLine stages clearing the line at row. The row keeps its index —
// rows are absolute terminal lines — but its content is emptied.
func (b *Batch) DeleteLine(row int) error {
	if err := checkIndex("row", row); err != nil {
		return err
	}
	return b.stage(deleteLineStep{row: row})
}

// DeleteSegment stages removal of segment index from row; later segments
// in the row shift one position left.
func (b *Batch) DeleteSegment(row, index int) error {
	if err := checkIndex("row", row); err != nil {
		return err
	}
	if err := checkIndex("segment index", index); err != nil {
		return err
	}
	return b.stage(deleteSegmentStep{row: row, index: index})
}

// Len returns the number of staged steps.
func (b *Batch) Len() int {
	return len(b.steps)
}

func (b *Batch) stage(s step) error {
	if b.committed {
		return fmt.Errorf("stage into committed batch: %w", ErrSessionState)
	}
	b.steps = append(b.steps, s)
	return nil
}

func checkIndex(name string, v int) error {
	if v < 0 {
		return fmt.Errorf("negative %s %d: %w", name, v, ErrInvalidReference)
	}
	return nil
}
