package ttyface

import "fmt"

// Position is a cursor position relative to the interface origin: (0, 0)
// is where the interface started, not the top of the terminal window.
type Position struct {
	// Row is the vertical position, 0-indexed.
	Row int
	// Col is the horizontal position in terminal columns, 0-indexed.
	Col int
}

// interfaceState holds the interface's content and intended cursor
// position. The session keeps one authoritative copy reflecting exactly
// what is on the terminal; commits materialize a working copy, apply the
// batch's steps to it, and swap it in only after a successful flush.
type interfaceState struct {
	lines  []Line
	cursor Position
}

func (s *interfaceState) clone() interfaceState {
	lines := make([]Line, len(s.lines))
	for i := range s.lines {
		lines[i] = s.lines[i].clone()
	}
	return interfaceState{lines: lines, cursor: s.cursor}
}

// line returns the line at row, treating rows beyond the state as empty.
func (s *interfaceState) line(row int) Line {
	if row >= len(s.lines) {
		return Line{}
	}
	return s.lines[row]
}

// rowText returns the concatenated text at row, "" beyond the state.
func (s *interfaceState) rowText(row int) string {
	return s.line(row).Text()
}

// ensureLine grows the state with empty lines through row. Lines are
// dense: referencing a row past the current height creates the rows in
// between.
func (s *interfaceState) ensureLine(row int) {
	for len(s.lines) <= row {
		s.lines = append(s.lines, Line{})
	}
}

func (s *interfaceState) setLine(row int, line Line) {
	s.ensureLine(row)
	s.lines[row] = line
}

func (s *interfaceState) setSegment(row, index int, segment Segment) error {
	if row >= len(s.lines) {
		return fmt.Errorf("set segment %d of absent row %d: %w", index, row, ErrInvalidReference)
	}
	segments := s.lines[row].Segments
	if index > len(segments) {
		return fmt.Errorf("set segment %d beyond append position %d of row %d: %w",
			index, len(segments), row, ErrInvalidReference)
	}
	if index == len(segments) {
		s.lines[row].Segments = append(segments, segment)
		return nil
	}
	segments[index] = segment
	return nil
}

// deleteLine clears the line at row. Rows are absolute terminal lines, so
// deletion empties the row in place rather than compacting row indices.
func (s *interfaceState) deleteLine(row int) error {
	if row >= len(s.lines) {
		return fmt.Errorf("delete absent row %d: %w", row, ErrInvalidReference)
	}
	s.lines[row] = Line{}
	return nil
}

// deleteSegment removes segment index from row, shifting the segments
// after it one position left.
func (s *interfaceState) deleteSegment(row, index int) error {
	if row >= len(s.lines) {
		return fmt.Errorf("delete segment %d of absent row %d: %w", index, row, ErrInvalidReference)
	}
	segments := s.lines[row].Segments
	if index >= len(segments) {
		return fmt.Errorf("delete absent segment %d of row %d: %w", index, row, ErrInvalidReference)
	}
	s.lines[row].Segments = append(segments[:index], segments[index+1:]...)
	return nil
}
