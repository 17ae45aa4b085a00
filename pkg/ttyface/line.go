package ttyface

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Segment is an atomic, contiguous run of text within a line. A segment
// has no identity beyond its position within its line.
type Segment struct {
	Text string
}

// Seg creates a segment with the given text.
func Seg(text string) Segment {
	return Segment{Text: text}
}

// Width returns the segment's display width in terminal columns.
func (s Segment) Width() int {
	return ansi.StringWidth(s.Text)
}

// Line is an ordered sequence of segments forming one terminal row. The
// concatenation of its segments is the row's full displayed text.
type Line struct {
	Segments []Segment
}

// NewLine builds a line with one segment per argument.
func NewLine(texts ...string) Line {
	segments := make([]Segment, len(texts))
	for i, t := range texts {
		segments[i] = Segment{Text: t}
	}
	return Line{Segments: segments}
}

// Text returns the line's full displayed text.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Width returns the line's display width: the sum of its segments' widths.
func (l Line) Width() int {
	w := 0
	for _, s := range l.Segments {
		w += s.Width()
	}
	return w
}

func (l Line) clone() Line {
	if l.Segments == nil {
		return Line{}
	}
	segments := make([]Segment, len(l.Segments))
	copy(segments, l.Segments)
	return Line{Segments: segments}
}
