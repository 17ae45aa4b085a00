package ttyface

import "github.com/charmbracelet/x/ansi"

// commonPrefix compares old and new text grapheme cluster by grapheme
// cluster and returns the terminal column of the first difference along
// with its byte offset within new. Widths are grapheme-aware so the column
// stays correct for wide characters.
func commonPrefix(oldText, newText string) (col, offset int) {
	for len(oldText) > 0 && len(newText) > 0 {
		oldCluster, _ := ansi.FirstGraphemeCluster(oldText, ansi.GraphemeWidth)
		newCluster, newWidth := ansi.FirstGraphemeCluster(newText, ansi.GraphemeWidth)
		if oldCluster != newCluster {
			break
		}
		col += newWidth
		offset += len(newCluster)
		oldText = oldText[len(oldCluster):]
		newText = newText[len(newCluster):]
	}
	return col, offset
}
