package terminal

import "github.com/mattn/go-runewidth"

// DefaultWidth is used when the output isn't a terminal.
const DefaultWidth = 120

// WidthOrDefault returns Width, or DefaultWidth when it can't be read.
func WidthOrDefault() int {
	width, err := Width()
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// Truncate shortens line to fit in width terminal cells, marking the cut
// with '~'. Wide characters count for two cells.
func Truncate(line string, width int) string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return line
	}
	return runewidth.Truncate(line, width, "~")
}
