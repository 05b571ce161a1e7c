// Package vga models the two display surfaces of the original kernel: the
// 80x25 text-mode cell buffer and the 320x200 mode-13h framebuffer. In a
// hosted build the buffers are plain memory rendered by a terminal frontend;
// the drawing semantics (cursor advance, scrolling, clipping, Bresenham
// lines, the 8x8 font) follow the original exactly.
package vga

import (
	"strings"
)

// Text-mode dimensions.
const (
	TextCols = 80
	TextRows = 25
)

// Color is a VGA attribute byte: background in the high nibble, foreground
// in the low nibble.
type Color = byte

// Default attribute: white on black.
const ColorDefault Color = 0x0F

// Cell is one character cell of the text buffer.
type Cell struct {
	Char  byte
	Color Color
}

// TextBuffer is the text-mode screen with a write cursor. It implements
// io.Writer so it can serve directly as the kernel's console sink. Not safe
// for concurrent use; all writes happen on the scheduler goroutine.
type TextBuffer struct {
	cells [TextRows * TextCols]Cell
	row   int
	col   int
	color Color
}

// NewTextBuffer returns a cleared screen with the default attribute.
func NewTextBuffer() *TextBuffer {
	t := &TextBuffer{color: ColorDefault}
	t.Clear(ColorDefault)
	return t
}

// Clear fills the screen with spaces in the given attribute and homes the
// cursor.
func (t *TextBuffer) Clear(color Color) {
	for i := range t.cells {
		t.cells[i] = Cell{Char: ' ', Color: color}
	}
	t.row, t.col = 0, 0
}

// SetColor sets the attribute used by subsequent cursor writes.
func (t *TextBuffer) SetColor(color Color) {
	t.color = color
}

// PutCharAt writes a single cell without moving the cursor. Out-of-bounds
// coordinates are ignored.
func (t *TextBuffer) PutCharAt(x, y int, c byte, color Color) {
	if x < 0 || x >= TextCols || y < 0 || y >= TextRows {
		return
	}
	t.cells[y*TextCols+x] = Cell{Char: c, Color: color}
}

// CellAt returns the cell at (x, y). Out-of-bounds reads return the zero
// cell.
func (t *TextBuffer) CellAt(x, y int) Cell {
	if x < 0 || x >= TextCols || y < 0 || y >= TextRows {
		return Cell{}
	}
	return t.cells[y*TextCols+x]
}

// PutChar writes at the cursor, handling newline, line wrap and scrolling.
func (t *TextBuffer) PutChar(c byte) {
	if c == '\n' {
		t.col = 0
		t.row++
	} else {
		t.cells[t.row*TextCols+t.col] = Cell{Char: c, Color: t.color}
		t.col++
		if t.col >= TextCols {
			t.col = 0
			t.row++
		}
	}
	if t.row >= TextRows {
		t.scroll()
	}
}

// scroll moves every line up by one and clears the last line.
func (t *TextBuffer) scroll() {
	copy(t.cells[:], t.cells[TextCols:])
	start := (TextRows - 1) * TextCols
	for i := start; i < len(t.cells); i++ {
		t.cells[i] = Cell{Char: ' ', Color: t.color}
	}
	t.row = TextRows - 1
	t.col = 0
}

// PutString writes a string at the cursor.
func (t *TextBuffer) PutString(s string) {
	for i := 0; i < len(s); i++ {
		t.PutChar(s[i])
	}
}

// Write implements io.Writer for console-style output.
func (t *TextBuffer) Write(p []byte) (int, error) {
	for _, c := range p {
		t.PutChar(c)
	}
	return len(p), nil
}

// Cursor returns the current cursor position.
func (t *TextBuffer) Cursor() (row, col int) {
	return t.row, t.col
}

// Line returns row y as a trimmed string, for tests and rendering.
func (t *TextBuffer) Line(y int) string {
	if y < 0 || y >= TextRows {
		return ""
	}
	var b strings.Builder
	for x := 0; x < TextCols; x++ {
		b.WriteByte(t.cells[y*TextCols+x].Char)
	}
	return strings.TrimRight(b.String(), " ")
}

// Render returns the whole screen as TextRows newline-separated lines,
// preserving cell positions (no trailing-space trimming).
func (t *TextBuffer) Render() string {
	var b strings.Builder
	b.Grow(TextRows * (TextCols + 1))
	for y := 0; y < TextRows; y++ {
		for x := 0; x < TextCols; x++ {
			b.WriteByte(t.cells[y*TextCols+x].Char)
		}
		if y != TextRows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
