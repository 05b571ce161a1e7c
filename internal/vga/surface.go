package vga

// Mode-13h framebuffer dimensions.
const (
	FrameWidth  = 320
	FrameHeight = 200
)

// GlyphWidth is the horizontal advance of DrawString.
const GlyphWidth = 8

// Surface is a 320x200 paletted framebuffer with the original drawing
// primitives. All pixel writes are bounds-checked and out-of-range writes
// are dropped. Not safe for concurrent use.
type Surface struct {
	pix [FrameWidth * FrameHeight]byte
}

// NewSurface returns a black surface.
func NewSurface() *Surface {
	return &Surface{}
}

// SetPixel writes one pixel; out-of-bounds coordinates are ignored.
func (s *Surface) SetPixel(x, y int, color byte) {
	if x >= 0 && x < FrameWidth && y >= 0 && y < FrameHeight {
		s.pix[y*FrameWidth+x] = color
	}
}

// PixelAt returns the color at (x, y), or 0 out of bounds.
func (s *Surface) PixelAt(x, y int) byte {
	if x < 0 || x >= FrameWidth || y < 0 || y >= FrameHeight {
		return 0
	}
	return s.pix[y*FrameWidth+x]
}

// Clear fills the whole surface with one color.
func (s *Surface) Clear(color byte) {
	for i := range s.pix {
		s.pix[i] = color
	}
}

// FillRect draws a filled rectangle.
func (s *Surface) FillRect(x, y, w, h int, color byte) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			s.SetPixel(x+dx, y+dy, color)
		}
	}
}

// DrawRect draws a rectangle outline.
func (s *Surface) DrawRect(x, y, w, h int, color byte) {
	for dx := 0; dx < w; dx++ {
		s.SetPixel(x+dx, y, color)
		s.SetPixel(x+dx, y+h-1, color)
	}
	for dy := 0; dy < h; dy++ {
		s.SetPixel(x, y+dy, color)
		s.SetPixel(x+w-1, y+dy, color)
	}
}

// DrawLine draws a line with Bresenham's algorithm.
func (s *Surface) DrawLine(x0, y0, x1, y1 int, color byte) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx
	if dx <= dy {
		err = -dy
	}
	err /= 2

	for {
		s.SetPixel(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := err
		if e2 > -dx {
			err -= dy
			x0 += sx
		}
		if e2 < dy {
			err += dx
			y0 += sy
		}
	}
}

// DrawChar renders an 8x8 glyph with its top-left corner at (x, y). Set
// pixels get the color; background pixels are left untouched.
func (s *Surface) DrawChar(x, y int, c byte, color byte) {
	g, ok := glyph(c)
	if !ok {
		return
	}
	for row := 0; row < 8; row++ {
		line := g[row]
		for col := 0; col < 8; col++ {
			if line&(0x80>>uint(col)) != 0 {
				s.SetPixel(x+col, y+row, color)
			}
		}
	}
}

// DrawString renders a string left to right with an 8-pixel advance.
func (s *Surface) DrawString(x, y int, str string, color byte) {
	cx := x
	for i := 0; i < len(str); i++ {
		s.DrawChar(cx, y, str[i], color)
		cx += GlyphWidth
	}
}
