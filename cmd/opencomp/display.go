package main

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/lipgloss"

	"github.com/opencomp-os/opencomp/internal/kernel"
	"github.com/opencomp-os/opencomp/internal/vga"
)

// frameBus carries rendered frames from the scheduler goroutine to the
// terminal frontend. Capacity one with drop-oldest publish: the frontend
// only ever wants the newest frame, and the scheduler must never block.
type frameBus struct {
	ch chan string
}

func newFrameBus() *frameBus {
	return &frameBus{ch: make(chan string, 1)}
}

func (b *frameBus) publish(frame string) {
	select {
	case b.ch <- frame:
	default:
		select {
		case <-b.ch:
		default:
		}
		select {
		case b.ch <- frame:
		default:
		}
	}
}

// displayComponent publishes one rendered frame per scheduler pass. It runs
// last in the table so it sees the pass's final screen state.
func displayComponent(render func() string, bus *frameBus) kernel.Component {
	return kernel.Component{
		Name:    "display",
		Version: semver.MustParse("0.1.0"),
		Tick: func() {
			bus.publish(render())
		},
	}
}

// ansiColor maps a VGA 4-bit color to the matching ANSI-16 palette entry.
var ansiColor = [16]string{
	"0", "4", "2", "6", "1", "5", "3", "7",
	"8", "12", "10", "14", "9", "13", "11", "15",
}

func vgaStyle(attr byte) lipgloss.Style {
	fg := ansiColor[attr&0x0F]
	bg := ansiColor[(attr>>4)&0x0F]
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg))
}

// renderText paints the 80x25 text buffer with its per-cell attributes,
// grouping runs of equal attribute to keep the escape-sequence volume down.
func renderText(text *vga.TextBuffer) string {
	var sb strings.Builder
	for row := 0; row < vga.TextRows; row++ {
		var run []byte
		runAttr := byte(0)
		flush := func() {
			if len(run) > 0 {
				sb.WriteString(vgaStyle(runAttr).Render(string(run)))
				run = run[:0]
			}
		}
		for col := 0; col < vga.TextCols; col++ {
			cell := text.CellAt(col, row)
			ch := cell.Char
			if ch == 0 {
				ch = ' '
			}
			if len(run) > 0 && cell.Color != runAttr {
				flush()
			}
			runAttr = cell.Color
			run = append(run, ch)
		}
		flush()
		if row < vga.TextRows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Terminal cells covering the 320x200 surface: 4x8 pixel blocks give an
// 80x25 grid, the same footprint as the text console.
const (
	blockW = vga.FrameWidth / vga.TextCols
	blockH = vga.FrameHeight / vga.TextRows
)

// renderSurface downsamples the 320x200 framebuffer into 80x25 terminal
// cells. Each cell takes the most frequent color in its pixel block and is
// drawn as a colored space.
func renderSurface(surf *vga.Surface) string {
	var sb strings.Builder
	for row := 0; row < vga.TextRows; row++ {
		var run int
		runColor := byte(0)
		flush := func() {
			if run > 0 {
				style := lipgloss.NewStyle().Background(lipgloss.Color(ansiColor[runColor&0x0F]))
				sb.WriteString(style.Render(strings.Repeat(" ", run)))
				run = 0
			}
		}
		for col := 0; col < vga.TextCols; col++ {
			color := dominantColor(surf, col*blockW, row*blockH)
			if run > 0 && color != runColor {
				flush()
			}
			runColor = color
			run++
		}
		flush()
		if row < vga.TextRows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func dominantColor(surf *vga.Surface, x0, y0 int) byte {
	var counts [16]int
	for dy := 0; dy < blockH; dy++ {
		for dx := 0; dx < blockW; dx++ {
			counts[surf.PixelAt(x0+dx, y0+dy)&0x0F]++
		}
	}
	best := 0
	for c := 1; c < 16; c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return byte(best)
}
