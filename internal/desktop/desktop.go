// Package desktop implements the two window managers of the original
// kernel: a text-mode desktop drawn on the 80x25 cell buffer with a command
// line, and a graphical desktop drawn on the 320x200 surface with
// keyboard-driven window management. Both are ordinary components: all work
// happens inside their tick handlers.
package desktop

import (
	"fmt"
	"io"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/opencomp-os/opencomp/internal/input"
	"github.com/opencomp-os/opencomp/internal/kernel"
	"github.com/opencomp-os/opencomp/internal/mm"
	"github.com/opencomp-os/opencomp/internal/vga"
)

const (
	maxWindows     = 8
	maxCommandLen  = 63
	redrawInterval = 10 // ticks between full redraws
)

// Window is one text-mode window.
type Window struct {
	Active        bool
	X, Y          int
	Width, Height int
	Title         string
	Content       string
}

// Manager is the text-mode desktop: up to 8 windows over a blue background,
// a title bar, and a CMD> prompt driven by the keyboard component.
type Manager struct {
	text  *vga.TextBuffer
	kb    *input.Keyboard
	alloc *mm.Allocator

	windows [maxWindows]Window
	active  int
	cmd     []byte
	ticks   int
}

// NewManager builds a desktop over the given collaborators.
func NewManager(text *vga.TextBuffer, kb *input.Keyboard, alloc *mm.Allocator) *Manager {
	return &Manager{text: text, kb: kb, alloc: alloc, active: -1}
}

// CreateWindow claims the first free slot. Returns the window index, or -1
// when all slots are taken. The first window created becomes active.
func (m *Manager) CreateWindow(title string, x, y, w, h int) int {
	for i := range m.windows {
		if m.windows[i].Active {
			continue
		}
		if len(title) > 31 {
			title = title[:31]
		}
		m.windows[i] = Window{
			Active: true,
			X:      x, Y: y,
			Width: w, Height: h,
			Title: title,
		}
		if m.active == -1 {
			m.active = i
		}
		return i
	}
	return -1
}

// SetContent replaces a window's content text.
func (m *Manager) SetContent(idx int, content string) {
	if idx < 0 || idx >= maxWindows || !m.windows[idx].Active {
		return
	}
	if len(content) > 255 {
		content = content[:255]
	}
	m.windows[idx].Content = content
}

// Window returns a copy of the window at idx, for inspection.
func (m *Manager) Window(idx int) (Window, bool) {
	if idx < 0 || idx >= maxWindows {
		return Window{}, false
	}
	return m.windows[idx], m.windows[idx].Active
}

// ActiveWindow returns the active window index, or -1.
func (m *Manager) ActiveWindow() int {
	return m.active
}

// drawBox draws a bordered box of spaces: '+' corners, '-' and '|' edges.
func (m *Manager) drawBox(x, y, w, h int, color vga.Color) {
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c := byte(' ')
			switch {
			case row == 0 || row == h-1:
				if col == 0 || col == w-1 {
					c = '+'
				} else {
					c = '-'
				}
			case col == 0 || col == w-1:
				c = '|'
			}
			m.text.PutCharAt(x+col, y+row, c, color)
		}
	}
}

// drawWindow renders one window: box, centered title, content flowed into
// the interior one line per row.
func (m *Manager) drawWindow(idx int) {
	w := &m.windows[idx]
	if !w.Active {
		return
	}

	color := vga.Color(0x17)
	if idx == m.active {
		color = 0x1F
	}
	m.drawBox(w.X, w.Y, w.Width, w.Height, color)

	titleX := w.X + (w.Width-len(w.Title))/2
	for i := 0; i < len(w.Title); i++ {
		m.text.PutCharAt(titleX+i, w.Y, w.Title[i], color)
	}

	lines := strings.Split(w.Content, "\n")
	for row := 0; row < w.Height-2 && row < len(lines); row++ {
		line := lines[row]
		for col := 0; col < w.Width-2 && col < len(line); col++ {
			m.text.PutCharAt(w.X+1+col, w.Y+1+row, line[col], color)
		}
	}
}

// Draw repaints the whole desktop: background, title bar, windows in slot
// order, command line with cursor.
func (m *Manager) Draw() {
	m.text.Clear(0x01) // blue background

	title := " OpenComp Desktop Environment "
	titleX := (vga.TextCols - len(title)) / 2
	for i := 0; i < vga.TextCols; i++ {
		c := byte(' ')
		if i >= titleX && i < titleX+len(title) {
			c = title[i-titleX]
		}
		m.text.PutCharAt(i, 0, c, 0x70)
	}

	for i := range m.windows {
		m.drawWindow(i)
	}

	prompt := "CMD> "
	for i := 0; i < len(prompt); i++ {
		m.text.PutCharAt(i, vga.TextRows-1, prompt[i], 0x0F)
	}
	for i, c := range m.cmd {
		m.text.PutCharAt(len(prompt)+i, vga.TextRows-1, c, 0x0F)
	}
	m.text.PutCharAt(len(prompt)+len(m.cmd), vga.TextRows-1, '_', 0x0F)
}

// handleCommand dispatches the typed command and clears the buffer.
func (m *Manager) handleCommand() {
	command := string(m.cmd)
	m.cmd = m.cmd[:0]

	switch command {
	case "help":
		win := m.CreateWindow("Help", 10, 5, 60, 15)
		if win >= 0 {
			m.SetContent(win,
				"Commands:\n"+
					"help - Show this help\n"+
					"about - About OpenComp\n"+
					"mem - Memory info\n"+
					"clear - Close all windows")
		}
	case "about":
		win := m.CreateWindow("About", 15, 8, 50, 10)
		if win >= 0 {
			m.SetContent(win,
				"OpenComp Kernel v0.1\n"+
					"A component-based OS\n"+
					"Licensed under GPLv2\n"+
					"Copyright 2025 B.Nova J.")
		}
	case "mem":
		win := m.CreateWindow("Memory", 20, 10, 40, 8)
		if win >= 0 {
			free := m.alloc.FreePages()
			m.SetContent(win, fmt.Sprintf(
				"Free pages: %d\nFree memory: %d KB", free, free*4))
		}
	case "clear":
		for i := range m.windows {
			m.windows[i].Active = false
		}
		m.active = -1
	}
}

// Tick redraws every redrawInterval ticks and consumes one key per tick:
// newline dispatches the command, backspace edits, anything else appends.
func (m *Manager) Tick() {
	if m.ticks%redrawInterval == 0 {
		m.Draw()
	}
	m.ticks++

	if !m.kb.HasKey() {
		return
	}
	switch c := m.kb.GetKey(); c {
	case '\n':
		m.handleCommand()
	case '\b':
		if len(m.cmd) > 0 {
			m.cmd = m.cmd[:len(m.cmd)-1]
		}
	default:
		if len(m.cmd) < maxCommandLen {
			m.cmd = append(m.cmd, c)
		}
	}
}

// Component wraps the desktop as a registrable kernel component. Init
// creates the welcome window.
func (m *Manager) Component(console io.Writer) kernel.Component {
	return kernel.Component{
		Name:    "desktop",
		Version: semver.MustParse("0.1.0"),
		Init: func() {
			win := m.CreateWindow("Welcome to OpenComp", 15, 6, 50, 12)
			if win >= 0 {
				m.SetContent(win,
					"Welcome to OpenComp!\n\n"+
						"Type 'help' for commands.\n\n"+
						"This is a simple text-mode\n"+
						"desktop environment.\n")
			}
			fmt.Fprint(console, "[desktop] Desktop environment initialized\n")
		},
		Tick: m.Tick,
	}
}
