package desktop

import (
	"fmt"
	"io"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/opencomp-os/opencomp/internal/input"
	"github.com/opencomp-os/opencomp/internal/kernel"
	"github.com/opencomp-os/opencomp/internal/mm"
	"github.com/opencomp-os/opencomp/internal/tarfs"
	"github.com/opencomp-os/opencomp/internal/vga"
)

// Layout constants of the graphical desktop.
const (
	TaskbarHeight  = 16
	TitlebarHeight = 12
)

// VGA palette indices used by the desktop.
const (
	colorDesktopBG    = 0x01 // dark blue
	colorTaskbar      = 0x08 // dark gray
	colorWindowBG     = 0x07 // light gray
	colorTitlebar     = 0x09 // light blue
	colorTitlebarText = 0x0F // white
	colorBorder       = 0x00 // black
	colorButton       = 0x07 // light gray
	colorText         = 0x00 // black
	colorCursor       = 0x0F // white
)

// GUIWindow is one window of the graphical desktop.
type GUIWindow struct {
	Active        bool
	X, Y          int
	Width, Height int
	Title         string
	Content       string
}

// GUI is the graphical desktop: windows with title bars and a close button
// over a 320x200 surface, a taskbar, and keyboard-driven window management
// (Tab switch, WASD move, X close, E menu). The mouse contributes a cursor.
type GUI struct {
	surf  *vga.Surface
	kb    *input.Keyboard
	mouse *input.Mouse
	alloc *mm.Allocator
	fs    *tarfs.FS

	windows     [maxWindows]GUIWindow
	active      int
	needsRedraw bool
	lastMouseX  int
	lastMouseY  int
}

// NewGUI builds a graphical desktop. The mouse may be nil; every other
// collaborator is required.
func NewGUI(surf *vga.Surface, kb *input.Keyboard, mouse *input.Mouse,
	alloc *mm.Allocator, fs *tarfs.FS) *GUI {
	return &GUI{
		surf:   surf,
		kb:     kb,
		mouse:  mouse,
		alloc:  alloc,
		fs:     fs,
		active: -1,
	}
}

// CreateWindow claims the first free slot and makes it the active window.
// Returns -1 when all slots are taken.
func (g *GUI) CreateWindow(title string, x, y, w, h int) int {
	for i := range g.windows {
		if g.windows[i].Active {
			continue
		}
		if len(title) > 31 {
			title = title[:31]
		}
		g.windows[i] = GUIWindow{
			Active: true,
			X:      x, Y: y,
			Width: w, Height: h,
			Title: title,
		}
		g.active = i
		return i
	}
	return -1
}

// SetContent replaces a window's content text.
func (g *GUI) SetContent(idx int, content string) {
	if idx < 0 || idx >= maxWindows || !g.windows[idx].Active {
		return
	}
	if len(content) > 511 {
		content = content[:511]
	}
	g.windows[idx].Content = content
}

// Window returns a copy of the window at idx, for inspection.
func (g *GUI) Window(idx int) (GUIWindow, bool) {
	if idx < 0 || idx >= maxWindows {
		return GUIWindow{}, false
	}
	return g.windows[idx], g.windows[idx].Active
}

// ActiveWindow returns the active window index, or -1.
func (g *GUI) ActiveWindow() int {
	return g.active
}

// drawWindow renders one window, clamping it onto the desktop area first.
func (g *GUI) drawWindow(idx int) {
	w := &g.windows[idx]
	if !w.Active {
		return
	}

	if w.X < 0 {
		w.X = 0
	}
	if w.Y < 0 {
		w.Y = 0
	}
	if w.X+w.Width > vga.FrameWidth {
		w.X = vga.FrameWidth - w.Width
	}
	if w.Y+w.Height > vga.FrameHeight-TaskbarHeight {
		w.Y = vga.FrameHeight - TaskbarHeight - w.Height
	}

	barColor := byte(colorButton)
	if idx == g.active {
		barColor = colorTitlebar
	}
	g.surf.FillRect(w.X, w.Y, w.Width, TitlebarHeight, barColor)
	g.surf.DrawRect(w.X, w.Y, w.Width, TitlebarHeight, colorBorder)

	tx := w.X + 4
	for i := 0; i < len(w.Title) && tx+i*vga.GlyphWidth < w.X+w.Width-16; i++ {
		g.surf.DrawChar(tx+i*vga.GlyphWidth, w.Y+2, w.Title[i], colorTitlebarText)
	}

	closeX := w.X + w.Width - 12
	g.surf.FillRect(closeX, w.Y+2, 10, 8, colorButton)
	g.surf.DrawRect(closeX, w.Y+2, 10, 8, colorBorder)
	g.surf.DrawChar(closeX+1, w.Y+2, 'X', colorText)

	g.surf.FillRect(w.X, w.Y+TitlebarHeight, w.Width, w.Height-TitlebarHeight, colorWindowBG)
	g.surf.DrawRect(w.X, w.Y+TitlebarHeight, w.Width, w.Height-TitlebarHeight, colorBorder)

	// Content flows in 8-pixel cells, wrapping at the window edge.
	contentX := w.X + 4
	contentY := w.Y + TitlebarHeight + 4
	maxChars := (w.Width - 8) / vga.GlyphWidth
	col := 0
	for i := 0; i < len(w.Content) && contentY < w.Y+w.Height-8; i++ {
		c := w.Content[i]
		if c == '\n' {
			contentY += 10
			col = 0
			continue
		}
		if col >= maxChars {
			contentY += 10
			col = 0
			if contentY >= w.Y+w.Height-8 {
				break
			}
		}
		g.surf.DrawChar(contentX+col*vga.GlyphWidth, contentY, c, colorText)
		col++
	}
}

// drawTaskbar renders the bottom bar with branding, the active window
// number and the key hints.
func (g *GUI) drawTaskbar() {
	y := vga.FrameHeight - TaskbarHeight
	g.surf.FillRect(0, y, vga.FrameWidth, TaskbarHeight, colorTaskbar)
	g.surf.DrawString(4, y+4, "OpenComp", colorTitlebarText)
	g.surf.DrawString(175, y+4, "E:Menu X:Close", colorTitlebarText)
	if g.active >= 0 {
		g.surf.DrawString(65, y+4, fmt.Sprintf("Win:%d", g.active+1), colorTitlebarText)
	}
}

// drawCursor draws a small crosshair at the mouse position.
func (g *GUI) drawCursor() {
	if g.mouse == nil {
		return
	}
	x, y := g.mouse.Position()
	g.surf.DrawLine(x-2, y, x+2, y, colorCursor)
	g.surf.DrawLine(x, y-2, x, y+2, colorCursor)
}

// Redraw repaints the desktop: background, inactive windows, the active
// window on top, taskbar, cursor.
func (g *GUI) Redraw() {
	g.surf.Clear(colorDesktopBG)
	for i := range g.windows {
		if g.windows[i].Active && i != g.active {
			g.drawWindow(i)
		}
	}
	if g.active >= 0 {
		g.drawWindow(g.active)
	}
	g.drawTaskbar()
	g.drawCursor()
}

// closeActive closes the active window and activates the lowest remaining
// slot, if any.
func (g *GUI) closeActive() {
	if g.active < 0 {
		return
	}
	g.windows[g.active].Active = false
	g.active = -1
	for i := range g.windows {
		if g.windows[i].Active {
			g.active = i
			break
		}
	}
}

// switchWindow activates the next occupied slot after the current one.
func (g *GUI) switchWindow() {
	for i := 1; i <= maxWindows; i++ {
		next := (g.active + i + maxWindows) % maxWindows
		if g.windows[next].Active {
			g.active = next
			return
		}
	}
}

// HandleKey processes one desktop key.
func (g *GUI) HandleKey(key byte) {
	switch key {
	case '\t':
		g.switchWindow()
		g.needsRedraw = true
		return
	case 'x', 'X':
		g.closeActive()
		g.needsRedraw = true
		return
	}

	switch key {
	case 'e', 'E':
		win := g.CreateWindow("Start Menu", 10, 140, 140, 90)
		if win >= 0 {
			g.SetContent(win,
				"Applications:\n\n"+
					"H - Help\n"+
					"M - Memory\n"+
					"F - Files\n"+
					"C - Calculator\n\n"+
					"Press key to open")
		}
		g.needsRedraw = true
		return
	case ' ':
		win := g.CreateWindow("Commands", 80, 60, 160, 100)
		if win >= 0 {
			g.SetContent(win,
				"Keys:\n\n"+
					"Tab - Switch\n"+
					"X - Close\n"+
					"WASD - Move\n"+
					"E - Menu\n"+
					"H - Help\n"+
					"M - Memory\n"+
					"F - Files")
		}
		g.needsRedraw = true
		return
	case 'h', 'H':
		win := g.CreateWindow("Help", 40, 30, 240, 100)
		if win >= 0 {
			g.SetContent(win,
				"OpenComp Help\n\n"+
					"Tab switches windows\n"+
					"WASD moves windows\n"+
					"X closes windows\n"+
					"E opens menu\n\n"+
					"Press F for files")
		}
		g.needsRedraw = true
		return
	case 'm', 'M':
		win := g.CreateWindow("Memory", 60, 50, 200, 70)
		if win >= 0 {
			g.SetContent(win, fmt.Sprintf(
				"Memory:\n\nFree: %d KB\nUsed: %d KB",
				g.alloc.FreePages()*4, g.alloc.UsedPages()*4))
		}
		g.needsRedraw = true
		return
	case 'c', 'C':
		win := g.CreateWindow("Calculator", 100, 40, 120, 90)
		if win >= 0 {
			g.SetContent(win,
				"Calculator\n\n"+
					"Coming soon!\n\n"+
					"Will support:\n"+
					"+ - * /")
		}
		g.needsRedraw = true
		return
	case 'f', 'F':
		g.openFileBrowser()
		g.needsRedraw = true
		return
	}

	if key >= '1' && key <= '8' {
		g.openFile(int(key - '1'))
		g.needsRedraw = true
		return
	}

	// WASD moves the active window by 5 pixels; drawWindow clamps.
	if g.active < 0 {
		return
	}
	w := &g.windows[g.active]
	switch key {
	case 'w', 'W':
		w.Y -= 5
	case 's', 'S':
		w.Y += 5
	case 'a', 'A':
		w.X -= 5
	case 'd', 'D':
		w.X += 5
	default:
		return
	}
	g.needsRedraw = true
}

// openFileBrowser lists the first 8 initrd entries.
func (g *GUI) openFileBrowser() {
	win := g.CreateWindow("Files", 30, 20, 260, 140)
	if win < 0 {
		return
	}
	count := g.fs.FileCount()

	var b strings.Builder
	fmt.Fprintf(&b, "File Browser\n\nFiles: %d\n", count)
	b.WriteString("Press 1-8 to open\n\n")
	for i := 0; i < count && i < 8; i++ {
		f, ok := g.fs.FileInfo(i)
		if !ok {
			continue
		}
		tag := "[   ]"
		if f.IsDir {
			tag = "[DIR]"
		}
		name := f.Name
		if len(name) > 24 {
			name = name[:24]
		}
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, tag, name)
	}
	if count > 8 {
		b.WriteString("\n...more...")
	}
	g.SetContent(win, b.String())
}

// openFile shows a viewer for the initrd entry at index, truncating long
// contents.
func (g *GUI) openFile(index int) {
	f, ok := g.fs.FileInfo(index)
	if !ok {
		return
	}
	if f.IsDir {
		win := g.CreateWindow(f.Name, 60, 50, 200, 80)
		if win >= 0 {
			g.SetContent(win,
				"Directory\n\n"+
					"Directory browsing\n"+
					"not yet implemented.")
		}
		return
	}

	win := g.CreateWindow(f.Name, 20, 15, 280, 160)
	if win < 0 {
		return
	}
	data, ok := g.fs.ReadFileByIndex(index)
	if !ok {
		g.SetContent(win, "Error: Could not read file")
		return
	}
	content := string(data)
	if len(content) > 500 {
		content = content[:500] + "\n\n...truncated..."
	}
	g.SetContent(win, content)
}

// Tick consumes one key, tracks mouse movement, and repaints when dirty.
func (g *GUI) Tick() {
	if g.kb.HasKey() {
		g.HandleKey(g.kb.GetKey())
	}
	if g.mouse != nil {
		if x, y := g.mouse.Position(); x != g.lastMouseX || y != g.lastMouseY {
			g.lastMouseX, g.lastMouseY = x, y
			g.needsRedraw = true
		}
	}
	if g.needsRedraw {
		g.Redraw()
		g.needsRedraw = false
	}
}

// Component wraps the graphical desktop as a registrable kernel component.
// Init opens the welcome and system windows.
func (g *GUI) Component(console io.Writer) kernel.Component {
	return kernel.Component{
		Name:    "gui_desktop",
		Version: semver.MustParse("0.1.0"),
		Init: func() {
			win := g.CreateWindow("Welcome", 15, 6, 200, 100)
			if win >= 0 {
				g.SetContent(win,
					"OpenComp Desktop\n\n"+
						"Press E for menu\n"+
						"Press H for help\n\n"+
						"WASD moves windows")
			}
			win = g.CreateWindow("System", 20, 80, 160, 80)
			if win >= 0 {
				g.SetContent(win,
					"Graphics: 320x200\n"+
						"Mode: VGA 13h\n"+
						"Keyboard: PS/2\n\n"+
						"Press Tab!")
			}
			g.needsRedraw = true
			fmt.Fprint(console, "[gui_desktop] GUI initialized\n")
		},
		Tick: g.Tick,
	}
}
