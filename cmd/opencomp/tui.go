package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencomp-os/opencomp/internal/input"
)

// consoleModel is the terminal frontend. It shows the newest published frame
// and forwards terminal input as raw device bytes: key presses become PS/2
// scancodes, mouse motion becomes 3-byte mouse packets.
type consoleModel struct {
	frames *frameBus
	keys   *input.ChanSource
	mouse  *input.ChanSource

	frame      string
	lastCellX  int
	lastCellY  int
	haveMouse  bool
	leftButton bool
}

func newConsoleModel(frames *frameBus, keys, mouse *input.ChanSource) *consoleModel {
	return &consoleModel{frames: frames, keys: keys, mouse: mouse}
}

type frameMsg string

func (m *consoleModel) waitForFrame() tea.Msg {
	return frameMsg(<-m.frames.ch)
}

func (m *consoleModel) Init() tea.Cmd {
	return m.waitForFrame
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = string(msg)
		return m, m.waitForFrame

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.pushKey('\n')
		case tea.KeyBackspace:
			m.pushKey('\b')
		case tea.KeyTab:
			m.pushKey('\t')
		case tea.KeySpace:
			m.pushKey(' ')
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				if r < 128 {
					m.pushKey(byte(r))
				}
			}
		}
		return m, nil

	case tea.MouseMsg:
		m.forwardMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m *consoleModel) View() string {
	return m.frame
}

// pushKey translates an ASCII byte back into its set-1 make scancode and
// feeds it to the keyboard port.
func (m *consoleModel) pushKey(c byte) {
	if sc, ok := input.ScancodeFor(c); ok {
		m.keys.Push(sc)
	}
}

// forwardMouse converts terminal cell motion into framebuffer-pixel deltas
// and emits them as mouse packets. The device reports y growing upward, so
// the delta is negated on the way out.
func (m *consoleModel) forwardMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.leftButton = true
		}
	case tea.MouseActionRelease:
		m.leftButton = false
	}

	if !m.haveMouse {
		m.haveMouse = true
		m.lastCellX, m.lastCellY = msg.X, msg.Y
		return
	}

	dx := (msg.X - m.lastCellX) * blockW
	dy := (msg.Y - m.lastCellY) * blockH
	m.lastCellX, m.lastCellY = msg.X, msg.Y

	var buttons byte
	if m.leftButton {
		buttons |= 0x01
	}
	if dx == 0 && dy == 0 && msg.Action == tea.MouseActionMotion {
		return
	}
	pkt := input.Packet(dx, -dy, buttons)
	for _, b := range pkt {
		m.mouse.Push(b)
	}
}
