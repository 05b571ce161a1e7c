package input

import (
	"fmt"
	"io"

	semver "github.com/Masterminds/semver/v3"

	"github.com/opencomp-os/opencomp/internal/kernel"
	"github.com/opencomp-os/opencomp/internal/vga"
)

// Mouse decodes the 3-byte PS/2 packet stream into a clamped screen
// position and button state. The cursor starts centered on the 320x200
// surface. Not safe for concurrent use.
type Mouse struct {
	src     Source
	x, y    int
	buttons byte
	cycle   int
	packet  [3]byte
}

// NewMouse returns a mouse polling the given source.
func NewMouse(src Source) *Mouse {
	return &Mouse{src: src, x: vga.FrameWidth / 2, y: vga.FrameHeight / 2}
}

// Position returns the current cursor position.
func (m *Mouse) Position() (x, y int) {
	return m.x, m.y
}

// Buttons returns the button state: bit 0 left, bit 1 right, bit 2 middle.
func (m *Mouse) Buttons() byte {
	return m.buttons
}

// Consume feeds one byte through the packet state machine. The first packet
// byte must have bit 3 set; bytes that don't are discarded, which re-aligns
// the stream after a desync.
func (m *Mouse) Consume(data byte) {
	switch m.cycle {
	case 0:
		if data&0x08 == 0 {
			return
		}
		m.packet[0] = data
		m.cycle++
	case 1:
		m.packet[1] = data
		m.cycle++
	case 2:
		m.packet[2] = data
		m.cycle = 0
		m.apply()
	}
}

// apply processes one complete packet.
func (m *Mouse) apply() {
	m.buttons = m.packet[0] & 0x07

	dx := int(m.packet[1])
	dy := int(m.packet[2])
	// 9-bit signed deltas: the sign bits live in the first byte.
	if m.packet[0]&0x10 != 0 {
		dx -= 256
	}
	if m.packet[0]&0x20 != 0 {
		dy -= 256
	}

	m.x += dx
	m.y -= dy // device y grows upward, screen y downward

	if m.x < 0 {
		m.x = 0
	}
	if m.x >= vga.FrameWidth {
		m.x = vga.FrameWidth - 1
	}
	if m.y < 0 {
		m.y = 0
	}
	if m.y >= vga.FrameHeight {
		m.y = vga.FrameHeight - 1
	}
}

// Packet builds the 3-byte wire form of one mouse movement, for hosts that
// synthesize the device stream. Deltas are clipped to the 9-bit range.
func Packet(dx, dy int, buttons byte) [3]byte {
	clip := func(v int) int {
		if v < -255 {
			return -255
		}
		if v > 255 {
			return 255
		}
		return v
	}
	dx, dy = clip(dx), clip(dy)

	b0 := byte(0x08) | (buttons & 0x07)
	if dx < 0 {
		b0 |= 0x10
		dx += 256
	}
	if dy < 0 {
		b0 |= 0x20
		dy += 256
	}
	return [3]byte{b0, byte(dx), byte(dy)}
}

// Tick polls at most one byte from the device.
func (m *Mouse) Tick() {
	if b, ok := m.src.Poll(); ok {
		m.Consume(b)
	}
}

// MouseComponent wraps the mouse as a registrable kernel component. The
// original init also performed the enable/command port dance; hosted, there
// is no controller to program.
func MouseComponent(m *Mouse, console io.Writer) kernel.Component {
	return kernel.Component{
		Name:    "mouse",
		Version: semver.MustParse("0.1.0"),
		Init: func() {
			fmt.Fprint(console, "[mouse] PS/2 mouse driver initialized\n")
		},
		Tick: m.Tick,
	}
}
