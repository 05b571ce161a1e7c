// Package input implements the PS/2 byte-stream decoders of the original
// kernel: set-1 keyboard scancodes into an ASCII ring buffer, and 3-byte
// mouse packets into position and button state. Both poll a byte Source from
// their tick handler, the hosted stand-in for reading the device data port.
package input

import (
	"fmt"
	"io"

	semver "github.com/Masterminds/semver/v3"

	"github.com/opencomp-os/opencomp/internal/kernel"
)

// Source supplies raw device bytes. Poll is non-blocking: it returns the
// next pending byte, or ok=false when the device has nothing, exactly like
// checking the status register before reading the data port.
type Source interface {
	Poll() (b byte, ok bool)
}

// ChanSource adapts a buffered channel into a Source so a host frontend can
// inject device bytes from another goroutine. Push drops when the buffer is
// full, like an overrun on real hardware.
type ChanSource struct {
	ch chan byte
}

// NewChanSource returns a source buffering up to n bytes.
func NewChanSource(n int) *ChanSource {
	return &ChanSource{ch: make(chan byte, n)}
}

// Push offers a byte to the device stream. Returns false when dropped.
func (s *ChanSource) Push(b byte) bool {
	select {
	case s.ch <- b:
		return true
	default:
		return false
	}
}

// Poll implements Source.
func (s *ChanSource) Poll() (byte, bool) {
	select {
	case b := <-s.ch:
		return b, true
	default:
		return 0, false
	}
}

const keyBufferSize = 64

// scancodeToASCII is the set-1 make-code translation table.
var scancodeToASCII = [...]byte{
	0, 0, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', '\b',
	'\t', 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', '\n',
	0, 'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', '\'', '`',
	0, '\\', 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/', 0, '*',
	0, ' ',
}

// ScancodeFor returns the make code producing the given ASCII character,
// for hosts that need to synthesize the device stream from characters.
func ScancodeFor(c byte) (byte, bool) {
	for code, ch := range scancodeToASCII {
		if ch != 0 && ch == c {
			return byte(code), true
		}
	}
	return 0, false
}

// Keyboard decodes scancodes into a fixed ring buffer of ASCII characters.
// When the buffer is full new characters are dropped. Not safe for
// concurrent use; all calls happen on the scheduler goroutine.
type Keyboard struct {
	src      Source
	buf      [keyBufferSize]byte
	readPos  int
	writePos int
}

// NewKeyboard returns a keyboard polling the given source.
func NewKeyboard(src Source) *Keyboard {
	return &Keyboard{src: src}
}

// HasKey reports whether a decoded character is waiting.
func (k *Keyboard) HasKey() bool {
	return k.readPos != k.writePos
}

// GetKey pops the next character, or 0 when the buffer is empty.
func (k *Keyboard) GetKey() byte {
	if !k.HasKey() {
		return 0
	}
	c := k.buf[k.readPos]
	k.readPos = (k.readPos + 1) % keyBufferSize
	return c
}

// Decode feeds one scancode through the state machine. Release codes
// (bit 7 set) and unmapped codes are dropped.
func (k *Keyboard) Decode(scancode byte) {
	if scancode&0x80 != 0 {
		return
	}
	if int(scancode) >= len(scancodeToASCII) {
		return
	}
	c := scancodeToASCII[scancode]
	if c == 0 {
		return
	}
	next := (k.writePos + 1) % keyBufferSize
	if next == k.readPos {
		return // buffer full, drop
	}
	k.buf[k.writePos] = c
	k.writePos = next
}

// Tick polls at most one byte from the device, like one pass of the original
// status-register check.
func (k *Keyboard) Tick() {
	if b, ok := k.src.Poll(); ok {
		k.Decode(b)
	}
}

// KeyboardComponent wraps the keyboard as a registrable kernel component.
func KeyboardComponent(k *Keyboard, console io.Writer) kernel.Component {
	return kernel.Component{
		Name:    "keyboard",
		Version: semver.MustParse("0.1.0"),
		Init: func() {
			fmt.Fprint(console, "[keyboard] PS/2 keyboard driver initialized\n")
		},
		Tick: k.Tick,
	}
}
