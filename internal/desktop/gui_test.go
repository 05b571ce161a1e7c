package desktop

import (
	"archive/tar"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencomp-os/opencomp/internal/input"
	"github.com/opencomp-os/opencomp/internal/mm"
	"github.com/opencomp-os/opencomp/internal/tarfs"
	"github.com/opencomp-os/opencomp/internal/vga"
)

// buildTestArchive writes a ustar archive from name/content pairs, in the
// given order.
func buildTestArchive(t *testing.T, entries map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range order {
		content := entries[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:   name,
			Mode:   0o644,
			Size:   int64(len(content)),
			Format: tar.FormatUSTAR,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func newTestGUI(t *testing.T) (*GUI, *mm.Allocator, *tarfs.FS) {
	t.Helper()
	alloc, err := mm.New(mm.Config{TotalPages: 64, BaseAddress: 0x200000})
	require.NoError(t, err)
	t.Cleanup(func() { alloc.Close() })

	fs := tarfs.New()
	fs.SeedDemo()

	surf := vga.NewSurface()
	kb := input.NewKeyboard(input.NewChanSource(1))
	mouse := input.NewMouse(input.NewChanSource(1))
	return NewGUI(surf, kb, mouse, alloc, fs), alloc, fs
}

func TestGUINewWindowBecomesActive(t *testing.T) {
	g, _, _ := newTestGUI(t)

	assert.Equal(t, 0, g.CreateWindow("a", 10, 10, 100, 60))
	assert.Equal(t, 0, g.ActiveWindow())
	assert.Equal(t, 1, g.CreateWindow("b", 20, 20, 100, 60))
	assert.Equal(t, 1, g.ActiveWindow())
}

func TestGUIWindowSlotsExhaust(t *testing.T) {
	g, _, _ := newTestGUI(t)
	for i := 0; i < maxWindows; i++ {
		require.Equal(t, i, g.CreateWindow("w", 10, 10, 80, 50))
	}
	assert.Equal(t, -1, g.CreateWindow("overflow", 10, 10, 80, 50))
}

func TestGUITabCyclesWindows(t *testing.T) {
	g, _, _ := newTestGUI(t)
	g.CreateWindow("a", 10, 10, 80, 50)
	g.CreateWindow("b", 20, 20, 80, 50)
	g.CreateWindow("c", 30, 30, 80, 50)
	require.Equal(t, 2, g.ActiveWindow())

	g.HandleKey('\t')
	assert.Equal(t, 0, g.ActiveWindow())
	g.HandleKey('\t')
	assert.Equal(t, 1, g.ActiveWindow())
	g.HandleKey('\t')
	assert.Equal(t, 2, g.ActiveWindow())
}

func TestGUITabSkipsClosedSlots(t *testing.T) {
	g, _, _ := newTestGUI(t)
	g.CreateWindow("a", 10, 10, 80, 50)
	g.CreateWindow("b", 20, 20, 80, 50)
	g.CreateWindow("c", 30, 30, 80, 50)

	// Close "b" so slot 1 is a hole.
	g.active = 1
	g.HandleKey('x')
	require.Equal(t, 0, g.ActiveWindow())

	g.HandleKey('\t')
	assert.Equal(t, 2, g.ActiveWindow())
	g.HandleKey('\t')
	assert.Equal(t, 0, g.ActiveWindow())
}

func TestGUITabWithNoWindows(t *testing.T) {
	g, _, _ := newTestGUI(t)
	g.HandleKey('\t')
	assert.Equal(t, -1, g.ActiveWindow())
}

func TestGUICloseActivatesLowestRemaining(t *testing.T) {
	g, _, _ := newTestGUI(t)
	g.CreateWindow("a", 10, 10, 80, 50)
	g.CreateWindow("b", 20, 20, 80, 50)
	require.Equal(t, 1, g.ActiveWindow())

	g.HandleKey('X')
	assert.Equal(t, 0, g.ActiveWindow())
	_, ok := g.Window(1)
	assert.False(t, ok)

	g.HandleKey('x')
	assert.Equal(t, -1, g.ActiveWindow())
}

func TestGUIMenuKeysOpenWindows(t *testing.T) {
	g, alloc, _ := newTestGUI(t)

	_, err := alloc.AllocPage()
	require.NoError(t, err)

	cases := []struct {
		key     byte
		title   string
		content string
	}{
		{'e', "Start Menu", "Applications:"},
		{' ', "Commands", "Tab - Switch"},
		{'h', "Help", "Tab switches windows"},
		{'m', "Memory", "Free: 252 KB"},
		{'c', "Calculator", "Coming soon!"},
	}
	for i, tc := range cases {
		g.HandleKey(tc.key)
		w, ok := g.Window(i)
		require.True(t, ok, "key %q", tc.key)
		assert.Equal(t, tc.title, w.Title)
		assert.Contains(t, w.Content, tc.content)
	}

	// Memory window also reports used pages.
	w, _ := g.Window(3)
	assert.Contains(t, w.Content, "Used: 4 KB")
}

func TestGUIFileBrowserListsEntries(t *testing.T) {
	g, _, _ := newTestGUI(t)
	g.HandleKey('f')

	w, ok := g.Window(0)
	require.True(t, ok)
	assert.Equal(t, "Files", w.Title)
	assert.Contains(t, w.Content, "Files: 4")
	assert.Contains(t, w.Content, "1. [   ] readme.txt")
	assert.Contains(t, w.Content, "3. [DIR] docs/")
	assert.NotContains(t, w.Content, "...more...")
}

func TestGUIFileBrowserTruncatesLongList(t *testing.T) {
	g, _, fs := newTestGUI(t)

	var names []string
	archive := map[string]string{}
	for i := 0; i < 10; i++ {
		name := "file" + string(rune('0'+i)) + ".txt"
		archive[name] = "data"
		names = append(names, name)
	}
	fs.LoadArchive(buildTestArchive(t, archive, names))

	g.HandleKey('f')
	w, _ := g.Window(0)
	assert.Contains(t, w.Content, "Files: 10")
	assert.Contains(t, w.Content, "8. [   ] file7.txt")
	assert.NotContains(t, w.Content, "file8.txt")
	assert.Contains(t, w.Content, "...more...")
}

func TestGUIOpenFileViewer(t *testing.T) {
	g, _, _ := newTestGUI(t)

	g.HandleKey('1')
	w, ok := g.Window(0)
	require.True(t, ok)
	assert.Equal(t, "readme.txt", w.Title)
	assert.Contains(t, w.Content, "Welcome to OpenComp!")
}

func TestGUIOpenDirectoryShowsStub(t *testing.T) {
	g, _, _ := newTestGUI(t)

	g.HandleKey('3') // docs/
	w, ok := g.Window(0)
	require.True(t, ok)
	assert.Equal(t, "docs/", w.Title)
	assert.Contains(t, w.Content, "not yet implemented")
}

func TestGUIOpenFileOutOfRange(t *testing.T) {
	g, _, _ := newTestGUI(t)

	g.HandleKey('8') // only 4 entries seeded
	_, ok := g.Window(0)
	assert.False(t, ok)
}

func TestGUIOpenLargeFileTruncates(t *testing.T) {
	g, _, fs := newTestGUI(t)

	big := strings.Repeat("z", 600)
	fs.LoadArchive(buildTestArchive(t, map[string]string{"big.txt": big},
		[]string{"big.txt"}))

	g.HandleKey('1')
	w, ok := g.Window(0)
	require.True(t, ok)
	assert.Contains(t, w.Content, "...trunc")
	assert.LessOrEqual(t, len(w.Content), 511)
}

func TestGUIWASDMovesActiveWindow(t *testing.T) {
	g, _, _ := newTestGUI(t)
	idx := g.CreateWindow("w", 100, 60, 80, 50)

	g.HandleKey('d')
	g.HandleKey('s')
	w, _ := g.Window(idx)
	assert.Equal(t, 105, w.X)
	assert.Equal(t, 65, w.Y)

	g.HandleKey('a')
	g.HandleKey('w')
	w, _ = g.Window(idx)
	assert.Equal(t, 100, w.X)
	assert.Equal(t, 60, w.Y)
}

func TestGUIDrawClampsWindowOnscreen(t *testing.T) {
	g, _, _ := newTestGUI(t)
	idx := g.CreateWindow("w", 5, 5, 80, 50)

	// Push far off the top-left corner and repaint.
	for i := 0; i < 10; i++ {
		g.HandleKey('a')
		g.HandleKey('w')
	}
	g.Redraw()

	w, _ := g.Window(idx)
	assert.Equal(t, 0, w.X)
	assert.Equal(t, 0, w.Y)
}

func TestGUIRedrawPaintsChrome(t *testing.T) {
	g, _, _ := newTestGUI(t)
	g.CreateWindow("w", 50, 40, 100, 60)
	g.Redraw()

	surf := g.surf
	// Desktop background outside any window.
	assert.Equal(t, byte(colorDesktopBG), surf.PixelAt(300, 10))
	// Titlebar of the active window.
	assert.Equal(t, byte(colorTitlebar), surf.PixelAt(52, 42))
	// Window body below the titlebar.
	assert.Equal(t, byte(colorWindowBG), surf.PixelAt(60, 70))
	// Taskbar band at the bottom.
	assert.Equal(t, byte(colorTaskbar), surf.PixelAt(160, vga.FrameHeight-8))
}

func TestGUITickConsumesKeyAndRepaints(t *testing.T) {
	src := input.NewChanSource(8)
	alloc, err := mm.New(mm.Config{TotalPages: 64, BaseAddress: 0x200000})
	require.NoError(t, err)
	t.Cleanup(func() { alloc.Close() })

	fs := tarfs.New()
	fs.SeedDemo()
	surf := vga.NewSurface()
	kb := input.NewKeyboard(src)
	g := NewGUI(surf, kb, nil, alloc, fs)

	sc, ok := input.ScancodeFor('e')
	require.True(t, ok)
	src.Push(sc)

	kb.Tick()
	g.Tick()

	w, okWin := g.Window(0)
	require.True(t, okWin)
	assert.Equal(t, "Start Menu", w.Title)
	// The repaint happened inside the same tick.
	assert.False(t, g.needsRedraw)
	assert.Equal(t, byte(colorTaskbar), surf.PixelAt(0, vga.FrameHeight-1))
}
