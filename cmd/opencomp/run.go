package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/opencomp-os/opencomp/internal/desktop"
	"github.com/opencomp-os/opencomp/internal/input"
	"github.com/opencomp-os/opencomp/internal/kernel"
	"github.com/opencomp-os/opencomp/internal/logger"
	"github.com/opencomp-os/opencomp/internal/mm"
	"github.com/opencomp-os/opencomp/internal/tarfs"
	"github.com/opencomp-os/opencomp/internal/vga"
)

var runFlags struct {
	pages  uint64
	tick   time.Duration
	initrd string
	gui    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the kernel",
	Long: "Boot assembles the component table (memory, keyboard, mouse, tarfs,\n" +
		"desktop, display), runs every init once in table order, then ticks the\n" +
		"components round-robin forever. Ctrl+C or Esc exits.",
	RunE: runKernel,
}

func init() {
	runCmd.Flags().Uint64Var(&runFlags.pages, "pages", mm.DefaultConfig().TotalPages,
		"number of managed physical pages")
	runCmd.Flags().DurationVar(&runFlags.tick, "tick", kernel.DefaultTickInterval,
		"delay between scheduler passes")
	runCmd.Flags().StringVar(&runFlags.initrd, "initrd", "",
		"tar archive to mount as the initrd (watched for changes)")
	runCmd.Flags().BoolVar(&runFlags.gui, "gui", false,
		"boot into the graphical desktop instead of the text desktop")
	rootCmd.AddCommand(runCmd)
}

func runKernel(cmd *cobra.Command, args []string) error {
	alloc, err := mm.New(mm.Config{
		TotalPages:  runFlags.pages,
		BaseAddress: mm.DefaultConfig().BaseAddress,
	})
	if err != nil {
		return err
	}
	// No Close here: the scheduler goroutine keeps ticking components that
	// touch page memory until the process exits, so the arena must outlive
	// this function. Process exit reclaims the mapping.

	console := vga.NewTextBuffer()
	keySrc := input.NewChanSource(256)
	kb := input.NewKeyboard(keySrc)
	mouseSrc := input.NewChanSource(256)
	mouse := input.NewMouse(mouseSrc)
	fs := tarfs.New()

	// Load the initrd up front so the watcher has a backing file; the tarfs
	// component re-reads it at init, which is harmless.
	if runFlags.initrd != "" {
		if _, err := fs.LoadFile(runFlags.initrd); err != nil {
			return err
		}
		watcher, err := fs.Watch()
		if err != nil {
			return fmt.Errorf("initrd watch: %w", err)
		}
		defer watcher.Close()
	}

	frames := newFrameBus()

	components := []kernel.Component{
		mm.Component(alloc, console),
		input.KeyboardComponent(kb, console),
		input.MouseComponent(mouse, console),
		tarfs.Component(fs, console, runFlags.initrd),
	}

	var render func() string
	if runFlags.gui {
		surf := vga.NewSurface()
		gui := desktop.NewGUI(surf, kb, mouse, alloc, fs)
		components = append(components, gui.Component(console))
		render = func() string { return renderSurface(surf) }
	} else {
		desk := desktop.NewManager(console, kb, alloc)
		components = append(components, desk.Component(console))
		render = func() string { return renderText(console) }
	}
	components = append(components, displayComponent(render, frames))

	sched := kernel.New(kernel.NewTable(components...), kernel.Config{
		Console: console,
		Clock:   kernel.NewTickerClock(runFlags.tick),
	})

	// The scheduler owns all kernel state and never returns; the terminal
	// frontend only exchanges rendered frames and raw device bytes with it.
	go func() {
		if err := sched.Boot(); err != nil {
			logger.L.Error("boot failed", "err", err)
		}
	}()

	model := newConsoleModel(frames, keySrc, mouseSrc)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if runFlags.gui {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	_, err = tea.NewProgram(model, opts...).Run()
	return err
}
