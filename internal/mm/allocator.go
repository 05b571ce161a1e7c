// Package mm implements the OpenComp physical page allocator: a fixed-size
// arena carved into 4 KiB pages, tracked free/used with one bit per page and
// handed out first-fit. Allocation state lives in an Allocator instance so
// independent arenas can coexist (and be tested) side by side.
package mm

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/opencomp-os/opencomp/internal/logger"
)

// PageSize is the fixed allocation unit in bytes.
const PageSize = 4096

var (
	// ErrNoMemory is returned when no free page exists. The allocator never
	// blocks or retries; the caller decides how to degrade.
	ErrNoMemory = errors.New("mm: out of physical pages")
	// ErrBadHandle is returned for a handle that does not belong to this
	// allocator. The original silently ignored out-of-range frees; typed
	// handles turn that into a detectable error.
	ErrBadHandle = errors.New("mm: handle does not belong to this allocator")
)

// Config carries allocator construction parameters.
type Config struct {
	// TotalPages is the number of managed pages.
	TotalPages uint64
	// BaseAddress is the nominal physical address of page 0. Page addresses
	// are BaseAddress + index*PageSize; the value is reporting-only in a
	// hosted build.
	BaseAddress uintptr
}

// DefaultConfig mirrors the original layout: 16 MiB of managed memory
// starting after the kernel image.
func DefaultConfig() Config {
	return Config{
		TotalPages:  4096,
		BaseAddress: 0x200000,
	}
}

// Handle identifies one allocated page. The zero Handle is invalid. Handles
// are required for freeing, so a stale or foreign handle is a validation
// error rather than silent address arithmetic.
type Handle struct {
	owner *Allocator
	index uint64
}

// Index returns the page index within the arena.
func (h Handle) Index() uint64 {
	return h.index
}

// Addr returns the page's nominal physical address, or 0 for an invalid
// handle.
func (h Handle) Addr() uintptr {
	if h.owner == nil {
		return 0
	}
	return h.owner.cfg.BaseAddress + uintptr(h.index)*PageSize
}

// Bytes exposes the page contents. The slice aliases the arena; it stays
// valid until the page is freed. Returns nil for an invalid handle.
func (h Handle) Bytes() []byte {
	if h.owner == nil {
		return nil
	}
	off := h.index * PageSize
	return h.owner.arena[off : off+PageSize]
}

// Allocator is a first-fit bitmap page allocator. It is not safe for
// concurrent use; under the cooperative kernel every call happens on the
// single scheduler goroutine.
type Allocator struct {
	cfg       Config
	bitmap    []uint64 // one bit per page, 1 = used
	freeCount uint64
	arena     []byte
	release   func() error
}

// New builds an allocator with every page free.
func New(cfg Config) (*Allocator, error) {
	if cfg.TotalPages == 0 {
		return nil, fmt.Errorf("mm: invalid page count %d", cfg.TotalPages)
	}

	arena, release, err := mapArena(cfg.TotalPages * PageSize)
	if err != nil {
		return nil, fmt.Errorf("mm: arena: %w", err)
	}

	words := (cfg.TotalPages + 63) / 64
	a := &Allocator{
		cfg:       cfg,
		bitmap:    make([]uint64, words),
		freeCount: cfg.TotalPages,
		arena:     arena,
		release:   release,
	}

	// Pages past TotalPages in the last word do not exist; keep their bits
	// permanently set so the scan never hands them out.
	if tail := cfg.TotalPages % 64; tail != 0 {
		a.bitmap[words-1] = ^uint64(0) << tail
	}

	logger.L.Debug("mm arena mapped",
		"pages", cfg.TotalPages, "bytes", cfg.TotalPages*PageSize)
	return a, nil
}

// AllocPage returns the lowest-indexed free page, marked used and zeroed.
// The scan is first-fit over index order, so identical alloc/free sequences
// always produce identical handle sequences.
func (a *Allocator) AllocPage() (Handle, error) {
	for w, word := range a.bitmap {
		if word == ^uint64(0) {
			continue
		}
		bit := bits.TrailingZeros64(^word)
		idx := uint64(w)*64 + uint64(bit)
		a.bitmap[w] |= 1 << uint(bit)
		a.freeCount--

		page := a.arena[idx*PageSize : (idx+1)*PageSize]
		for i := range page {
			page[i] = 0
		}
		return Handle{owner: a, index: idx}, nil
	}
	return Handle{}, ErrNoMemory
}

// FreePage returns a page to the free pool. Freeing an already-free page is
// accepted and does nothing, matching the bitmap semantics of the original;
// the free counter only moves when the bit actually flips.
func (a *Allocator) FreePage(h Handle) error {
	if h.owner != a || h.index >= a.cfg.TotalPages {
		return ErrBadHandle
	}
	w, bit := h.index/64, h.index%64
	if a.bitmap[w]&(1<<bit) == 0 {
		return nil
	}
	a.bitmap[w] &^= 1 << bit
	a.freeCount++
	return nil
}

// FreePages returns the number of free pages. O(1); reporting only, never
// consulted for admission control.
func (a *Allocator) FreePages() uint64 {
	return a.freeCount
}

// UsedPages returns the number of allocated pages.
func (a *Allocator) UsedPages() uint64 {
	return a.cfg.TotalPages - a.freeCount
}

// TotalPages returns the managed page count.
func (a *Allocator) TotalPages() uint64 {
	return a.cfg.TotalPages
}

// BaseAddress returns the nominal address of page 0.
func (a *Allocator) BaseAddress() uintptr {
	return a.cfg.BaseAddress
}

// Close releases the arena mapping. The allocator must not be used after.
func (a *Allocator) Close() error {
	if a.release == nil {
		return nil
	}
	release := a.release
	a.release = nil
	a.arena = nil
	return release()
}
