package mm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T, pages uint64) *Allocator {
	t.Helper()
	a, err := New(Config{TotalPages: pages, BaseAddress: 0x200000})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

func TestAllocateUntilExhaustion(t *testing.T) {
	const pages = 70 // crosses a bitmap word boundary
	a := newTestAllocator(t, pages)

	seen := make(map[uintptr]bool)
	for i := uint64(0); i < pages; i++ {
		h, err := a.AllocPage()
		require.NoError(t, err)
		require.Equal(t, i, h.Index(), "first-fit must hand out index order")
		require.False(t, seen[h.Addr()], "addresses must be distinct")
		seen[h.Addr()] = true
	}
	require.Equal(t, uint64(0), a.FreePages())

	_, err := a.AllocPage()
	require.ErrorIs(t, err, ErrNoMemory)
}

func TestAddressMapping(t *testing.T) {
	a := newTestAllocator(t, 8)

	h0, err := a.AllocPage()
	require.NoError(t, err)
	h1, err := a.AllocPage()
	require.NoError(t, err)

	require.Equal(t, uintptr(0x200000), h0.Addr())
	require.Equal(t, uintptr(0x200000+PageSize), h1.Addr())
}

func TestZeroOnAllocate(t *testing.T) {
	a := newTestAllocator(t, 4)

	h, err := a.AllocPage()
	require.NoError(t, err)
	for i := range h.Bytes() {
		h.Bytes()[i] = 0xAA
	}
	require.NoError(t, a.FreePage(h))

	h2, err := a.AllocPage()
	require.NoError(t, err)
	require.Equal(t, h.Index(), h2.Index())
	for i, b := range h2.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d not zeroed after reallocation: 0x%02x", i, b)
		}
	}
}

func TestFreeReuseDeterminism(t *testing.T) {
	a := newTestAllocator(t, 16)

	handles := make([]Handle, 16)
	for i := range handles {
		h, err := a.AllocPage()
		require.NoError(t, err)
		handles[i] = h
	}

	// Punch a hole at index 5; first-fit must reproduce exactly that hole.
	require.NoError(t, a.FreePage(handles[5]))
	h, err := a.AllocPage()
	require.NoError(t, err)
	require.Equal(t, uint64(5), h.Index())
	require.Equal(t, handles[5].Addr(), h.Addr())
}

func TestFreeCounterInvariant(t *testing.T) {
	const pages = 64
	a := newTestAllocator(t, pages)

	check := func() {
		require.Equal(t, uint64(pages), a.FreePages()+a.UsedPages())
	}

	var live []Handle
	// Deterministic interleaving of allocs and frees.
	for step := 0; step < 500; step++ {
		if step%3 == 2 && len(live) > 0 {
			h := live[0]
			live = live[1:]
			require.NoError(t, a.FreePage(h))
		} else {
			h, err := a.AllocPage()
			if err != nil {
				require.ErrorIs(t, err, ErrNoMemory)
				require.Equal(t, uint64(0), a.FreePages())
			} else {
				live = append(live, h)
			}
		}
		check()
	}
}

func TestFreeBadHandle(t *testing.T) {
	a := newTestAllocator(t, 4)
	b := newTestAllocator(t, 4)

	require.ErrorIs(t, a.FreePage(Handle{}), ErrBadHandle)

	h, err := b.AllocPage()
	require.NoError(t, err)
	require.ErrorIs(t, a.FreePage(h), ErrBadHandle, "foreign handle must be rejected")
	require.NoError(t, b.FreePage(h))
}

func TestDoubleFreeIsIdempotent(t *testing.T) {
	a := newTestAllocator(t, 4)

	h, err := a.AllocPage()
	require.NoError(t, err)
	require.NoError(t, a.FreePage(h))
	free := a.FreePages()

	// Freeing an already-free page is accepted and changes nothing.
	require.NoError(t, a.FreePage(h))
	require.Equal(t, free, a.FreePages())
	require.Equal(t, a.TotalPages(), a.FreePages()+a.UsedPages())
}

func TestInvalidConfig(t *testing.T) {
	_, err := New(Config{TotalPages: 0})
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, uint64(4096), cfg.TotalPages)
	require.Equal(t, uintptr(0x200000), cfg.BaseAddress)
}
