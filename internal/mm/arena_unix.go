//go:build unix

package mm

import (
	"golang.org/x/sys/unix"
)

// mapArena reserves the page arena as an anonymous private mapping so the
// managed memory stays off the Go heap, the way the real allocator owns a
// physical region. The returned release func unmaps it.
func mapArena(size uint64) ([]byte, func() error, error) {
	data, err := unix.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, err
	}
	release := func() error {
		return unix.Munmap(data)
	}
	return data, release, nil
}
