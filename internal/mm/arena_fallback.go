//go:build !unix

package mm

// mapArena falls back to a heap slice where mmap is not available.
func mapArena(size uint64) ([]byte, func() error, error) {
	return make([]byte, size), func() error { return nil }, nil
}
