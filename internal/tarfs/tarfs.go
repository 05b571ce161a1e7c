// Package tarfs implements the toy initrd filesystem: a flat file table
// parsed from a ustar archive. Lookup is by name or index; there are no
// writes. An optional watcher reloads the table when the backing archive
// changes on disk.
package tarfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	semver "github.com/Masterminds/semver/v3"

	"github.com/opencomp-os/opencomp/internal/kernel"
	"github.com/opencomp-os/opencomp/internal/logger"
)

const (
	blockSize = 512
	maxFiles  = 32
)

// File is one entry of the initrd table.
type File struct {
	Name  string
	Size  int
	Data  []byte
	IsDir bool
}

// FS is the parsed initrd. The watcher goroutine may swap the table while
// the kernel reads it, so access is guarded; everything else in the system
// stays single-threaded.
type FS struct {
	mu     sync.RWMutex
	files  []File
	source string
}

// New returns an empty filesystem.
func New() *FS {
	return &FS{}
}

// LoadArchive replaces the file table with the archive's contents and
// returns the number of entries. Parsing stops at the end-of-archive marker,
// at unparsable data, or at the 32-file table limit.
func (fs *FS) LoadArchive(data []byte) int {
	files := parseTar(data)
	fs.mu.Lock()
	fs.files = files
	fs.mu.Unlock()
	return len(files)
}

// LoadFile loads an archive from disk and remembers the path for Reload.
func (fs *FS) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("tarfs: %w", err)
	}
	n := fs.LoadArchive(data)
	fs.mu.Lock()
	fs.source = path
	fs.mu.Unlock()
	return n, nil
}

// Reload re-reads the archive last loaded with LoadFile.
func (fs *FS) Reload() error {
	fs.mu.RLock()
	path := fs.source
	fs.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("tarfs: no backing archive to reload")
	}
	_, err := fs.LoadFile(path)
	return err
}

// FileCount returns the number of entries.
func (fs *FS) FileCount() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files)
}

// FileInfo returns the entry at index, without its data.
func (fs *FS) FileInfo(index int) (File, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if index < 0 || index >= len(fs.files) {
		return File{}, false
	}
	f := fs.files[index]
	f.Data = nil
	return f, true
}

// ReadFile returns the contents of the named file.
func (fs *FS) ReadFile(name string) ([]byte, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	for _, f := range fs.files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

// ReadFileByIndex returns the contents of the entry at index.
func (fs *FS) ReadFileByIndex(index int) ([]byte, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if index < 0 || index >= len(fs.files) {
		return nil, false
	}
	return fs.files[index].Data, true
}

// SeedDemo installs the built-in demo file set used when no initrd is
// supplied.
func (fs *FS) SeedDemo() {
	readme := []byte("Welcome to OpenComp!\nThis is a test file.\n")
	hello := []byte("Hello from the filesystem!")
	info := []byte("Documentation goes here.\nMore info!")

	fs.mu.Lock()
	fs.files = []File{
		{Name: "readme.txt", Size: len(readme), Data: readme},
		{Name: "hello.txt", Size: len(hello), Data: hello},
		{Name: "docs/", IsDir: true},
		{Name: "docs/info.txt", Size: len(info), Data: info},
	}
	fs.source = ""
	fs.mu.Unlock()
}

// parseTar walks 512-byte ustar headers: name at 0 (NUL-terminated, NUL
// first byte ends the archive), octal size at 124, typeflag at 156 ('5' is
// a directory), magic at 257. Data follows the header, padded to the block
// size. File data is copied out of the archive buffer.
func parseTar(data []byte) []File {
	var files []File
	off := 0
	for off+blockSize <= len(data) && len(files) < maxFiles {
		header := data[off : off+blockSize]
		if header[0] == 0 {
			break
		}
		// Pre-POSIX archives have no magic; anything else is garbage.
		magic := header[257:262]
		if !bytes.Equal(magic, []byte("ustar")) && magic[0] != 0 {
			break
		}

		name := cString(header[0:100])
		size := parseOctal(header[124 : 124+12])
		isDir := header[156] == '5'

		start := off + blockSize
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		contents := make([]byte, end-start)
		copy(contents, data[start:end])

		files = append(files, File{
			Name:  name,
			Size:  size,
			Data:  contents,
			IsDir: isDir,
		})

		blocks := (size + blockSize - 1) / blockSize
		off += blockSize + blocks*blockSize
	}
	return files
}

// parseOctal decodes a leading run of octal digits.
func parseOctal(b []byte) int {
	n := 0
	for _, c := range b {
		if c < '0' || c > '7' {
			break
		}
		n = n*8 + int(c-'0')
	}
	return n
}

// cString returns the bytes up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Component wraps the filesystem as a registrable kernel component. With an
// initrd path the archive is loaded at init; otherwise the demo file set is
// seeded, like the original's placeholder filesystem.
func Component(fs *FS, console io.Writer, initrdPath string) kernel.Component {
	return kernel.Component{
		Name:    "tarfs",
		Version: semver.MustParse("0.1.0"),
		Init: func() {
			fmt.Fprint(console, "[tarfs] TAR filesystem driver initialized\n")
			if initrdPath == "" {
				fmt.Fprint(console, "[tarfs] Creating test filesystem...\n")
				fs.SeedDemo()
				fmt.Fprintf(console, "[tarfs] Test filesystem created with %d files\n",
					fs.FileCount())
				return
			}
			n, err := fs.LoadFile(initrdPath)
			if err != nil {
				fmt.Fprintf(console, "[tarfs] Failed to load initrd: %v\n", err)
				logger.L.Error("initrd load failed", "path", initrdPath, "err", err)
				return
			}
			fmt.Fprintf(console, "[tarfs] Initrd loaded from %s, %d files\n",
				initrdPath, n)
		},
	}
}
