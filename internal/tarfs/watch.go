package tarfs

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/opencomp-os/opencomp/internal/logger"
)

// Watcher reloads the file table whenever the backing archive changes on
// disk. It runs its own goroutine; the FS lock isolates the kernel from the
// table swap.
type Watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching the archive last loaded with LoadFile. Close the
// returned watcher to stop.
func (fs *FS) Watch() (*Watcher, error) {
	fs.mu.RLock()
	path := fs.source
	fs.mu.RUnlock()
	if path == "" {
		return nil, fmt.Errorf("tarfs: no backing archive to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	watcher := &Watcher{w: w, done: make(chan struct{})}
	go watcher.loop(fs)
	return watcher, nil
}

func (w *Watcher) loop(fs *FS) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := fs.Reload(); err != nil {
				logger.L.Error("initrd reload failed", "path", ev.Name, "err", err)
				continue
			}
			logger.L.Info("initrd reloaded", "path", ev.Name, "files", fs.FileCount())
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			logger.L.Error("initrd watcher error", "err", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}
