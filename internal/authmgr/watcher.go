package authmgr

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// StoreWatcher notifies a long-running host when the credential file is
// written by another process, typically the CLI running `agentland auth
// login` or `agentland auth logout` next to it. The host can then reload
// its token state instead of waiting for the next request to fail.
type StoreWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewStoreWatcher creates a watcher for the credential file at path.
// onChange is invoked on every observed write, create, or remove of the
// file; it must be safe to call from the watcher's goroutine.
func NewStoreWatcher(path string, onChange func(), logger *slog.Logger) (*StoreWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &StoreWatcher{
		watcher:  watcher,
		path:     path,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself so recreation after deletion is still observed.
func (w *StoreWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.started = true
	w.done = make(chan struct{})
	go w.loop()

	w.logger.Debug("Credential store watcher started",
		"path", w.path)
	return nil
}

func (w *StoreWatcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug("Credential store changed externally",
				"op", event.Op.String())
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Credential store watcher error",
				"error", err.Error())
		}
	}
}

// Close stops watching and releases the underlying watcher.
func (w *StoreWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.watcher.Close()
	if w.started {
		<-w.done
		w.started = false
	}
	return err
}
