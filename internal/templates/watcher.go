package templates

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"socratic/internal/logging"
)

// Watcher watches a pack directory for changes and hot-reloads templates
// into the library. Rapid saves are debounced so an editor writing a file
// in chunks triggers one reload, not five.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	library     *Library
	dir         string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for health reporting and tests.
type WatcherStats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Reloads       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// NewWatcher creates a watcher over dir feeding the given library.
// debounce <= 0 uses a 500ms default.
func NewWatcher(dir string, lib *Library, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:     fsw,
		library:     lib,
		dir:         dir,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the pack directory. Non-blocking; the event loop
// runs in its own goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		logging.TemplatesWarn("watcher: failed to create pack dir %s: %v (continuing anyway)", w.dir, err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		logging.TemplatesWarn("watcher: initial watch failed (dir may not exist): %v", err)
	} else {
		logging.Templates("watcher: watching pack directory: %s", w.dir)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.TemplatesError("watcher: error closing: %v", err)
	}
	logging.Templates("watcher: stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a copy of the current watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// run is the watcher event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Debounced events are flushed on a fixed cadence rather than with
	// per-file timers.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.TemplatesDebug("watcher: context cancelled")
			return

		case <-w.stopCh:
			logging.TemplatesDebug("watcher: stop signal received")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				logging.TemplatesDebug("watcher: event channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				logging.TemplatesDebug("watcher: error channel closed")
				return
			}
			logging.TemplatesError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced()
		}
	}
}

// handleEvent records a pack-file event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isPackFile(event.Name) {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // Ignore chmod, etc.
	}

	logging.TemplatesDebug("watcher: %s event for %s", eventType, event.Name)

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType

	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}

	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebounced reloads files whose events have settled past the
// debounce window.
func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	toProcess := make([]string, 0)
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toProcess = append(toProcess, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toProcess {
		w.reload(path)
	}
}

// reload loads one settled pack file into the library, or drops its
// templates if the file is gone.
func (w *Watcher) reload(path string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			w.library.ReplaceSource(PackSource(path), nil)
			logging.Templates("watcher: pack removed, templates dropped: %s", path)
			logging.Audit().PackLoaded(path, 0, true, "pack file removed")
			w.mu.Lock()
			w.stats.Reloads++
			w.mu.Unlock()
			return
		}
		logging.TemplatesError("watcher: stat %s failed: %v", path, err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	n, err := loadPackInto(path, w.library)
	if err != nil {
		logging.TemplatesError("watcher: reload failed: %v", err)
		logging.Audit().PackLoaded(path, 0, false, err.Error())
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	logging.Templates("watcher: reloaded %d templates from %s", n, path)
	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()
}
