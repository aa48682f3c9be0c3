// Package watcher monitors the local query roots and reports changes to
// entries that a suffix/ancestor query would match.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/CageChen/pathquery/internal/config"
	"github.com/CageChen/pathquery/internal/pathquery"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

// String returns the wire name of the event type.
func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is a change to a matching entry.
type Event struct {
	Type EventType
	Path string
	// Alias and Rel locate Path inside a configured root.
	Alias string
	Rel   string
	// Ancestor is the nearest ancestor named like the configured filter, if any.
	// AncestorRel is the same directory relative to the root; it starts with
	// ".." when the ancestor lies above the root.
	Ancestor    string
	AncestorRel string
}

// Callback is a function called when matching entries change
type Callback func(Event)

// Watcher monitors file system changes below the configured local roots.
// It keeps its own copy of the roots; changes made after New reach it through
// AddRoot and RemoveRoot.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	logger    *log.Logger
	roots     []config.Root
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
}

// New creates a new file system watcher
func New(cfg *config.Config, logger *log.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	wt := &Watcher{
		watcher: w,
		cfg:     cfg,
		logger:  logger,
		done:    make(chan struct{}),
	}
	// git_ref roots read from the object database and have nothing to watch
	for _, root := range cfg.Roots {
		if root.GitRef == "" {
			wt.roots = append(wt.roots, root)
		}
	}
	return wt, nil
}

// OnChange registers a callback for change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start adds every directory below the local roots and begins dispatching events.
func (w *Watcher) Start() error {
	for _, root := range w.rootList() {
		w.addTree(root.Path)
	}

	go w.eventLoop()
	return nil
}

// AddRoot starts watching a root added after New. git_ref roots are ignored.
func (w *Watcher) AddRoot(root config.Root) {
	if root.GitRef != "" {
		return
	}
	w.mu.Lock()
	w.roots = append(w.roots, root)
	w.mu.Unlock()

	w.addTree(root.Path)
	w.logger.Debug("root watched", "alias", root.Alias, "path", root.Path)
}

// RemoveRoot stops watching root. Directories still covered by another root
// stay watched.
func (w *Watcher) RemoveRoot(root config.Root) {
	if root.GitRef != "" {
		return
	}
	w.mu.Lock()
	kept := w.roots[:0:0]
	for _, r := range w.roots {
		if r.Path != root.Path || r.Alias != root.Alias {
			kept = append(kept, r)
		}
	}
	w.roots = kept
	w.mu.Unlock()

	for _, dir := range w.watcher.WatchList() {
		if !within(root.Path, dir) {
			continue
		}
		if alias, _, _ := w.locate(dir); alias != "" {
			continue
		}
		if err := w.watcher.Remove(dir); err != nil {
			w.logger.Debug("cannot unwatch", "path", dir, "error", err)
		}
	}
	w.logger.Debug("root unwatched", "alias", root.Alias, "path", root.Path)
}

func (w *Watcher) rootList() []config.Root {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]config.Root(nil), w.roots...)
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.watcher.WatchList()
}

func (w *Watcher) addTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("cannot walk", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.cfg.IsExcluded(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("cannot watch", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("failed to walk root", "path", dir, "error", err)
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.cfg.IsExcluded(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
		if isDir(event.Name) {
			w.addTree(event.Name)
		}
	case event.Has(fsnotify.Write):
		eventType = EventWrite
	case event.Has(fsnotify.Remove):
		eventType = EventRemove
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return
	}

	e, ok := w.match(eventType, event.Name)
	if !ok {
		return
	}
	w.logger.Debug("change", "event", e.Type, "path", e.Path)

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// match applies the configured suffix and ancestor filters to path.
func (w *Watcher) match(eventType EventType, path string) (Event, bool) {
	if !w.cfg.HasWatchedSuffix(path) {
		return Event{}, false
	}
	e := Event{Type: eventType, Path: path}
	if w.cfg.Ancestor != "" {
		ancestor, ok := pathquery.GetAncestor(path, w.cfg.Ancestor)
		if !ok {
			return Event{}, false
		}
		e.Ancestor = ancestor
	}
	var rootPath string
	e.Alias, e.Rel, rootPath = w.locate(path)
	if e.Ancestor != "" && e.Alias != "" {
		if r, err := filepath.Rel(rootPath, e.Ancestor); err == nil {
			e.AncestorRel = filepath.ToSlash(r)
		}
	}
	return e, true
}

// locate finds the watched root containing path.
func (w *Watcher) locate(path string) (alias, rel, rootPath string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, root := range w.roots {
		if !within(root.Path, path) {
			continue
		}
		r, _ := filepath.Rel(root.Path, path)
		return root.Alias, filepath.ToSlash(r), root.Path
	}
	return "", "", ""
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	r, err := filepath.Rel(root, path)
	return err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
