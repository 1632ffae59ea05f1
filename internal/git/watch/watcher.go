// Package watch notifies subscribers when repository metadata changes on
// disk, so the editor layer can refresh state without polling.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okanester/gitbridge/internal/logstream"
)

// debounceInterval coalesces bursts of metadata writes (a single checkout
// touches HEAD, index, and several refs) into one notification.
const debounceInterval = 250 * time.Millisecond

// Event signals that the watched repository's metadata changed.
type Event struct {
	Root string // Repository root whose state changed
	Path string // The metadata path that triggered the notification
}

// Watcher watches a repository's control directory (HEAD, index,
// FETCH_HEAD, refs/) and emits debounced change events.
type Watcher struct {
	root   string
	dotGit string
	sink   *logstream.Sink

	fsw    *fsnotify.Watcher
	events chan Event

	mu       sync.Mutex
	debounce *time.Timer
	lastPath string

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for the repository rooted at root with control
// directory dotGit. The sink may be nil.
func New(root, dotGit string, sink *logstream.Sink) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:   root,
		dotGit: dotGit,
		sink:   sink,
		fsw:    fsw,
		events: make(chan Event, 16),
		stopCh: make(chan struct{}),
	}

	// The control directory itself catches HEAD, index, packed-refs and
	// FETCH_HEAD writes; refs/ needs its subtree watched as well.
	if err := fsw.Add(dotGit); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watchRecursive(filepath.Join(dotGit, "refs"))

	return w, nil
}

// Events is the stream of debounced change notifications. It is closed
// by Stop.
func (w *Watcher) Events() <-chan Event { return w.events }

// Start launches the event loop.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop tears the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.fsw.Close()

		w.mu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) loop() {
	defer close(w.events)
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ignoredMetadataPath(ev.Name) {
				continue
			}
			// New directories under refs/ need their own watches.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.watchRecursive(ev.Name)
				}
			}
			w.schedule(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.sink != nil {
				w.sink.Log(logstream.LevelWarn, "", "repository watcher error", "error", err.Error())
			}
		}
	}
}

// schedule arms (or re-arms) the debounce timer for a change at path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastPath = path
	if w.debounce != nil {
		w.debounce.Reset(debounceInterval)
		return
	}
	w.debounce = time.AfterFunc(debounceInterval, func() {
		w.mu.Lock()
		path := w.lastPath
		w.debounce = nil
		w.mu.Unlock()

		select {
		case w.events <- Event{Root: w.root, Path: path}:
		case <-w.stopCh:
		}
	})
}

func (w *Watcher) watchRecursive(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = w.fsw.Add(path)
		}
		return nil
	})
}

// ignoredMetadataPath filters out transient lock and temp files whose
// churn carries no state change worth reporting.
func ignoredMetadataPath(path string) bool {
	base := filepath.Base(path)
	return filepath.Ext(base) == ".lock" || base == "index.lock"
}
