// Package watch implements the recursive file-system watcher: ignore
// globs, per-path debounce, a stability wait before reading, binary
// vs. text classification, and the line-level diff used to report
// file_change events to the agent client.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is one reported file-system event, shaped to feed directly
// into agent.Client.ReportFileChange.
type Change struct {
	Path         string
	ChangeType   string // "add", "change", "unlink"
	Diff         *string
	LinesAdded   int
	LinesRemoved int
	SizeBefore   *int64
	SizeAfter    *int64
}

// Watcher recursively watches root, debouncing per-path events and
// classifying/diffing stable files before emitting a Change.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func(Change)

	fsWatcher *fsnotify.Watcher
	cache     *contentCache

	mu     sync.Mutex
	timers map[string]*time.Timer

	scanning bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher rooted at root. onChange is invoked from the
// debounce timer's own goroutine — callers needing ordering across
// paths must serialize inside onChange themselves.
func New(root string, onChange func(Change)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:      root,
		debounce:  DefaultDebounce,
		onChange:  onChange,
		fsWatcher: fsWatcher,
		cache:     newContentCache(cacheCapacity),
		timers:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// Start performs the initial recursive scan (registering every
// non-ignored directory with fsnotify and priming the content cache
// for existing text files) and only then begins processing events.
// Files found by the scan are not reported as changes. fsnotify events
// that arrive while the scan runs are not discarded: they are handled
// once the event loop starts.
func (w *Watcher) Start() error {
	w.mu.Lock()
	w.scanning = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return relErr
		}
		if isIgnored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return w.fsWatcher.Add(path)
		}
		w.primeCache(path)
		return nil
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.scanning = false
	w.mu.Unlock()

	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

func (w *Watcher) primeCache(path string) {
	if isBinaryPath(path) {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	w.cache.set(path, string(data))
}

// Stop shuts down the watcher and waits for its event loop to exit.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()

	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch: fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || isIgnored(rel) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := w.fsWatcher.Add(ev.Name); addErr != nil {
				slog.Warn("watch: failed to watch new directory", "path", ev.Name, "err", addErr)
			}
			return
		}
	}

	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.scheduleDebounced(ev.Name, ev.Op)
}

// scheduleDebounced replaces any pending timer for path with a fresh
// one; cross-path events never coalesce.
func (w *Watcher) scheduleDebounced(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.process(path, op)
	})
}

// process waits for the file to stop changing, then classifies and
// diffs it before invoking onChange.
func (w *Watcher) process(path string, op fsnotify.Op) {
	isRemove := op&(fsnotify.Remove|fsnotify.Rename) != 0 && !fileExists(path)
	if !isRemove {
		if !w.waitStable(path) {
			return
		}
	}

	changeType := "change"
	switch {
	case isRemove:
		changeType = "unlink"
	case !w.cacheHasSeen(path) && !isRemove:
		changeType = "add"
	}

	if isBinaryPath(path) {
		w.emitBinary(path, changeType)
		return
	}
	w.emitText(path, changeType)
}

func (w *Watcher) cacheHasSeen(path string) bool {
	_, ok := w.cache.get(path)
	return ok
}

// waitStable polls until path's mtime is unchanged for stabilityWait,
// or returns false if the file vanished while waiting.
func (w *Watcher) waitStable(path string) bool {
	var lastMod time.Time
	stableSince := time.Now()
	for {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.ModTime() != lastMod {
			lastMod = info.ModTime()
			stableSince = time.Now()
		}
		if time.Since(stableSince) >= stabilityWait {
			return true
		}
		time.Sleep(stabilityPoll)
	}
}

func (w *Watcher) emitBinary(path, changeType string) {
	var sizeAfter *int64
	if changeType != "unlink" {
		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("watch: stat failed for binary file", "path", path, "err", err)
			return
		}
		sz := info.Size()
		sizeAfter = &sz
	}
	w.cache.delete(path)
	w.onChange(Change{Path: path, ChangeType: changeType, SizeAfter: sizeAfter})
}

func (w *Watcher) emitText(path, changeType string) {
	switch changeType {
	case "add":
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("watch: read failed", "path", path, "err", err)
			return
		}
		content := string(data)
		w.cache.set(path, content)
		w.onChange(Change{Path: path, ChangeType: "add", LinesAdded: len(strings.Split(content, "\n"))})

	case "unlink":
		prev, _ := w.cache.get(path)
		w.cache.delete(path)
		w.onChange(Change{Path: path, ChangeType: "unlink", LinesRemoved: len(strings.Split(prev, "\n"))})

	default: // "change"
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("watch: read failed", "path", path, "err", err)
			return
		}
		content := string(data)
		prev, hadPrev := w.cache.get(path)
		w.cache.set(path, content)
		if !hadPrev {
			w.onChange(Change{Path: path, ChangeType: "add", LinesAdded: len(strings.Split(content, "\n"))})
			return
		}

		result := computeDiff(prev, content)
		diff := result.Diff
		w.onChange(Change{
			Path: path, ChangeType: "change",
			Diff: &diff, LinesAdded: result.LinesAdded, LinesRemoved: result.LinesRemoved,
		})
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
