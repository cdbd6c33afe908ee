// Package watch re-converts documents under a directory tree when they change.
//
// A Watcher adds every directory below its root to an fsnotify watcher
// (fsnotify is not recursive, so directories created later are added as they
// appear). Create and write events for files with a selected extension are
// queued and debounced: a path is converted once it has been quiet for the
// debounce interval, so editors that write a file in several steps trigger a
// single conversion.
//
// Events caused by the watcher's own output are ignored, which keeps in-place
// conversions (yaml to yaml) from looping.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jsyml/jsyml/internal/batch"
	"github.com/jsyml/jsyml/internal/format"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a new file was created.
	OpCreate EventOp = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Config holds configuration for the watcher.
type Config struct {
	// Debounce is how long a path must be quiet before it is converted
	Debounce time.Duration

	// Logger for watcher activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Debounce: 200 * time.Millisecond,
		Logger:   log.New(io.Discard, "", 0),
	}
}

// Watcher converts files under a root as they are created or modified.
type Watcher struct {
	root   string
	exts   map[string]bool
	outExt string
	opts   batch.Options
	config Config

	watcher *fsnotify.Watcher
	results chan batch.FileResult

	mu      sync.Mutex
	pending map[string]time.Time // input path -> last event
	written map[string]time.Time // output path -> last write by us
	running bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Watcher for files under root whose extension is in exts,
// converting each into a sibling with extension outExt.
func New(root string, exts []string, outExt string, opts batch.Options, config Config) (*Watcher, error) {
	if root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}
	parsed, err := format.ParseExtensions(exts)
	if err != nil {
		return nil, err
	}
	outExt = strings.TrimPrefix(outExt, ".")
	if _, ok := format.FromExtension(outExt); !ok {
		return nil, fmt.Errorf("invalid output extension %q", outExt)
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	selected := make(map[string]bool, len(parsed))
	for _, ext := range parsed {
		selected[ext] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:    root,
		exts:    selected,
		outExt:  outExt,
		opts:    opts,
		config:  config,
		watcher: watcher,
		results: make(chan batch.FileResult, 100),
		pending: make(map[string]time.Time),
		written: make(map[string]time.Time),
	}, nil
}

// Results returns the channel that receives one FileResult per conversion.
// It is closed when the watcher stops.
func (w *Watcher) Results() <-chan batch.FileResult {
	return w.results
}

// Start adds the directory tree to the watcher and begins processing events
// in the background.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.addTree(w.root, false); err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true

	w.wg.Add(2)
	go w.watchEvents(ctx)
	go w.processQueue(ctx)

	w.config.Logger.Printf("Watching %s", w.root)
	return nil
}

// Run starts the watcher and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// Stop shuts the watcher down and waits for background work to finish.
// Results is closed afterwards, also when the watcher never started.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.closeResults()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	w.closeResults()

	w.config.Logger.Println("Watcher stopped")
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) closeResults() {
	w.closeOnce.Do(func() { close(w.results) })
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// addTree watches dir and every directory below it. When queue is set,
// matching files found along the way are queued too; this covers directories
// moved into the tree.
func (w *Watcher) addTree(dir string, queue bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if queue && w.selected(path) {
			w.pending[path] = time.Now()
		}
		return nil
	})
}

func (w *Watcher) selected(path string) bool {
	return w.exts[strings.TrimPrefix(filepath.Ext(path), ".")]
}

// watchEvents monitors filesystem events and queues changes.
func (w *Watcher) watchEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
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
			w.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	op, ok := convertOp(event)
	if !ok || op == OpDelete {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if op == OpCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name, true); err != nil {
				w.config.Logger.Printf("Error watching %s: %v", event.Name, err)
			}
			return
		}
	}

	if !w.selected(event.Name) {
		return
	}
	if at, ok := w.written[event.Name]; ok && time.Since(at) < 2*w.config.Debounce {
		return
	}

	w.config.Logger.Printf("File event: %s %s", op, event.Name)
	w.pending[event.Name] = time.Now()
}

// convertOp maps an fsnotify event to an EventOp. Chmod-only events are
// ignored.
func convertOp(event fsnotify.Event) (EventOp, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return OpCreate, true
	case event.Has(fsnotify.Write):
		return OpModify, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return OpDelete, true
	default:
		return 0, false
	}
}

// processQueue converts queued files with debouncing.
func (w *Watcher) processQueue(ctx context.Context) {
	defer w.wg.Done()

	interval := w.config.Debounce / 2
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending converts files that have been queued for long enough.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, queuedAt := range w.pending {
		if now.Sub(queuedAt) < w.config.Debounce {
			continue
		}
		ready = append(ready, path)
		delete(w.pending, path)
	}
	for path, at := range w.written {
		if now.Sub(at) >= 2*w.config.Debounce {
			delete(w.written, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, in := range ready {
		if _, err := os.Stat(in); err != nil {
			continue
		}

		out := batch.OutputPath(in, w.outExt)
		w.markWritten(out)
		pruned, err := batch.ConvertFile(in, out, w.opts)
		w.markWritten(out)

		if err != nil {
			w.config.Logger.Printf("Error converting %s: %v", in, err)
		}

		select {
		case w.results <- batch.FileResult{Input: in, Output: out, Pruned: pruned, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) markWritten(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written[path] = time.Now()
}
