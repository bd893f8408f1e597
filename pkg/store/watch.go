package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulekit/pkg/log"
)

// DefaultDebounce is the quiet period after a change before rules reload.
const DefaultDebounce = 100 * time.Millisecond

// WatcherOpt configures a [Watcher].
type WatcherOpt func(*Watcher)

// WithStoreOpts sets the options passed to [Load] on every reload.
func WithStoreOpts(opts ...Opt) WatcherOpt {
	return func(w *Watcher) {
		w.storeOpts = append(w.storeOpts, opts...)
	}
}

// WithDebounce sets the quiet period after a change before rules reload.
func WithDebounce(d time.Duration) WatcherOpt {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// Watcher keeps a [Store] current by reloading it when rule files change.
type Watcher struct {
	tracer    trace.Tracer
	watcher   *fsnotify.Watcher
	current   atomic.Pointer[Store]
	opts      *options
	dirs      []string
	storeOpts []Opt
	listeners []chan<- Event
	debounce  time.Duration
	mu        sync.Mutex
}

// NewWatcher loads the initial [Store] and starts watching its directories.
// Call [Watcher.Run] to process changes and [Watcher.Close] when done.
func NewWatcher(ctx context.Context, dirs []string, opts ...WatcherOpt) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	absDirs := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("resolve rule directory %q: %w", dir, err), fw.Close())
		}

		absDirs = append(absDirs, abs)
	}

	w := &Watcher{
		tracer:   otel.Tracer("rule-watcher"),
		watcher:  fw,
		dirs:     absDirs,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.opts = newOptions(w.storeOpts...)

	s, err := Load(ctx, w.dirs, w.storeOpts...)
	if err != nil {
		return nil, errors.Join(err, fw.Close())
	}

	w.current.Store(s)

	err = w.addWatches(ctx, s)
	if err != nil {
		return nil, errors.Join(err, fw.Close())
	}

	return w, nil
}

// Current returns the latest successfully loaded [Store].
func (w *Watcher) Current() *Store {
	return w.current.Load()
}

// Subscribe registers a channel that receives reload events. Sends block
// until the event is received or the context passed to [Watcher.Run] is
// done, so subscribers should use a buffered channel or drain promptly.
func (w *Watcher) Subscribe(ch chan<- Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.listeners = append(w.listeners, ch)
}

// Reload loads a fresh [Store] and publishes it. On failure the current
// store is kept and an [EventError] is published.
func (w *Watcher) Reload(ctx context.Context) error {
	ctx, span := w.tracer.Start(ctx, "reload")
	defer span.End()

	logger := log.WithContext(ctx)

	s, err := Load(ctx, w.dirs, w.storeOpts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reload rules")

		logger.ErrorContext(ctx, "reload rules", slog.Any("err", err))

		w.broadcast(ctx, NewEventError(ctx, err))

		return err
	}

	w.current.Store(s)

	err = w.addWatches(ctx, s)
	if err != nil {
		logger.WarnContext(ctx, "update rule watches", slog.Any("err", err))
	}

	span.SetAttributes(attribute.Int("rules", s.Len()))
	logger.InfoContext(ctx, "reloaded rules", slog.Int("count", s.Len()))

	w.broadcast(ctx, NewEventReload(ctx, s))

	return nil
}

// Run processes filesystem events until the context is done or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isRelevant(evt) {
				continue
			}

			log.WithContext(ctx).DebugContext(ctx, "rule file changed",
				slog.String("event", evt.String()),
			)

			if timer != nil {
				timer.Stop()
			}

			timer = time.NewTimer(w.debounce)
			pending = timer.C

		case <-pending:
			timer = nil
			pending = nil

			// Errors are published to subscribers.
			_ = w.Reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.broadcast(ctx, NewEventError(ctx, fmt.Errorf("watch rules: %w", err)))
		}
	}
}

// Close stops watching. [Watcher.Run] returns once Close is called.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if err != nil {
		return fmt.Errorf("close fsnotify watcher: %w", err)
	}

	return nil
}

func (w *Watcher) broadcast(ctx context.Context, evt Event) {
	log.WithContext(ctx).DebugContext(ctx, "broadcasting event",
		slog.String("event", fmt.Sprintf("%T", evt)),
	)

	w.mu.Lock()
	listeners := append([]chan<- Event(nil), w.listeners...)
	w.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- evt:
		case <-ctx.Done():
			return
		}
	}
}

// isRelevant reports whether a filesystem event may change the loaded rules.
// Events for paths without an extension are treated as relevant, since they
// may be directories. So are events on a rule directory or one of its
// parents, which may create a directory that did not exist at load time.
func (w *Watcher) isRelevant(evt fsnotify.Event) bool {
	if evt.Op == fsnotify.Chmod {
		return false
	}

	for _, dir := range w.dirs {
		if dir == evt.Name || strings.HasPrefix(dir, evt.Name+string(filepath.Separator)) {
			return true
		}
	}

	for _, legacy := range w.opts.legacyFiles {
		abs, err := filepath.Abs(legacy)
		if err == nil && abs == evt.Name {
			return true
		}
	}

	ext := filepath.Ext(evt.Name)

	return ext == "" || hasExtension(evt.Name, w.opts.extensions)
}

// addWatches watches every directory below the store's rule directories,
// plus the directories containing legacy files. Adding an existing watch is
// a no-op.
func (w *Watcher) addWatches(ctx context.Context, s *Store) error {
	count := 0

	for _, dir := range s.Dirs() {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}

			err = w.watcher.Add(path)
			if err != nil {
				return fmt.Errorf("add path to watcher: %w", err)
			}

			count++

			return nil
		})
		if err != nil {
			return fmt.Errorf("walk %q: %w", dir, err)
		}
	}

	// Rule directories that do not exist yet are watched through their
	// closest existing parent, until a reload finds them.
	for _, dir := range w.dirs {
		if slices.Contains(s.Dirs(), dir) {
			continue
		}

		parent, ok := existingParent(dir)
		if !ok {
			continue
		}

		err := w.watcher.Add(parent)
		if err != nil {
			return fmt.Errorf("add path to watcher: %w", err)
		}

		count++
	}

	for _, legacy := range w.opts.legacyFiles {
		abs, err := filepath.Abs(legacy)
		if err != nil {
			continue
		}

		err = w.watcher.Add(filepath.Dir(abs))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("add path to watcher: %w", err)
		}

		count++
	}

	log.WithContext(ctx).DebugContext(ctx, "added rule watchers",
		slog.Int("count", count),
	)

	return nil
}

// existingParent returns the closest ancestor of path that is a directory.
func existingParent(path string) (string, bool) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			return dir, true
		}

		if filepath.Dir(dir) == dir {
			return "", false
		}
	}
}
