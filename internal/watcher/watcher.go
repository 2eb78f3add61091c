package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// Options configures the watcher.
type Options struct {
	// Debounce is the quiet period before a reload. Default: 500ms
	Debounce time.Duration

	// PollInterval is used when fsnotify is unavailable. Default: 2s
	PollInterval time.Duration

	// ForcePolling skips fsnotify.
	ForcePolling bool

	// TriggerIfPresent reloads once after the watch is armed when the
	// file already exists. Set it when the caller has nothing loaded, so a
	// snapshot written before Run started is not missed.
	TriggerIfPresent bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:     500 * time.Millisecond,
		PollInterval: 2 * time.Second,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.Debounce == 0 {
		o.Debounce = defaults.Debounce
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	return o
}

// ChangeFunc is called after the snapshot file has settled.
type ChangeFunc func(ctx context.Context) error

// SnapshotWatcher calls a ChangeFunc whenever the snapshot file is
// replaced or rewritten.
type SnapshotWatcher struct {
	path     string
	opts     Options
	onChange ChangeFunc
}

// New creates a watcher for the snapshot at path.
func New(path string, opts Options, onChange ChangeFunc) (*SnapshotWatcher, error) {
	if path == "" {
		return nil, qaerrors.ConfigError("snapshot path is required", nil)
	}
	if onChange == nil {
		return nil, qaerrors.InternalError("watcher needs a change callback", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, qaerrors.IOError("resolve snapshot path", err).WithDetail("path", path)
	}
	return &SnapshotWatcher{
		path:     abs,
		opts:     opts.WithDefaults(),
		onChange: onChange,
	}, nil
}

// Run watches until ctx is cancelled. Reload failures are logged and do
// not stop the watcher.
func (w *SnapshotWatcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := NewDebouncer(w.opts.Debounce)
	defer d.Stop()

	// The directory is watched because the file is replaced by rename.
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return qaerrors.IOError("create snapshot directory", err).WithDetail("path", w.path)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	baseline := statFile(w.path)

	mode := "polling"
	if fsw := w.newFsnotify(); fsw != nil {
		mode = "fsnotify"
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.forward(ctx, fsw, d.Trigger)
		}()
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			poll(ctx, w.path, w.opts.PollInterval, baseline, d.Trigger)
		}()
	}

	slog.Info("snapshot_watch_started",
		slog.String("path", w.path),
		slog.String("mode", mode))

	if w.opts.TriggerIfPresent && statFile(w.path).exists {
		d.Trigger()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("snapshot_watch_stopped", slog.String("path", w.path))
			return nil
		case <-d.C():
			if err := w.onChange(ctx); err != nil && ctx.Err() == nil {
				slog.Error("snapshot_reload_failed",
					append([]any{slog.String("path", w.path)}, qaerrors.FormatForLog(err)...)...)
			}
		}
	}
}

// newFsnotify returns a watcher on the snapshot directory, or nil when
// fsnotify cannot be used.
func (w *SnapshotWatcher) newFsnotify() *fsnotify.Watcher {
	if w.opts.ForcePolling {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		err = fsw.Add(filepath.Dir(w.path))
		if err == nil {
			return fsw
		}
		_ = fsw.Close()
	}
	slog.Warn("fsnotify_unavailable",
		slog.String("path", w.path),
		slog.String("error", err.Error()))
	return nil
}

// forward triggers on create and write events for the snapshot file.
func (w *SnapshotWatcher) forward(ctx context.Context, fsw *fsnotify.Watcher, trigger func()) {
	defer func() { _ = fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("snapshot_watch_error", slog.String("error", err.Error()))
		}
	}
}
