package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docqa/internal/corpus"
	"github.com/Aman-CERP/docqa/internal/engine"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/snapshot"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	// When: several triggers arrive back to back
	for i := 0; i < 5; i++ {
		d.Trigger()
	}

	// Then: exactly one signal is emitted
	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("expected a debounced signal")
	}
	select {
	case <-d.C():
		t.Fatal("burst produced more than one signal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	d.Trigger()
	d.Stop()
	d.Trigger()

	select {
	case <-d.C():
		t.Fatal("stopped debouncer emitted a signal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPoll_DetectsNewAndChangedFile(t *testing.T) {
	// Given: a poller whose baseline is a missing file
	path := filepath.Join(t.TempDir(), "snapshot.db")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseline := statFile(path)
	require.False(t, baseline.exists)

	var triggers atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		poll(ctx, path, 10*time.Millisecond, baseline, func() { triggers.Add(1) })
	}()

	// When: the file is created, even before the first tick
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	// Then: creation is reported
	assert.Eventually(t, func() bool { return triggers.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// And: a rewrite with a new size is reported too
	before := triggers.Load()
	require.NoError(t, os.WriteFile(path, []byte("longer content"), 0o644))
	assert.Eventually(t, func() bool { return triggers.Load() > before }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestPoll_UnchangedFileDoesNotTrigger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())

	var triggers atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		poll(ctx, path, 10*time.Millisecond, statFile(path), func() { triggers.Add(1) })
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, triggers.Load())
}

func TestSnapshotWatcher_TriggerIfPresent(t *testing.T) {
	for _, polling := range []bool{false, true} {
		name := "fsnotify"
		if polling {
			name = "polling"
		}
		t.Run(name, func(t *testing.T) {
			// Given: a snapshot written before the watcher starts
			path := filepath.Join(t.TempDir(), "snapshot.db")
			require.NoError(t, os.WriteFile(path, []byte("built"), 0o644))

			var calls atomic.Int32
			w, err := New(path, Options{
				Debounce:         10 * time.Millisecond,
				PollInterval:     10 * time.Millisecond,
				ForcePolling:     polling,
				TriggerIfPresent: true,
			}, func(context.Context) error {
				calls.Add(1)
				return nil
			})
			require.NoError(t, err)

			// When: the watcher runs without any further write
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() { _ = w.Run(ctx) }()

			// Then: it reloads once anyway
			assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	noop := func(context.Context) error { return nil }

	_, err := New("", DefaultOptions(), noop)
	assert.Equal(t, qaerrors.ErrCodeConfigInvalid, qaerrors.GetCode(err))

	_, err = New("snapshot.db", DefaultOptions(), nil)
	assert.Equal(t, qaerrors.ErrCodeInternal, qaerrors.GetCode(err))

	w, err := New("snapshot.db", Options{}, noop)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.path))
	assert.Equal(t, DefaultOptions(), w.opts)
}

func TestSnapshotWatcher_Run(t *testing.T) {
	for _, polling := range []bool{false, true} {
		name := "fsnotify"
		if polling {
			name = "polling"
		}
		t.Run(name, func(t *testing.T) {
			// Given: a running watcher on a snapshot path
			path := filepath.Join(t.TempDir(), "nested", "snapshot.db")
			var calls atomic.Int32
			w, err := New(path, Options{
				Debounce:     10 * time.Millisecond,
				PollInterval: 10 * time.Millisecond,
				ForcePolling: polling,
			}, func(context.Context) error {
				calls.Add(1)
				return errors.New("reload failed")
			})
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			runErr := make(chan error, 1)
			go func() { runErr <- w.Run(ctx) }()

			// When: the file is written
			n := 0
			assert.Eventually(t, func() bool {
				n++
				_ = os.WriteFile(path, []byte{byte(n)}, 0o644)
				return calls.Load() >= 1
			}, 3*time.Second, 20*time.Millisecond)

			// Then: failures do not stop it, and cancellation ends Run cleanly
			cancel()
			select {
			case err := <-runErr:
				assert.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("Run did not return after cancel")
			}
		})
	}
}

func buildAndSave(t *testing.T, path string, pairs ...string) *snapshot.Snapshot {
	t.Helper()
	c := corpus.New()
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Append(pairs[i], pairs[i+1])
	}
	snap, err := snapshot.Build(c, snapshot.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, snapshot.Save(context.Background(), path, snap, time.Second))
	return snap
}

func TestReloader_SwapsEngine(t *testing.T) {
	// Given: an empty holder and a saved snapshot
	path := filepath.Join(t.TempDir(), "snapshot.db")
	buildAndSave(t, path, "Intro", "Namespaces group related functions.")
	holder := engine.NewHolder(nil)
	r := &Reloader{Holder: holder, Path: path, Engine: engine.DefaultOptions()}

	// When: it is reloaded
	require.NoError(t, r.Reload(context.Background()))

	// Then: the holder serves it
	require.NotNil(t, holder.Load())
	assert.Equal(t, 1, holder.Load().Snapshot().Info().Chunks)

	// And: a rebuilt snapshot replaces it
	buildAndSave(t, path,
		"Intro", "Namespaces group related functions.",
		"Advanced", "Q supports vector operations natively.")
	require.NoError(t, r.Reload(context.Background()))
	assert.Equal(t, 2, holder.Load().Snapshot().Info().Chunks)
}

func TestReloader_FailureKeepsCurrentEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	buildAndSave(t, path, "Intro", "Namespaces group related functions.")
	holder := engine.NewHolder(nil)
	r := &Reloader{Holder: holder, Path: path, Engine: engine.DefaultOptions()}
	require.NoError(t, r.Reload(context.Background()))
	current := holder.Load()

	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))
	err := r.Reload(context.Background())

	require.Error(t, err)
	assert.True(t, qaerrors.IsFatal(err))
	assert.Same(t, current, holder.Load())
}

func TestReloader_InvalidEngineOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	buildAndSave(t, path, "Intro", "Namespaces group related functions.")
	holder := engine.NewHolder(nil)
	r := &Reloader{Holder: holder, Path: path, Engine: engine.Options{Window: -1}}

	err := r.Reload(context.Background())

	require.Error(t, err)
	assert.Nil(t, holder.Load())
}

func TestWatcherWithReloader_HotReload(t *testing.T) {
	// Given: a serving holder and a watcher wired to a reloader
	path := filepath.Join(t.TempDir(), "snapshot.db")
	buildAndSave(t, path, "Intro", "Namespaces group related functions.")
	holder := engine.NewHolder(nil)
	r := &Reloader{Holder: holder, Path: path, Engine: engine.DefaultOptions()}
	require.NoError(t, r.Reload(context.Background()))

	w, err := New(path, Options{Debounce: 10 * time.Millisecond, PollInterval: 10 * time.Millisecond}, r.Reload)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// When: the snapshot is rebuilt with a third chunk
	c := corpus.New()
	c.Append("Intro", "Namespaces group related functions.")
	c.Append("Advanced", "Q supports vector operations natively.")
	c.Append("Tables", "Tables are lists of dictionaries.")
	rebuilt, err := snapshot.Build(c, snapshot.DefaultOptions())
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_ = snapshot.Save(ctx, path, rebuilt, time.Second)
		return holder.Load().Snapshot().Info().Chunks == 3
	}, 5*time.Second, 100*time.Millisecond)

	// Then: queries see the new corpus
	results, err := holder.AnswerContext(context.Background(), "tables dictionaries", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tables", results[0].Header)
}
