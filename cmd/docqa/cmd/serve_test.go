package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docqa/internal/config"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

func serveConfig(t *testing.T, dir string, watch bool) *config.Config {
	t.Helper()
	configDir = dir
	t.Cleanup(func() { configDir = "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.Snapshot.Watch = watch
	return cfg
}

func TestPrepareServe_MissingSnapshotStarts(t *testing.T) {
	// Given: a project that has never been built
	dir := newProject(t)
	cfg := serveConfig(t, dir, false)

	// When: the server is prepared
	deps, err := prepareServe(context.Background(), cfg)

	// Then: it starts empty and reports the missing snapshot per call
	require.NoError(t, err)
	assert.Nil(t, deps.holder.Load())

	_, err = deps.server.CallTool(context.Background(), "answer_context", map[string]any{"query": "tables"})
	require.Error(t, err)
}

func TestPrepareServe_LoadsSnapshot(t *testing.T) {
	dir := newProject(t)
	_, err := runCLI(t, dir, nil, "build", filepath.Join(dir, "docs"))
	require.NoError(t, err)
	cfg := serveConfig(t, dir, false)

	deps, err := prepareServe(context.Background(), cfg)

	require.NoError(t, err)
	require.NotNil(t, deps.holder.Load())

	results, err := deps.holder.AnswerContext(context.Background(), "keyed tables", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tables", results[0].Header)
}

func TestPrepareServe_CorruptSnapshot(t *testing.T) {
	// Given: a file at the snapshot path that is not a snapshot
	dir := newProject(t)
	path := filepath.Join(dir, ".docqa", "snapshot.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	t.Run("fatal without watch", func(t *testing.T) {
		_, err := prepareServe(context.Background(), serveConfig(t, dir, false))

		require.Error(t, err)
		assert.NotEqual(t, qaerrors.ErrCodeSnapshotNotFound, qaerrors.GetCode(err))
	})

	t.Run("recoverable with watch", func(t *testing.T) {
		deps, err := prepareServe(context.Background(), serveConfig(t, dir, true))

		require.NoError(t, err)
		assert.Nil(t, deps.holder.Load())
	})
}

func TestServeWatcher_PicksUpBuildAfterInitialLoad(t *testing.T) {
	// Given: a server prepared before any snapshot existed
	dir := newProject(t)
	cfg := serveConfig(t, dir, true)
	cfg.Snapshot.WatchDebounce = 10 * time.Millisecond
	deps, err := prepareServe(context.Background(), cfg)
	require.NoError(t, err)
	require.Nil(t, deps.holder.Load())

	// When: a build lands before the watcher starts
	_, err = runCLI(t, dir, nil, "build", filepath.Join(dir, "docs"))
	require.NoError(t, err)

	w, err := deps.newWatcher(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Then: the watcher loads it without a further write
	assert.Eventually(t, func() bool { return deps.holder.Load() != nil }, 5*time.Second, 20*time.Millisecond)
}

func TestRunServe_UnknownTransport(t *testing.T) {
	dir := newProject(t)
	cfg := serveConfig(t, dir, false)
	cfg.Server.Transport = "sse"

	err := runServe(context.Background(), cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}
