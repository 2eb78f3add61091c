// Package watcher reloads the serving snapshot when it is rebuilt.
//
// SnapshotWatcher observes the snapshot file. fsnotify is used where it is
// available; network mounts and some container volumes fall back to
// polling the file's size and modification time. Bursts of events are
// debounced into a single reload, and a failed reload leaves the previous
// snapshot in service.
//
// Usage:
//
//	r := &watcher.Reloader{Holder: holder, Path: path}
//	w, err := watcher.New(path, watcher.DefaultOptions(), r.Reload)
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx)
package watcher
