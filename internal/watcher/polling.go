package watcher

import (
	"context"
	"os"
	"time"
)

// fileState is what the poller compares between ticks.
type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// poll calls trigger whenever the file appears, or its size or
// modification time changes, relative to last. The caller takes the
// baseline so that a write racing the goroutine start is still seen.
// Removal is not reported. It returns when ctx is done.
func poll(ctx context.Context, path string, interval time.Duration, last fileState, trigger func()) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := statFile(path)
			if cur.exists && cur != last {
				trigger()
			}
			last = cur
		}
	}
}
