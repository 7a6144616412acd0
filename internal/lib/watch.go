package lib

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a folder must be quiet after a change before the
// wake fires. Files still being copied in keep resetting it.
const settleDelay = 2 * time.Second

// watchDir returns a channel that receives a value after files in dir are
// created, written, or renamed. Events are coalesced; the channel never
// holds more than one pending wake. Watching stops when ctx is done.
func watchDir(ctx context.Context, dir string) (<-chan struct{}, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer w.Close()
		settle := time.NewTimer(settleDelay)
		settle.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Rename) {
					settle.Reset(settleDelay)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Folder watch error", slog.String("dir", dir), slog.String("error", err.Error()))
			case <-settle.C:
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()
	return wake, nil
}
