package templates

import (
	"context"
	"strings"
	"time"

	"padws/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of write events editors emit when
// saving a file.
const debounceDelay = 500 * time.Millisecond

// Watch re-syncs template files when they change on disk, so template
// edits land without a server restart. It blocks until ctx is
// cancelled.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		logging.Warn("Templates", "Cannot watch template directory %s: %v", l.dir, err)
		<-ctx.Done()
		return nil
	}

	logging.Info("Templates", "Watching %s for template changes", l.dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Templates", "Watcher error: %v", err)

		case <-ticker.C:
			for path, at := range pending {
				if time.Since(at) < debounceDelay {
					continue
				}
				delete(pending, path)
				if err := l.SyncFile(ctx, path); err != nil {
					logging.Error("Templates", err, "Failed to re-sync template %s", path)
				}
			}
		}
	}
}
