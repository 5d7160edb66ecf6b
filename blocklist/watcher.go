package blocklist

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/semihalev/zlog/v2"
)

const (
	reloadDelay   = 500 * time.Millisecond
	recheckPeriod = 5 * time.Minute
)

// Watch reloads the rules whenever a rule file in the directory changes,
// and periodically in case events were missed. It blocks until ctx is done.
func (b *BlockList) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(b.dir); err != nil {
		return fmt.Errorf("failed to watch rules directory: %w", err)
	}

	ticker := time.NewTicker(recheckPeriod)
	defer ticker.Stop()

	// bursts of writes collapse into one reload
	debounce := time.NewTimer(reloadDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if isRuleFile(filepath.Base(event.Name)) {
				zlog.Debug("Rule file event", "event", event.String())
				debounce.Reset(reloadDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zlog.Error("Rules watcher error", "error", err.Error())

		case <-debounce.C:
			b.reload()

		case <-ticker.C:
			b.reload()
		}
	}
}

func (b *BlockList) reload() {
	if err := b.Reload(); err != nil {
		zlog.Error("Rules reload failed", "dir", b.dir, "error", err.Error())
	}
}
