package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the event burst an editor save emits (write plus
// rename-into-place) into a single reload.
const reloadDebounce = 200 * time.Millisecond

// Watch monitors the sensor hub config at path and calls onChange with each
// successfully reloaded Config. It loads the file once at start so reloads
// can be diffed against the running sensor topology, and runs until ctx is
// cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged, onChange is
// not called, and the previously loaded config stays authoritative.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	last, err := Load(path)
	if err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path, "sensors", len(last.Sensors))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(reloadDebounce)

		case <-pending:
			pending = nil
			// Re-add first in case an atomic save replaced the inode.
			_ = watcher.Add(path)

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}

			added, removed := diffSpecs(last.Sensors, cfg.Sensors)
			slog.Info("config: reloaded",
				"path", path,
				"sensors", len(cfg.Sensors),
				"added", added,
				"removed", removed)
			last = cfg
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// diffSpecs compares two sensor declarations by id and returns the ids
// present only in next (added) and only in prev (removed).
func diffSpecs(prev, next []SensorSpec) (added, removed []string) {
	prevIDs := make(map[string]bool, len(prev))
	for _, s := range prev {
		prevIDs[s.ID] = true
	}
	nextIDs := make(map[string]bool, len(next))
	for _, s := range next {
		nextIDs[s.ID] = true
		if !prevIDs[s.ID] {
			added = append(added, s.ID)
		}
	}
	for _, s := range prev {
		if !nextIDs[s.ID] {
			removed = append(removed, s.ID)
		}
	}
	return added, removed
}
