package templates

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/yildizm/BlogView/internal/logger"
)

// Watch drops cached views whose files change under dir until ctx is done.
// Subdirectories are watched as well. The returned channel receives the view
// path of every invalidated entry and is closed when watching stops.
func (c *Cache) Watch(ctx context.Context, dir string) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	invalidated := make(chan string, 16)
	go func() {
		defer close(invalidated)
		defer func() {
			if err := watcher.Close(); err != nil {
				c.log.Warn("failed to close watcher: %v", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				rel, err := filepath.Rel(dir, event.Name)
				if err != nil {
					continue
				}
				view, ok := ViewFromResource(rel)
				if !ok || !c.Invalidate(view) {
					continue
				}
				c.log.InfoWithFields("template changed on disk", []logger.Field{logger.View(view)})
				select {
				case invalidated <- view:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Warn("template watcher error: %v", err)
			}
		}
	}()

	return invalidated, nil
}
