package template

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the template set whenever the templates file changes on disk.
// It blocks until ctx is cancelled. Editors that replace the file via rename
// are handled by watching the parent directory.
func (m *Manager) Watch(ctx context.Context, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logger = logger.With(slog.String("component", "templates"), slog.String("path", m.path))
	logger.Debug("template watcher started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("template watcher stopped")
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != m.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := m.Reload(); err != nil {
				logger.Warn("template reload failed", "error", err)
				continue
			}
			logger.Info("templates reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("template watcher error", "error", err)
		}
	}
}
