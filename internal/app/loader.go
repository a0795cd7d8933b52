package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/philipparndt/goifc/pkg/watcher"
)

// setupFileWatcher creates the watcher used to reload the open model when
// it changes on disk
func (app *App) setupFileWatcher(ctx context.Context) error {
	if !app.FileWatch.enabled {
		return nil
	}

	// Create file watcher with 500ms debounce
	fw, err := watcher.NewFileWatcher(500 * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.Start(ctx)
	app.FileWatch.fileWatcher = fw
	return nil
}

// watchFile points the watcher at path, replacing the previous file
func (app *App) watchFile(path string) {
	fw := app.FileWatch.fileWatcher
	if fw == nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		slog.Warn("cannot watch file", "path", path, "error", err)
		return
	}
	if abs == app.FileWatch.watched {
		return
	}
	if app.FileWatch.watched != "" {
		if err := fw.Unwatch(app.FileWatch.watched); err != nil {
			slog.Debug("unwatch failed", "path", app.FileWatch.watched, "error", err)
		}
		app.FileWatch.watched = ""
	}

	reloads := app.FileWatch.reloads
	callback := func(changedFile string) {
		fmt.Printf("\nFile changed: %s\n", changedFile)
		select {
		case reloads <- changedFile:
		default:
		}
	}
	if err := fw.Watch([]string{abs}, callback); err != nil {
		slog.Warn("cannot watch file", "path", abs, "error", err)
		return
	}
	app.FileWatch.watched = abs
	fmt.Printf("Watching file for changes: %s\n", abs)
}

// handleReloads reopens the watched file after it changed. Runs on the main
// thread.
func (app *App) handleReloads() {
	select {
	case path := <-app.FileWatch.reloads:
		if path != app.FileWatch.watched {
			return
		}
		fmt.Println("Reloading model...")
		app.session.Open(path)
	default:
	}
}

func (app *App) closeFileWatcher() {
	if app.FileWatch.fileWatcher == nil {
		return
	}
	if err := app.FileWatch.fileWatcher.Close(); err != nil {
		slog.Debug("closing file watcher", "error", err)
	}
	app.FileWatch.fileWatcher = nil
}
