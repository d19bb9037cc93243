package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// newWatchCommand creates the watch command.
func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-parse models on file changes",
		Long: `Watch the models and macros directories and re-parse on change.

Runs an initial parse, then stays in the foreground re-parsing whenever
a .sql file is written or created. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd)
		},
	}

	return cmd
}

func runWatch(cmd *cobra.Command) error {
	cmdCtx, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	logger := cmdCtx.Logger
	out := cmd.OutOrStdout()

	reparse := func() {
		// Reload from scratch so new files and macros are picked up.
		fresh, err := newCommandContext(cmd)
		if err != nil {
			logger.Error("reload failed", "error", err)
			return
		}
		result, err := fresh.Scanner.Scan(cmd.Context(), fresh.Project)
		if err != nil {
			logger.Error("parse failed", "error", err)
			return
		}
		fmt.Fprintf(out, "Parsed %d models\n", len(result.Models))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range []string{cmdCtx.Config.ModelsDir, cmdCtx.Config.MacrosDir} {
		if err := watchDirRecursive(watcher, dir); err != nil {
			logger.Error("failed to watch directory", "dir", dir, "error", err)
			// Don't fail - continue without watching this directory
		}
	}

	reparse()
	fmt.Fprintln(out, "Watching for changes...")

	return watchLoop(cmd.Context(), watcher, logger.Debug, reparse)
}

// watchLoop blocks until ctx is cancelled, debouncing change events.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, debugf func(string, ...any), onChange func()) error {
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".sql" {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				debugf("file changed, re-parsing", "file", event.Name)
				onChange()
			})

		case err := <-watcher.Errors:
			debugf("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
