package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/websines/codegraph-mcp/internal/config"
	"github.com/websines/codegraph-mcp/internal/indexer"
	"github.com/websines/codegraph-mcp/internal/projectstate"
	"github.com/websines/codegraph-mcp/internal/store"
)

var flagDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a project and incrementally reindex on file changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 500*time.Millisecond, "quiet period before a batch of changes is reindexed")
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("watch", err)
	}

	layout, err := projectstate.Resolve(targetDir)
	if err != nil {
		return outputError("watch", err)
	}
	if err := layout.EnsureDirs(); err != nil {
		return outputError("watch", err)
	}

	cfg, err := config.Load(layout.ConfigPath)
	if err != nil {
		return outputError("watch", err)
	}

	s, err := store.Open(layout.StoreDBPath)
	if err != nil {
		return outputError("watch", err)
	}
	defer s.Close()

	ix := indexer.New(s, cfg.Indexing.Exclude, cfg.Indexing.MaxFileSize)

	if _, err := ix.IndexFull(targetDir); err != nil {
		return outputError("watch", err)
	}
	fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", targetDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return outputError("watch", err)
	}
	defer watcher.Close()

	if err := addDirsRecursively(watcher, targetDir, ix); err != nil {
		return outputError("watch", err)
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !pending {
				timer.Reset(flagDebounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %s\n", err)
		case <-timer.C:
			pending = false
			counters, err := ix.IndexIncremental(targetDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reindex error: %s\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "reindexed: %d files changed, %d removed\n", counters.FilesIndexed, counters.FilesRemoved)
		}
	}
}

// addDirsRecursively registers every non-excluded directory under root
// with watcher, since fsnotify watches are not recursive.
func addDirsRecursively(watcher *fsnotify.Watcher, root string, ix *indexer.Indexer) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != "." {
			for _, component := range strings.Split(rel, string(filepath.Separator)) {
				if ix.Exclude[component] {
					return filepath.SkipDir
				}
			}
		}
		return watcher.Add(path)
	})
}
