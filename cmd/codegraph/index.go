package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/websines/codegraph-mcp/internal/config"
	"github.com/websines/codegraph-mcp/internal/indexer"
	"github.com/websines/codegraph-mcp/internal/projectstate"
	"github.com/websines/codegraph-mcp/internal/store"
)

var flagFull bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a project for code graph and symbol search",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagFull, "full", false, "reparse every file, ignoring mtime and content-hash caching")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("index", err)
	}

	layout, err := projectstate.Resolve(targetDir)
	if err != nil {
		return outputError("index", err)
	}
	if err := layout.EnsureDirs(); err != nil {
		return outputError("index", err)
	}

	cfg, err := config.Load(layout.ConfigPath)
	if err != nil {
		return outputError("index", err)
	}

	s, err := store.Open(layout.StoreDBPath)
	if err != nil {
		return outputError("index", err)
	}
	defer s.Close()

	ix := indexer.New(s, cfg.Indexing.Exclude, cfg.Indexing.MaxFileSize)

	var counters indexer.Counters
	if flagFull {
		counters, err = ix.IndexFull(targetDir)
	} else {
		counters, err = ix.IndexIncremental(targetDir)
	}
	if err != nil {
		return outputError("index", err)
	}
	counters.Duration = time.Since(start)

	return outputResult(Result{Command: "index", Results: counters})
}
