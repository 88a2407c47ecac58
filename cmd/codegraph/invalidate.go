package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/websines/codegraph-mcp/internal/projectstate"
	"github.com/websines/codegraph-mcp/internal/store"
)

var flagInvalidateAll bool

var invalidateCmd = &cobra.Command{
	Use:   "invalidate [path] [file]",
	Short: "Drop a file's cached symbols, or the entire project's cache with --all",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runInvalidate,
}

func init() {
	invalidateCmd.Flags().BoolVar(&flagInvalidateAll, "all", false, "drop every symbol and edge for the project")
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	var dirArgs, file []string
	switch {
	case flagInvalidateAll && len(args) >= 1:
		dirArgs = args[:1]
	case !flagInvalidateAll && len(args) == 2:
		dirArgs = args[:1]
		file = args[1:]
	case !flagInvalidateAll && len(args) == 1:
		file = args[:1]
	}

	targetDir, err := resolveTargetDir(dirArgs)
	if err != nil {
		return outputError("invalidate", err)
	}
	layout, err := projectstate.Resolve(targetDir)
	if err != nil {
		return outputError("invalidate", err)
	}

	s, err := store.Open(layout.StoreDBPath)
	if err != nil {
		return outputError("invalidate", err)
	}
	defer s.Close()

	if flagInvalidateAll {
		if err := s.DeleteGraph("code"); err != nil {
			return outputError("invalidate", err)
		}
		for _, fm := range mustListFileMeta(s) {
			_ = s.DeleteFileMeta(fm.Path)
		}
		return outputResult(Result{Command: "invalidate", Results: "cleared entire project cache"})
	}

	if len(file) != 1 {
		return outputError("invalidate", fmt.Errorf("invalidate requires a file argument unless --all is set"))
	}
	relPath := file[0]

	if err := s.DeleteNodesByPrefix(relPath + "::"); err != nil {
		return outputError("invalidate", err)
	}
	if err := s.DeleteNode("file::" + relPath); err != nil {
		return outputError("invalidate", err)
	}
	if err := s.DeleteFileMeta(relPath); err != nil {
		return outputError("invalidate", err)
	}

	return outputResult(Result{Command: "invalidate", Results: fmt.Sprintf("cleared cache for %s", relPath)})
}

func mustListFileMeta(s *store.Store) []*store.FileMeta {
	fm, err := s.ListFileMeta()
	if err != nil {
		return nil
	}
	return fm
}
