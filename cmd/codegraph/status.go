package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/websines/codegraph-mcp/internal/projectstate"
	"github.com/websines/codegraph-mcp/internal/store"
)

// StatusReport summarises a project's cached state for `codegraph status`.
type StatusReport struct {
	ProjectRoot     string `json:"project_root"`
	StoreDBPath     string `json:"store_db_path"`
	Indexed         bool   `json:"indexed"`
	CodeNodes       int    `json:"code_nodes"`
	UnresolvedNodes int    `json:"unresolved_nodes"`
	TrackedFiles    int    `json:"tracked_files"`
}

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Report whether a project is indexed and how large its graph is",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("status", err)
	}

	layout, err := projectstate.Resolve(targetDir)
	if err != nil {
		return outputError("status", err)
	}

	report := StatusReport{ProjectRoot: layout.ProjectRoot, StoreDBPath: layout.StoreDBPath}
	if _, err := os.Stat(layout.StoreDBPath); os.IsNotExist(err) {
		return outputResult(Result{Command: "status", Results: report})
	}

	s, err := store.Open(layout.StoreDBPath)
	if err != nil {
		return outputError("status", err)
	}
	defer s.Close()

	nodes, err := s.AllNodes("code")
	if err != nil {
		return outputError("status", err)
	}
	files, err := s.ListFileMeta()
	if err != nil {
		return outputError("status", err)
	}

	unresolved := 0
	for _, n := range nodes {
		if n.Kind == "unresolved" {
			unresolved++
		}
	}

	report.Indexed = true
	report.CodeNodes = len(nodes)
	report.UnresolvedNodes = unresolved
	report.TrackedFiles = len(files)

	return outputResult(Result{Command: "status", Results: report})
}
