package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupLoggingWritesToRequestedFile(t *testing.T) {
	dir := t.TempDir()
	logFile = filepath.Join(dir, "server.log")
	defer func() { logFile = "" }()

	logger, cleanup, err := setupLogging()
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hello")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}
