package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/allaspectsdev/canonstore/internal/config"
	"github.com/allaspectsdev/canonstore/internal/store"
)

// NewTestPrimary creates a fresh, empty primary store for testing. There is
// nothing to clean up — store.Primary is a pure in-memory map, with no
// persistence to tear down.
func NewTestPrimary(t *testing.T) *store.Primary {
	t.Helper()
	return store.New()
}

// NewTestConfig returns a minimal valid config for testing.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.DefaultConfig()
}

// TempDir creates a temporary directory for test data.
func TempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}
