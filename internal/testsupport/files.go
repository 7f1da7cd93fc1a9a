package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteSegmentFile creates a rendered-segment stand-in named <key>.mp4 under
// dir with the requested byte count and returns its path. A size <= 0 writes
// a single byte so the file never looks like a failed render.
func WriteSegmentFile(t testing.TB, dir, key string, size int64) string {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, key+".mp4")
	if err := os.WriteFile(path, bytes.Repeat([]byte("v"), int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
