package testsupport

import (
	"os"
	"testing"
)

// WriteFile writes contents to path, failing the test on error.
func WriteFile(t testing.TB, path string, contents []byte) {
	t.Helper()

	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
