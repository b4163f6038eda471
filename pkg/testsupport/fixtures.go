package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-pagecache/internal/demo"
)

// UpdateGoldenEnv names the environment variable that rewrites golden files.
const UpdateGoldenEnv = "PAGECACHE_UPDATE_GOLDEN"

// FixturePath returns the path of name inside the package testdata directory.
func FixturePath(name string) string {
	return filepath.Join("testdata", name)
}

// GoldenPath returns the path of name inside testdata/golden.
func GoldenPath(name string) string {
	return filepath.Join("testdata", "golden", name)
}

// LoadFixture reads a fixture file relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON reads a JSON fixture into dest.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, path), dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadSeries reads a JSON array of series and fails on duplicate or zero ids,
// which would collide in write-through keys.
func LoadSeries(t testing.TB, path string) []demo.Series {
	t.Helper()

	var items []demo.Series
	LoadFixtureJSON(t, path, &items)

	seen := make(map[int]struct{}, len(items))
	for _, s := range items {
		if s.ID == 0 {
			t.Fatalf("fixture %s: series %q has no id", path, s.Title)
		}
		if _, dup := seen[s.ID]; dup {
			t.Fatalf("fixture %s: duplicate series id %d", path, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return items
}

// CompareGoldenJSON marshals actual as indented JSON and compares it with the
// golden file at path. Missing golden files are created; set UpdateGoldenEnv
// to rewrite existing ones.
func CompareGoldenJSON(t testing.TB, path string, actual any) {
	t.Helper()

	got, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for golden file %s: %v", path, err)
	}
	got = append(got, '\n')

	want, err := os.ReadFile(path)
	if os.Getenv(UpdateGoldenEnv) != "" || os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("failed to write golden file %s: %v", path, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if !bytes.Equal(got, want) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, want, got)
	}
}
