// Package testutil holds golden-file helpers shared by package tests.
//
// Golden files live in the calling package's testdata directory as
// <name>.golden and hold a JSON object of named float64 values. Run
// `go test ./... -update` to rewrite them from the current results.
package testutil

import (
	"encoding/json"
	"flag"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

var Update = flag.Bool(
	"update",
	false,
	"update golden files",
)

//
// --- Golden file helpers ---
//

func writeGolden(t *testing.T, name string, v any) {
	t.Helper()
	path := filepath.Join("testdata", name+".golden")

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		t.Fatalf("failed to write golden file: %v", err)
	}
}

func loadGolden(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name+".golden")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file: %v", err)
	}
	return b
}

// LoadGoldenValues reads a golden file of named values.
func LoadGoldenValues(t *testing.T, name string) map[string]float64 {
	t.Helper()

	var expected map[string]float64
	if err := json.Unmarshal(loadGolden(t, name), &expected); err != nil {
		t.Fatalf("invalid golden file %s: %v", name, err)
	}
	return expected
}

// CompareWithGolden checks every entry of actual against the golden file within
// an absolute tolerance. Keys present on only one side are reported as failures.
func CompareWithGolden(t *testing.T, name string, actual map[string]float64, tol float64) {
	t.Helper()

	if *Update {
		writeGolden(t, name, actual)
		return
	}

	expected := LoadGoldenValues(t, name)

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			t.Errorf("golden %s: missing result for %q", name, k)
			continue
		}
		if want := expected[k]; math.Abs(got-want) > tol {
			t.Errorf("golden mismatch for %s[%q]: expected %.12f, got %.12f (tol %g)", name, k, want, got, tol)
		}
	}
	for k := range actual {
		if _, ok := expected[k]; !ok {
			t.Errorf("golden %s: unexpected result %q (run with -update)", name, k)
		}
	}
}
