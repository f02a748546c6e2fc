package testutils

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/pmezard/go-difflib/difflib"
)

// CheckGoldenFile compares actual with the file at expectFilePath.
// A missing golden file is written (read only) instead, so deleting it refreshes the expectation.
func CheckGoldenFile(t TestingT, actual []byte, expectFilePath string) {
	t.Helper()

	expect, err := os.ReadFile(expectFilePath)
	if os.IsNotExist(err) {
		err = os.MkdirAll(filepath.Dir(expectFilePath), 0755)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(expectFilePath, actual, 0444)
		if err != nil {
			t.Fatal(err)
		}
		t.Logf("golden file %s is created", expectFilePath)
		return
	} else if err != nil {
		t.Error(err)
		return
	}

	if string(expect) != string(actual) {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(expect)),
			B:        difflib.SplitLines(string(actual)),
			FromFile: expectFilePath,
			ToFile:   "actual",
			Context:  5,
		}
		d, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			t.Fatal(err)
		}
		t.Error(d)
	}
}

// CheckGoldenYAML marshals v as YAML and compares it with the golden file.
func CheckGoldenYAML(t TestingT, v interface{}, expectFilePath string) {
	t.Helper()

	b, err := yaml.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}

	CheckGoldenFile(t, b, expectFilePath)
}
