package testutils

import (
	"fmt"
	"regexp"
)

// FindSchemaFileName returns the value of the "# schema: file.graphqls" line in a fixture.
func FindSchemaFileName(t TestingT, source string) string {
	t.Helper()

	value, ok := findCommentValue(t, "schema", source)
	if !ok {
		t.Fatal("schema file directive mismatch")
	}

	return value
}

func findCommentValue(t TestingT, key, source string) (string, bool) {
	t.Helper()

	re, err := regexp.Compile(fmt.Sprintf(`(?m)^# %s:\s*(\S+)$`, regexp.QuoteMeta(key)))
	if err != nil {
		t.Fatal(err)
	}

	ss := re.FindStringSubmatch(source)
	if len(ss) != 2 {
		return "", false
	}

	return ss[1], true
}
