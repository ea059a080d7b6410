// Package checkers holds quicktest checkers shared by the test suites.
package checkers

import (
	"encoding/json"
	"fmt"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

type jsonPathChecker struct {
	path string
}

// JSONPathEquals checks that the JSON document got (a string or []byte)
// holds the expected value at path. JSON numbers compare as float64.
//
//	c.Assert(body, checkers.JSONPathEquals("$.user.username"), "ada")
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathChecker{path: path}
}

// ArgNames implements qt.Checker.
func (c *jsonPathChecker) ArgNames() []string {
	return []string{"got", "want"}
}

// Check implements qt.Checker.
func (c *jsonPathChecker) Check(got any, args []any, note func(key string, value any)) error {
	var data []byte
	switch v := got.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return qt.BadCheckf("got must be string or []byte, not %T", got)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	value, err := jsonpath.Read(doc, c.path)
	if err != nil {
		note("path", c.path)
		return fmt.Errorf("cannot read path: %w", err)
	}
	note("path", c.path)
	return qt.DeepEquals.Check(value, args, note)
}
