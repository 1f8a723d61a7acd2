// Package jsonpath extracts values from JSON documents using JSONPath
// expressions, translated onto gjson paths.
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract returns the value at the given JSONPath expression as a string.
// Supported syntax is the common subset: $.a.b, $.items[0].name, $['a'].
func Extract(doc, path string) (string, error) {
	if doc == "" {
		return "", fmt.Errorf("empty JSON document")
	}
	if path == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}

	result := gjson.Get(doc, toGjsonPath(path))
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// toGjsonPath converts a JSONPath expression to gjson syntax:
// $.users[0].name becomes users.0.name.
func toGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	// Bracket notation: ['name'], ["name"], [0].
	replacer := strings.NewReplacer("['", ".", "']", "", `["`, ".", `"]`, "", "[", ".", "]", "")
	path = replacer.Replace(path)
	return strings.TrimPrefix(path, ".")
}
