// Package format defines the closed sets of document formats and indentation
// styles understood by jsyml.
//
// Both sets are defined exactly once here. The two YAML file extensions
// ("yaml" and "yml") collapse into the single YAML format at the boundary;
// callers that need the original spelling (for example to build an output
// path) keep the extension string alongside the Format.
package format

import (
	"fmt"
	"strings"
)

// Format is a serialization family.
type Format string

const (
	// JSON is the JSON family. Input is parsed permissively (relaxed JSON).
	JSON Format = "json"

	// YAML is the YAML family, reachable through both the "yaml" and "yml"
	// extensions.
	YAML Format = "yaml"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	return f == JSON || f == YAML
}

// Extensions lists every recognized file extension, without the leading dot.
var Extensions = []string{"yaml", "yml", "json"}

// FromExtension maps a file extension (without the leading dot) to a Format.
// Matching is case-sensitive.
func FromExtension(ext string) (Format, bool) {
	switch ext {
	case "yaml", "yml":
		return YAML, true
	case "json":
		return JSON, true
	default:
		return "", false
	}
}

// ParseExtensions splits and validates a list of extensions. Each element may
// itself be a comma-separated list. Duplicates are dropped, first occurrence
// wins.
func ParseExtensions(values []string) ([]string, error) {
	seen := make(map[string]bool)
	var exts []string

	for _, v := range values {
		for _, ext := range strings.Split(v, ",") {
			ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
			if ext == "" {
				continue
			}
			if _, ok := FromExtension(ext); !ok {
				return nil, fmt.Errorf("invalid extension %q (want one of %s)", ext, strings.Join(Extensions, ", "))
			}
			if seen[ext] {
				continue
			}
			seen[ext] = true
			exts = append(exts, ext)
		}
	}

	if len(exts) == 0 {
		return nil, fmt.Errorf("no extensions given")
	}
	return exts, nil
}
