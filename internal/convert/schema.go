package convert

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	schemaKey       = "$schema"
	directivePrefix = "# yaml-language-server: $schema="
)

// SchemaDirective looks for the first top-level "$schema" entry with a string
// value and returns the yaml-language-server comment line for it.
//
// Values spanning several lines cannot live in a comment and never match.
func SchemaDirective(root *yaml.Node) (string, bool) {
	if root == nil || root.Kind != yaml.MappingNode {
		return "", false
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if !isString(key) || key.Value != schemaKey {
			continue
		}
		if !isString(value) || strings.ContainsAny(value.Value, "\r\n") {
			continue
		}
		return directivePrefix + value.Value, true
	}

	return "", false
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}
