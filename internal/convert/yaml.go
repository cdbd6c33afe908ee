package convert

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jsyml/jsyml/internal/indent"
)

// parseYAML reads the first document in raw. An empty document is null.
func parseYAML(raw []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return documentRoot(&doc)
}

func documentRoot(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nullNode(), nil
	}
	return canonical(doc.Content[0])
}

// Limits on alias expansion. yaml.v3 does not apply its own alias budget
// when decoding into a yaml.Node.
const (
	maxAliasDepth = 64
	maxAliasNodes = 100_000
)

// canonical returns a copy of n without presentation details: styles,
// comments and anchors are dropped and aliases are expanded. Serializing the
// result therefore depends only on the data.
//
// An alias to one of its own ancestors, nesting deeper than maxAliasDepth,
// or expansion into more than maxAliasNodes nodes is an error.
func canonical(n *yaml.Node) (*yaml.Node, error) {
	c := &canonicalizer{open: make(map[*yaml.Node]bool)}
	return c.copy(n)
}

type canonicalizer struct {
	open       map[*yaml.Node]bool // anchored nodes currently being copied
	aliasDepth int
	expanded   int
}

func (c *canonicalizer) copy(n *yaml.Node) (*yaml.Node, error) {
	if n.Kind == yaml.AliasNode {
		return c.expand(n)
	}

	if c.aliasDepth > 0 {
		c.expanded++
		if c.expanded > maxAliasNodes {
			return nil, fmt.Errorf("line %d: aliases expand to more than %d nodes", n.Line, maxAliasNodes)
		}
	}
	if n.Anchor != "" {
		c.open[n] = true
		defer delete(c.open, n)
	}

	out := &yaml.Node{
		Kind:  n.Kind,
		Tag:   n.ShortTag(),
		Value: n.Value,
	}
	if out.Kind == yaml.ScalarNode && out.Tag == "!!null" {
		out.Value = "null"
	}

	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			cc, err := c.copy(child)
			if err != nil {
				return nil, err
			}
			out.Content[i] = cc
		}
	}
	return out, nil
}

func (c *canonicalizer) expand(alias *yaml.Node) (*yaml.Node, error) {
	switch {
	case alias.Alias == nil:
		return nil, fmt.Errorf("line %d: unknown anchor %q", alias.Line, alias.Value)
	case c.open[alias.Alias]:
		return nil, fmt.Errorf("line %d: alias *%s refers to a node that contains it", alias.Line, alias.Value)
	case c.aliasDepth >= maxAliasDepth:
		return nil, fmt.Errorf("line %d: aliases nested more than %d deep", alias.Line, maxAliasDepth)
	}

	c.aliasDepth++
	defer func() { c.aliasDepth-- }()
	return c.copy(alias.Alias)
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// renderYAML serializes root at the canonical indent width.
func renderYAML(root *yaml.Node) (string, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent.CanonicalWidth)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to flush yaml: %w", err)
	}

	return buf.String(), nil
}
