package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/jsyml/jsyml/internal/indent"
)

// parseRelaxedJSON accepts JWCC (JSON with comments and trailing commas)
// through hujson. Anything else is parsed as JSON5, which adds unquoted
// keys, single-quoted strings, hexadecimal numbers, Infinity and NaN.
func parseRelaxedJSON(raw []byte) (*yaml.Node, error) {
	std, err := standardizeJSON(raw)
	if err == nil {
		return decodeJSON(std)
	}
	return parseJSON5(raw)
}

func standardizeJSON(raw []byte) ([]byte, error) {
	v, err := hujson.Parse(raw)
	if err != nil {
		return nil, err
	}
	v.Standardize()
	return v.Pack(), nil
}

// decodeJSON builds a node tree from strict JSON, keeping object members in
// source order.
func decodeJSON(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return root, nil
}

func decodeJSONValue(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			index := make(map[string]int)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				value, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				if i, ok := index[key]; ok {
					n.Content[i+1] = value
					continue
				}
				index[key] = len(n.Content)
				n.Content = append(n.Content, stringNode(key), value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil

		case '[':
			n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for dec.More() {
				value, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)

	case string:
		return stringNode(t), nil
	case json.Number:
		// The tag is left to YAML resolution so the number is emitted plain.
		return &yaml.Node{Kind: yaml.ScalarNode, Value: t.String()}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(t)}, nil
	case nil:
		return nullNode(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// renderCompactJSON serializes root as strict single-line JSON.
func renderCompactJSON(root *yaml.Node) (string, error) {
	data, err := marshalJSON(root)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// renderPrettyJSON serializes root with one member per line at the
// canonical indent width.
func renderPrettyJSON(root *yaml.Node) (string, error) {
	data, err := marshalJSON(root)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", strings.Repeat(" ", indent.CanonicalWidth)); err != nil {
		return "", fmt.Errorf("failed to indent json: %w", err)
	}
	return buf.String(), nil
}

func marshalJSON(root *yaml.Node) ([]byte, error) {
	v, err := jsonValue(root)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// jsonValue converts a node tree into values encoding/json can marshal.
// Scalar mapping keys become their string form; collection keys and keys
// whose string forms collide (1 and "1") are rejected. Numbers that are already valid JSON keep their exact spelling.
func jsonValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar to be rendered as json", key.Line)
			}
			if _, ok := m[key.Value]; ok {
				return nil, fmt.Errorf("line %d: duplicate json key %q", key.Line, key.Value)
			}
			value, err := jsonValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key.Value] = value
		}
		return m, nil

	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			value, err := jsonValue(child)
			if err != nil {
				return nil, err
			}
			s = append(s, value)
		}
		return s, nil

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float":
			if isJSONNumber(n.Value) {
				return json.Number(n.Value), nil
			}
		case "!!str":
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, nil
		}
		return jsonValue(n.Alias)
	}

	return nil, nil
}

func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}
