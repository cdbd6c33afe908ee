// Package convert turns a document in one format into text in another.
//
// Convert is the format bridge: it picks the parser for the input format and
// the serializer for the output format and produces text at the canonical
// two-space indent. Document composes the bridge with the reindenter.
//
// Every parser produces a *yaml.Node tree. The node tree keeps mapping entries
// in source order, which the schema directive lookup depends on.
package convert

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jsyml/jsyml/internal/format"
)

// Pair is an (input, output) format combination.
type Pair struct {
	In  format.Format
	Out format.Format
}

func (p Pair) String() string {
	return fmt.Sprintf("%s to %s", p.In, p.Out)
}

type route struct {
	parse  func(raw []byte) (*yaml.Node, error)
	render func(root *yaml.Node) (string, error)

	// liftSchema prepends the yaml-language-server directive.
	liftSchema bool
}

// JSON output is pretty only when the input was YAML; JSON to JSON is
// compact.
var routes = map[Pair]route{
	{In: format.YAML, Out: format.JSON}: {parse: parseYAML, render: renderPrettyJSON},
	{In: format.JSON, Out: format.YAML}: {parse: parseRelaxedJSON, render: renderYAML, liftSchema: true},
	{In: format.YAML, Out: format.YAML}: {parse: parseYAML, render: renderYAML},
	{In: format.JSON, Out: format.JSON}: {parse: parseRelaxedJSON, render: renderCompactJSON},
}

// Supported reports whether the bridge can convert from in to out.
func Supported(in, out format.Format) bool {
	_, ok := routes[Pair{In: in, Out: out}]
	return ok
}

// Convert parses raw as in and serializes it as out at the canonical indent.
func Convert(raw []byte, in, out format.Format) (string, error) {
	pair := Pair{In: in, Out: out}
	r, ok := routes[pair]
	if !ok {
		return "", &Error{Op: "convert", Kind: ErrUnsupportedPair, Err: fmt.Errorf("%s", pair)}
	}

	root, err := r.parse(raw)
	if err != nil {
		return "", &Error{Op: "parse", Kind: ErrParse, Format: in, Err: err}
	}

	text, err := r.render(root)
	if err != nil {
		return "", &Error{Op: "serialize", Kind: ErrSerialize, Format: out, Err: err}
	}

	if r.liftSchema {
		if directive, ok := SchemaDirective(root); ok {
			text = directive + "\n\n" + text
		}
	}

	return text, nil
}
