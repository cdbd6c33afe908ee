package convert

import (
	"github.com/jsyml/jsyml/internal/format"
	"github.com/jsyml/jsyml/internal/indent"
)

// Document converts raw from in to out and reindents the result according to
// spec. It has no side effects; on error no partial output is returned.
func Document(raw []byte, in, out format.Format, spec indent.Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	text, err := Convert(raw, in, out)
	if err != nil {
		return "", err
	}

	return spec.Apply(text), nil
}
