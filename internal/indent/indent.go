// Package indent rescales the leading whitespace of an already-serialized
// document.
//
// Serializers in jsyml always emit a canonical two-space indent. Reindenting
// multiplies each line's run of leading spaces by a factor and re-renders it
// with the requested character:
//
//	factor = width / CanonicalWidth
//	count  = floor(leadingSpaces * factor)
//
// The computation is purely textual. Every physical line is treated the same,
// including lines inside YAML block scalars, whose leading spaces are content
// rather than structure. Non-integral factors (width 3 gives 1.5) truncate per
// line, so deep nesting can drift by one column.
package indent

import (
	"fmt"
	"strings"

	"github.com/jsyml/jsyml/internal/format"
)

// CanonicalWidth is the indent unit every serializer emits.
const CanonicalWidth = 2

// Spec describes the requested output indentation.
type Spec struct {
	Width int
	Style format.IndentStyle
}

// DefaultSpec returns the canonical two-space indentation.
func DefaultSpec() Spec {
	return Spec{Width: CanonicalWidth, Style: format.Space}
}

// Validate checks that the width is positive and the style is known.
func (s Spec) Validate() error {
	if s.Width <= 0 {
		return fmt.Errorf("indent width must be positive, got %d", s.Width)
	}
	if _, err := format.ParseIndentStyle(string(s.Style)); err != nil {
		return err
	}
	return nil
}

// Factor returns the multiplier applied to each line's leading-space count.
//
// With tabs a single tab stands for one nesting level, so the factor is
// 1/CanonicalWidth whatever the width; width then only describes how wide an
// editor displays the tab.
func Factor(width int, style format.IndentStyle) float64 {
	if style == format.Tab {
		return 1 / float64(CanonicalWidth)
	}
	return float64(width) / float64(CanonicalWidth)
}

// Rescale recomputes the leading run of spaces in line and renders it with
// style. Only ' ' counts as indentation.
func Rescale(line string, factor float64, style format.IndentStyle) string {
	if style == format.Space && factor == 1 {
		return line
	}

	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}

	count := int(float64(n) * factor)
	if count == n && style == format.Space {
		return line
	}

	return strings.Repeat(string(style.Char()), count) + line[n:]
}

// Reindent applies Rescale to every line of doc. Lines are split and joined
// on "\n" so the line count, and any trailing newline, is preserved.
func Reindent(doc string, width int, style format.IndentStyle) string {
	factor := Factor(width, style)
	if style == format.Space && factor == 1 {
		return doc
	}

	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = Rescale(line, factor, style)
	}
	return strings.Join(lines, "\n")
}

// Apply reindents doc according to s.
func (s Spec) Apply(doc string) string {
	return Reindent(doc, s.Width, s.Style)
}
