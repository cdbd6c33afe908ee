package format

import "fmt"

// IndentStyle is the character used to render leading indentation.
type IndentStyle string

const (
	// Space renders indentation with ' ' characters.
	Space IndentStyle = "space"

	// Tab renders indentation with '\t' characters.
	Tab IndentStyle = "tab"
)

// ParseIndentStyle converts a flag or config value into an IndentStyle.
func ParseIndentStyle(s string) (IndentStyle, error) {
	switch IndentStyle(s) {
	case Space, Tab:
		return IndentStyle(s), nil
	default:
		return "", fmt.Errorf("invalid indent style %q (want space or tab)", s)
	}
}

// Char returns the byte used to render one unit of this style.
func (s IndentStyle) Char() byte {
	if s == Tab {
		return '\t'
	}
	return ' '
}

// String implements pflag.Value.
func (s *IndentStyle) String() string {
	if s == nil || *s == "" {
		return string(Space)
	}
	return string(*s)
}

// Set implements pflag.Value.
func (s *IndentStyle) Set(v string) error {
	parsed, err := ParseIndentStyle(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *IndentStyle) Type() string {
	return "space|tab"
}
