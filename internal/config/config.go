// Package config resolves jsyml settings from flags, environment variables,
// an optional config file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jsyml/jsyml/internal/format"
	"github.com/jsyml/jsyml/internal/indent"
)

// EnvPrefix prefixes environment overrides, e.g. JSYML_INDENT_STYLE=tab.
const EnvPrefix = "JSYML"

// FileName is the config file looked up in the working directory when no
// explicit path is given.
const FileName = ".jsyml"

// Keys shared by flags, env and config file.
const (
	KeyIndent      = "indent"
	KeyIndentStyle = "indent-style"
	KeyPrune       = "prune"
	KeyKeepGoing   = "keep-going"
	KeyJobs        = "jobs"
	KeyVerbose     = "verbose"
	KeyLogFile     = "log-file"
	KeyNoColor     = "no-color"
	KeyDebounce    = "debounce"
)

// Settings is the resolved configuration for one invocation.
type Settings struct {
	Indent    indent.Spec
	Prune     bool
	KeepGoing bool
	Jobs      int
	Verbose   bool
	LogFile   string
	NoColor   bool
	Debounce  time.Duration

	// ConfigFile is the config file that was read, if any.
	ConfigFile string
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyIndent, indent.CanonicalWidth)
	v.SetDefault(KeyIndentStyle, string(format.Space))
	v.SetDefault(KeyPrune, false)
	v.SetDefault(KeyKeepGoing, false)
	v.SetDefault(KeyJobs, 1)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyDebounce, 200*time.Millisecond)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file, if present, and resolves Settings. An explicit
// file must exist; the implicit .jsyml.{yaml,yml,json} lookup may find
// nothing.
func Load(v *viper.Viper, file string) (Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	style, err := format.ParseIndentStyle(v.GetString(KeyIndentStyle))
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Indent:     indent.Spec{Width: v.GetInt(KeyIndent), Style: style},
		Prune:      v.GetBool(KeyPrune),
		KeepGoing:  v.GetBool(KeyKeepGoing),
		Jobs:       v.GetInt(KeyJobs),
		Verbose:    v.GetBool(KeyVerbose),
		LogFile:    v.GetString(KeyLogFile),
		NoColor:    v.GetBool(KeyNoColor),
		Debounce:   v.GetDuration(KeyDebounce),
		ConfigFile: v.ConfigFileUsed(),
	}

	if err := s.Indent.Validate(); err != nil {
		return Settings{}, err
	}
	if s.Jobs < 1 {
		return Settings{}, fmt.Errorf("jobs must be at least 1, got %d", s.Jobs)
	}
	if s.Debounce <= 0 {
		return Settings{}, fmt.Errorf("debounce must be positive, got %s", s.Debounce)
	}

	return s, nil
}
