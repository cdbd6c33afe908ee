// Command jsyml converts documents between JSON and YAML and re-renders their
// indentation.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsyml/jsyml/internal/batch"
	"github.com/jsyml/jsyml/internal/config"
	"github.com/jsyml/jsyml/internal/format"
	"github.com/jsyml/jsyml/internal/logging"
	"github.com/jsyml/jsyml/internal/ui"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

var (
	configFile  string
	indentStyle format.IndentStyle

	settings config.Settings
	logger   = log.New(io.Discard, "", 0)
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "jsyml",
	Short: "Convert documents between JSON and YAML",
	Long: `Convert documents between JSON and YAML, optionally re-rendering the
output with a different indent width or with tabs.

JSON input is parsed permissively: comments, trailing commas and unquoted
keys are accepted. When a JSON document with a top-level "$schema" string is
converted to YAML, the output starts with a yaml-language-server directive.

Settings can also come from the environment (JSYML_INDENT, JSYML_INDENT_STYLE,
JSYML_PRUNE, ...) or from a .jsyml.yaml file in the working directory.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Int(config.KeyIndent, 2, "Spaces per nesting level in the output (with --indent-style tab each level is one tab and this is ignored)")
	flags.Var(&indentStyle, config.KeyIndentStyle, "Indent character: space or tab")
	flags.BoolP(config.KeyPrune, "p", false, "Delete each source file after a successful conversion")
	flags.StringVar(&configFile, "config", "", "Config file (default .jsyml.yaml in the working directory)")
	flags.BoolP(config.KeyVerbose, "v", false, "Log progress to stderr")
	flags.String(config.KeyLogFile, "", "Append logs to a rotated file")
	flags.Bool(config.KeyNoColor, false, "Disable coloured output")
}

// setup resolves settings and builds the logger before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	s, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	settings = s

	ui.Init(s.NoColor, os.Stdout)

	logCfg := logging.DefaultConfig()
	logCfg.Verbose = s.Verbose
	logCfg.File = s.LogFile
	logger, closeLog = logging.New(logCfg)

	if s.ConfigFile != "" {
		logger.Printf("Using config %s", s.ConfigFile)
	}
	return nil
}

// batchOptions converts the resolved settings into conversion options.
func batchOptions() batch.Options {
	opts := batch.DefaultOptions()
	opts.Indent = settings.Indent
	opts.Prune = settings.Prune
	opts.KeepGoing = settings.KeepGoing
	opts.Jobs = settings.Jobs
	opts.Logger = logger
	return opts
}

func main() {
	err := rootCmd.Execute()
	_ = closeLog()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
		os.Exit(1)
	}
}
