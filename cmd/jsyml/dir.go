package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jsyml/jsyml/internal/batch"
	"github.com/jsyml/jsyml/internal/config"
	"github.com/jsyml/jsyml/internal/convert"
	"github.com/jsyml/jsyml/internal/format"
	"github.com/jsyml/jsyml/internal/ui"
)

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Convert every matching file under a directory",
	Long: `Convert every file under --root whose extension is one of --input.
Each output is written next to its source with the --output extension.

By default the run stops at the first failure. With --keep-going every file
is attempted and all failures are reported at the end.

Examples:
  # All YAML files to JSON
  jsyml dir --root ./config --input yaml,yml --output json

  # JSON to YAML, four workers, delete the sources, report every failure
  jsyml dir -r ./schemas -i json -o yaml --jobs 4 --keep-going --prune`,
	Args: cobra.NoArgs,
	RunE: runDir,
}

func init() {
	addTreeFlags(dirCmd)
	dirCmd.Flags().IntP(config.KeyJobs, "j", 1, "Number of files converted concurrently")
	dirCmd.Flags().BoolP(config.KeyKeepGoing, "k", false, "Convert every file and report all failures")
	dirCmd.Flags().Bool("interactive", false, "Ask before deleting sources when --prune is set")
	rootCmd.AddCommand(dirCmd)
}

// addTreeFlags registers the flags shared by dir and watch.
func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("root", "r", "", "Root directory")
	cmd.Flags().StringSliceP("input", "i", nil, "Extensions to convert (yaml, yml, json); repeatable or comma-separated")
	cmd.Flags().StringP("output", "o", "", "Extension of the converted files")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
}

// treeArgs reads and validates the flags registered by addTreeFlags.
func treeArgs(cmd *cobra.Command) (root string, exts []string, outExt string, err error) {
	root, _ = cmd.Flags().GetString("root")
	inputs, _ := cmd.Flags().GetStringSlice("input")
	outExt, _ = cmd.Flags().GetString("output")

	exts, err = format.ParseExtensions(inputs)
	if err != nil {
		return "", nil, "", &convert.Error{Op: "validate", Kind: convert.ErrInvalidExtension, Err: err}
	}

	outExt = strings.TrimPrefix(outExt, ".")
	if _, ok := format.FromExtension(outExt); !ok {
		return "", nil, "", &convert.Error{Op: "validate", Kind: convert.ErrInvalidExtension,
			Err: fmt.Errorf("output extension %q", outExt)}
	}
	return root, exts, outExt, nil
}

func runDir(cmd *cobra.Command, _ []string) error {
	root, exts, outExt, err := treeArgs(cmd)
	if err != nil {
		return err
	}

	opts := batchOptions()
	out := cmd.OutOrStdout()

	interactive, _ := cmd.Flags().GetBool("interactive")
	if opts.Prune && interactive && ui.IsInteractive() {
		files, err := batch.Find(root, exts)
		if err != nil {
			return err
		}
		ok, err := ui.ConfirmPrune(len(files))
		if err != nil {
			return err
		}
		if !ok {
			opts.Prune = false
			fmt.Fprintf(out, "%s keeping source files\n", ui.RenderWarn("!"))
		}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := batch.Run(ctx, root, exts, outExt, opts)
	printResult(out, result)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", result.Failed, len(result.Files))
	}
	return nil
}

// printResult writes one line per failed file followed by a summary.
func printResult(w io.Writer, result *batch.Result) {
	if result == nil {
		return
	}

	for _, f := range result.Files {
		if f.Err != nil {
			fmt.Fprintf(w, "%s %v\n", ui.RenderFail("✗"), f.Err)
		}
	}

	summary := fmt.Sprintf("Converted %d file(s)", result.Converted)
	if result.Pruned > 0 {
		summary += fmt.Sprintf(", pruned %d", result.Pruned)
	}
	if result.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", result.Failed)
		fmt.Fprintf(w, "%s %s\n", ui.RenderWarn("!"), summary)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ui.RenderPass("✓"), summary)
}
