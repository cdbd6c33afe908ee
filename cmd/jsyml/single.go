package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsyml/jsyml/internal/batch"
	"github.com/jsyml/jsyml/internal/ui"
)

var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Convert a single file",
	Long: `Convert one file. The formats are taken from the file extensions
(.json, .yaml or .yml); both are checked before anything is read.

Examples:
  # JSON to YAML with four-space indentation
  jsyml single --input config.json --output config.yaml --indent 4

  # Reformat YAML in place with tabs
  jsyml single -i values.yml -o values.yml --indent-style tab

  # Convert and delete the source
  jsyml single -i a.yaml -o a.json --prune`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		for _, name := range []string{"input", "output"} {
			path, _ := cmd.Flags().GetString(name)
			if _, _, err := batch.PathFormat(path); err != nil {
				return err
			}
		}
		return nil
	},
	RunE: runSingle,
}

func init() {
	singleCmd.Flags().StringP("input", "i", "", "Input file")
	singleCmd.Flags().StringP("output", "o", "", "Output file")
	_ = singleCmd.MarkFlagRequired("input")
	_ = singleCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(singleCmd)
}

func runSingle(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	pruned, err := batch.ConvertFile(input, output, batchOptions())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s -> %s\n", ui.RenderPass("✓"), input, output)
	if pruned {
		fmt.Fprintf(out, "  %s\n", ui.RenderMuted("removed "+input))
	}
	return nil
}
