package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jsyml/jsyml/internal/batch"
	"github.com/jsyml/jsyml/internal/ui"
	"github.com/jsyml/jsyml/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert matching files under a directory whenever they change",
	Long: `Convert every matching file under --root once, then keep watching the
tree and convert files again as they are created or modified.

Changes are debounced (JSYML_DEBOUNCE, default 200ms) so a file saved in
several steps is converted once. Failures are reported and watching
continues.

Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	addTreeFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	root, exts, outExt, err := treeArgs(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := batchOptions()
	opts.KeepGoing = true

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := batch.Run(ctx, root, exts, outExt, opts)
	printResult(out, result)
	if err != nil {
		return err
	}

	w, err := watch.New(root, exts, outExt, opts, watch.Config{
		Debounce: settings.Debounce,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range w.Results() {
			if r.Err != nil {
				fmt.Fprintf(out, "%s %v\n", ui.RenderFail("✗"), r.Err)
				continue
			}
			fmt.Fprintf(out, "%s %s -> %s\n", ui.RenderPass("✓"), r.Input, r.Output)
		}
	}()

	fmt.Fprintf(out, "%s watching %s (Ctrl+C to stop)\n", ui.RenderAccent("→"), root)
	<-ctx.Done()
	err = w.Stop()
	wg.Wait()
	return err
}
