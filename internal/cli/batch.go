package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/enumerate"
	"github.com/matzehuels/spatialgen/pkg/pipeline"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

type batchOpts struct {
	space   spaceFlags
	output  outputFlags
	refresh bool
	noCache bool
}

// batchCommand enumerates the combination space and renders it.
func (c *CLI) batchCommand() *cobra.Command {
	var opts batchOpts

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render every combination of the selected objects",
		Long: `Render every (pair, relation, orientation, camera) combination of the selected
objects. Finished combinations are recorded in the completion cache, so an
interrupted batch resumes where it stopped when it is run again with the same
flags. With --render-random that includes --seed: the seed printed at start
is the one to pass. Large runs can be split across processes with
--shard i/n; random shards must all share one --seed.`,
		Example: `  spatialgen batch --objects table,mug,lamp --render-random \
    --max-images 5 --max-camera-configs 4 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), &opts)
		},
	}

	opts.space.register(cmd.Flags())
	opts.output.register(cmd.Flags())
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render combinations finished by earlier runs")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or record completions")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, opts *batchOpts) error {
	logger := loggerFromContext(ctx)

	cat, err := c.openCatalog(opts.output.properties)
	if err != nil {
		return err
	}
	eo, err := c.spaceOptions(&opts.space)
	if err != nil {
		return err
	}
	enum, err := enumerate.New(cat, eo)
	if err != nil {
		return err
	}
	logger.Info("seed", "value", eo.Seed)

	ro := opts.output.runnerOpts()
	ro.refresh = opts.refresh
	ro.noCache = opts.noCache
	runner, release, err := c.newRunner(ctx, cat, ro)
	if err != nil {
		return err
	}
	defer release()

	prog := newProgress(logger)
	report := prog.every(10 * time.Second)
	var spinner *Spinner
	if stderrIsTerminal() && !c.verbose {
		spinner = newSpinner(ctx, c.stderr, "Starting...")
		spinner.Start()
	}
	runner.Progress = func(done, total int, comb scene.Combination, err error) {
		if spinner != nil {
			spinner.SetMessage(fmt.Sprintf("[%d/%d] %s", done, total, comb.Bucket()))
			return
		}
		report(done, total, comb.Bucket())
	}

	stats, err := runner.RunBatch(ctx, enum, pipeline.BatchInfo{Seed: eo.Seed, Shard: eo.Shard})
	if spinner != nil {
		spinner.Stop()
	}
	printBatchStats(stats)
	printDetail("images: %s", runner.Layout.ImageRoot)
	printDetail("scenes: %s", runner.Layout.SceneRoot)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Batch finished, %d new images", stats.Rendered))
	return nil
}
