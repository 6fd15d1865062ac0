package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/enumerate"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/pipeline"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	objects   []string
	direction string
	rot1      float64
	rot2      float64
	index     int
	camera    cameraFlags
	output    outputFlags
}

// renderCommand renders exactly one combination.
//
// --objects and --direction are required. Distance comes from the
// config (3 unless overridden), both rotations 0 and a camera in the middle
// of the configured ranges for every parameter not pinned by a flag.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a single two-object scene",
		Example: `  spatialgen render --objects shoe,puma --direction left \
    --object1-rotation 180 --object2-rotation 90 --camera-pan 45`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, "objects", "direction"); err != nil {
				return err
			}
			if len(opts.objects) != 2 {
				return errors.New(errors.ErrCodeInvalidConfig, "--objects needs exactly two ids, got %d", len(opts.objects))
			}
			rel, err := scene.ParseRelation(opts.direction)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "--direction")
			}
			return c.runRender(cmd.Context(), &opts, rel)
		},
	}

	cmd.Flags().StringSliceVar(&opts.objects, "objects", nil, "the two object ids: object1,object2")
	cmd.Flags().StringVar(&opts.direction, "direction", "", "where object2 stands relative to object1: left, right, front, behind")
	cmd.Flags().Float64Var(&opts.rot1, "object1-rotation", 0, "object1 yaw in degrees")
	cmd.Flags().Float64Var(&opts.rot2, "object2-rotation", 0, "object2 yaw in degrees")
	cmd.Flags().IntVar(&opts.index, "index", 0, "image index used in the file name")
	opts.camera.register(cmd.Flags())
	opts.output.register(cmd.Flags())

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts *renderOpts, rel scene.Relation) error {
	logger := loggerFromContext(ctx)

	cat, err := c.openCatalog(opts.output.properties)
	if err != nil {
		return err
	}
	cam := opts.camera.spec().Resolve(c.cfg.Camera)
	comb, err := enumerate.Single(cat, opts.objects[0], opts.objects[1], rel, opts.rot1, opts.rot2, cam)
	if err != nil {
		return err
	}
	comb.Index = opts.index

	ro := opts.output.runnerOpts()
	ro.noCache = true
	runner, release, err := c.newRunner(ctx, cat, ro)
	if err != nil {
		return err
	}
	defer release()

	logger.Debug("rendering", "bucket", comb.Bucket(), "camera", formatCamera(cam))
	spinner := newSpinner(ctx, c.stderr, "Rendering "+comb.Bucket()+"...")
	if stderrIsTerminal() {
		spinner.Start()
	}
	res, err := runner.RunSingle(ctx, comb)
	if stderrIsTerminal() {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	printResult(res)
	return nil
}

// printResult summarises one finished image.
func printResult(res pipeline.Result) {
	rec := res.Record
	printSuccess("Rendered %s", StyleValue.Render(res.Combination.Bucket()))
	printFile(res.ImagePath)
	printFile(res.ScenePath)
	printKeyValue("relation", rec.Relation)
	printKeyValue("camera sees", rec.RelativePerspective.Relation)
	if rec.Captions.Translational != "" {
		printKeyValue("caption", rec.Captions.Translational)
	}
	switch view := rec.RelativePerspective; {
	case view.Ambiguous && (view.Relation == rec.Relation || view.Alternative == rec.Relation):
		printKeyValue("note", "diagonal view, reads as "+view.Relation+" or "+view.Alternative)
	case view.Relation != rec.Relation:
		printWarning("the camera sees %s, not %s", rec.RelativePerspective.Relation, rec.Relation)
	}
	printNextStep("Browse the output", "spatialgen serve --output-scene-dir "+filepath.Dir(filepath.Dir(filepath.Dir(res.ScenePath))))
}
