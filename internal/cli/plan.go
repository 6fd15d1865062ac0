package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/enumerate"
)

type planOpts struct {
	space      spaceFlags
	properties string
	list       bool
}

// planCommand prints the size of the combination space without rendering.
func (c *CLI) planCommand() *cobra.Command {
	var opts planOpts

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a batch would render",
		Long: `Show the combination space a batch with the same flags would render: pairs,
orientations per relation, camera configurations and totals. With --list the
combinations of the selected shard are printed one per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), &opts)
		},
	}

	opts.space.register(cmd.Flags())
	cmd.Flags().StringVar(&opts.properties, "properties", "", "asset properties file or directory")
	cmd.Flags().BoolVar(&opts.list, "list", false, "print every combination")

	return cmd
}

func (c *CLI) runPlan(ctx context.Context, opts *planOpts) error {
	cat, err := c.openCatalog(opts.properties)
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
	loggerFromContext(ctx).Debug("plan", "seed", eo.Seed)

	fmt.Println(planTable(enum.Sizes()))
	cams := enum.Cameras()
	printKeyValue("pairs", strconv.Itoa(enum.Pairs()))
	printKeyValue("cameras", strconv.Itoa(len(cams)))
	printKeyValue("total", strconv.Itoa(enum.Total()))
	printKeyValue("this run", fmt.Sprintf("%d (shard %s)", enum.Len(), eo.Shard))
	for i, cam := range cams {
		printDetail("camera %d: %s", i, formatCamera(cam))
	}

	if opts.list {
		fmt.Println()
		for comb := range enum.All() {
			fmt.Printf("%s %-28s %7.2f %7.2f  cam %d\n",
				StyleNumber.Render(fmt.Sprintf("%06d", comb.Index)),
				comb.Bucket(), comb.Rotation1, comb.Rotation2, comb.CameraIndex)
		}
	}
	return nil
}

// planTable renders the per-pair breakdown.
func planTable(sizes []enumerate.PairSize) string {
	rows := make([][]string, len(sizes))
	for i, s := range sizes {
		rows[i] = []string{s.Object1, s.Object2, strconv.Itoa(s.Orientations), strconv.Itoa(s.Combinations)}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("Object 1", "Object 2", "Orientations", "Combinations").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return styleHeader.Padding(0, 1)
			}
			if col >= 2 {
				return StyleNumber.Padding(0, 1).Align(lipgloss.Right)
			}
			return StyleValue.Padding(0, 1)
		})
	return t.Render()
}
