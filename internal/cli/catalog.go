package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/catalog"
)

// catalogCommand groups the asset catalog subcommands.
func (c *CLI) catalogCommand() *cobra.Command {
	var properties string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the asset catalog",
	}
	cmd.PersistentFlags().StringVar(&properties, "properties", "", "asset properties file or directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openCatalog(properties)
			if err != nil {
				return err
			}
			fmt.Println(catalogTable(cat.Assets()))
			printDetail("%d assets", cat.Len())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pick",
		Short: "Interactively choose objects for a batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPick(cmd.Context(), properties)
		},
	})

	return cmd
}

func (c *CLI) runPick(ctx context.Context, properties string) error {
	cat, err := c.openCatalog(properties)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newAssetPicker(cat.Assets()), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	m, ok := final.(assetPicker)
	if !ok || !m.confirmed {
		printDetail("No selection made")
		return nil
	}
	ids := m.selectedIDs()
	if len(ids) < 2 {
		printWarning("Pick at least two objects, got %d", len(ids))
		return nil
	}
	printSuccess("Selected %d objects", len(ids))
	printNextStep("Render them", "spatialgen batch --objects "+strings.Join(ids, ","))
	return nil
}

// catalogTable renders assets as a table.
func catalogTable(assets []catalog.Asset) string {
	rows := make([][]string, len(assets))
	for i, a := range assets {
		facing := a.DefaultOrientation
		if facing == "" {
			facing = "-"
		}
		group := a.Group
		if group == "" {
			group = "-"
		}
		rows[i] = []string{
			a.ID,
			group,
			strconv.FormatFloat(a.Scale, 'g', 4, 64),
			strconv.FormatFloat(a.Footprint.HorizontalRadius(), 'f', 2, 64),
			facing,
			a.File,
		}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("ID", "Group", "Scale", "Radius", "Faces", "File").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1: // header
				return styleHeader.Padding(0, 1)
			case col == 2 || col == 3:
				return StyleNumber.Padding(0, 1).Align(lipgloss.Right)
			case col == 5:
				return StyleDim.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		})
	return t.Render()
}
