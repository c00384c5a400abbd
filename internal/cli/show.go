package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/config"
	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/store"
)

// cellSymbols label instances on the board, by index.
const cellSymbols = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func symbol(idx int) rune {
	if idx < len(cellSymbols) {
		return rune(cellSymbols[idx])
	}
	return '#'
}

// renderBoard draws l on an xSize × ySize grid, one character per cell.
// Each instance is filled with its index symbol; free cells are '.'.
// Later instances overwrite earlier ones where they overlap.
func renderBoard(l layout.Layout, xSize, ySize int) string {
	cells := make([][]rune, ySize)
	for y := range cells {
		cells[y] = []rune(strings.Repeat(".", xSize))
	}
	for i, inst := range l {
		d := grid.FitDim(inst.Dim, xSize, ySize)
		if !d.IsVisible() {
			continue
		}
		for y := d.Y; y < d.Y+d.H; y++ {
			for x := d.X; x < d.X+d.W; x++ {
				cells[y][x] = symbol(i)
			}
		}
	}
	lines := make([]string, ySize)
	for y, row := range cells {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

// instanceRows lists the instances of a layout for the instance table.
func instanceRows(s *store.Store[config.Widget], sceneKey, layoutKey string, l layout.Layout) [][]string {
	rows := make([][]string, 0, len(l))
	for i, inst := range l {
		name := "(empty)"
		if inst.Widget != layout.Empty {
			name = s.WidgetName(sceneKey, layoutKey, inst.Widget)
		}
		rows = append(rows, []string{
			string(symbol(i)),
			strconv.Itoa(i),
			inst.Widget,
			name,
			inst.Dim.String(),
		})
	}
	return rows
}

func instanceTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Idx", "Widget", "Name", "Dim").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (c *CLI) showCommand() *cobra.Command {
	var layoutFlag string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Draw a layout and list its widgets",
		Long: `Draw a layout on the grid and list its widget instances.

Each instance is drawn with the symbol in the first table column. The
instance index is what split, remove, and switch expect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				key, err := s.layoutKey(layoutFlag)
				if err != nil {
					return err
				}
				st := s.store.Get()
				l := st.Layouts[key]

				fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("Layout %s", key)))
				printDetail("scene %s · grid %dx%d · %d instances", st.CurrentScene, st.XSize, st.YSize, len(l))
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, renderBoard(l, st.XSize, st.YSize))
				fmt.Fprintln(stdout)
				if len(l) > 0 {
					fmt.Fprintln(stdout, instanceTable(instanceRows(s.store, st.CurrentScene, key, l)))
				}
				if scenes := st.ScenesForLayout(key); len(scenes) > 0 {
					printKeyValue("scenes", strings.Join(scenes, ", "))
				}
				printKeyValue("available", strings.Join(st.AvailableWidgets(key), ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&layoutFlag, "layout", "l", "", "layout to show (default: current layout)")
	return cmd
}
