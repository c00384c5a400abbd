package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
)

// parseIndex parses an instance index argument.
func parseIndex(arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid instance index %q", arg)
	}
	return idx, nil
}

// checkIndex reports an out-of-range index as an error instead of letting
// the store ignore it.
func checkIndex(l layout.Layout, layoutKey string, idx int) error {
	if idx >= len(l) {
		return errors.New(errors.ErrCodeNotFound, "layout %q has no instance %d (%d instances)", layoutKey, idx, len(l))
	}
	return nil
}

func (c *CLI) splitCommand() *cobra.Command {
	var layoutFlag string

	cmd := &cobra.Command{
		Use:   "split <idx> <horizontal|vertical>",
		Short: "Split a widget cell in two",
		Long: `Split the instance at idx in half. The instance keeps the left or top
half; a new empty cell takes the other half and is appended to the layout.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(grid.Horizontal), string(grid.Vertical)},
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			dir, err := grid.ParseDirection(strings.ToLower(args[1]))
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid direction")
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				key, err := s.layoutKey(layoutFlag)
				if err != nil {
					return err
				}
				l := s.store.Get().Layouts[key]
				if err := checkIndex(l, key, idx); err != nil {
					return err
				}
				if !grid.CanSplit(l[idx].Dim, dir) {
					return errors.New(errors.ErrCodeInvalidInput, "instance %d (%s) is too small to split %s", idx, l[idx].Dim, dir)
				}
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("split %s[%d] %s", key, idx, dir), func() {
					s.store.SplitWidgetInLayout(key, idx, dir)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&layoutFlag, "layout", "l", "", "layout to edit (default: current layout)")
	return cmd
}

func (c *CLI) removeCommand() *cobra.Command {
	var layoutFlag string

	cmd := &cobra.Command{
		Use:   "remove <idx>",
		Short: "Remove a widget cell from a layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				key, err := s.layoutKey(layoutFlag)
				if err != nil {
					return err
				}
				st := s.store.Get()
				l := st.Layouts[key]
				if err := checkIndex(l, key, idx); err != nil {
					return err
				}
				if !st.CanRemoveWidgetFromLayout(key, l[idx].Widget) {
					return errors.New(errors.ErrCodeCannotChange, "%q is the last copy of a widget required in layout %q", l[idx].Widget, key)
				}
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("removed %s[%d]", key, idx), func() {
					s.store.RemoveWidgetFromLayout(key, idx)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&layoutFlag, "layout", "l", "", "layout to edit (default: current layout)")
	return cmd
}

func (c *CLI) switchCommand() *cobra.Command {
	var (
		layoutFlag string
		pick       bool
	)

	cmd := &cobra.Command{
		Use:   "switch <idx> [widget]",
		Short: "Put a different widget into a cell",
		Long: `Put widget into the cell at idx, keeping the cell's position and size.

Without a widget argument, or with --pick, choose from the widgets available
to the layout interactively. Pass "" to clear the cell.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				key, err := s.layoutKey(layoutFlag)
				if err != nil {
					return err
				}
				st := s.store.Get()
				l := st.Layouts[key]
				if err := checkIndex(l, key, idx); err != nil {
					return err
				}
				if !st.CanRemoveWidgetFromLayout(key, l[idx].Widget) {
					return errors.New(errors.ErrCodeCannotChange, "%q is the last copy of a widget required in layout %q", l[idx].Widget, key)
				}

				var widget string
				if len(args) == 2 && !pick {
					widget = args[1]
				} else {
					names := make(map[string]string)
					available := st.AvailableWidgets(key)
					for _, w := range available {
						names[w] = s.store.WidgetName(st.CurrentScene, key, w)
					}
					m, err := tea.NewProgram(NewWidgetPickerModel(key, available, names)).Run()
					if err != nil {
						return fmt.Errorf("widget picker: %w", err)
					}
					sel := m.(WidgetPickerModel).Selected
					if sel == nil {
						printInfo("cancelled")
						return nil
					}
					widget = *sel
				}

				if _, ok := st.Widgets[widget]; !ok && widget != layout.Empty {
					return errors.New(errors.ErrCodeNotFound, "widget %q not found", widget)
				}
				if !st.CanAddWidgetToLayout(key, widget) {
					return errors.New(errors.ErrCodeInvalidInput, "widget %q is not allowed in layout %q", widget, key)
				}
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("%s[%d] is now %q", key, idx, widget), func() {
					s.store.SwitchWidgetInLayout(key, idx, widget)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&layoutFlag, "layout", "l", "", "layout to edit (default: current layout)")
	cmd.Flags().BoolVarP(&pick, "pick", "p", false, "choose the widget interactively")
	return cmd
}
