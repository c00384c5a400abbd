package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/config"
	"github.com/matzehuels/tessera/pkg/errors"
)

func (c *CLI) widgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "List, define, and delete widgets",
	}

	cmd.AddCommand(c.widgetListCommand())
	cmd.AddCommand(c.widgetSetCommand())
	cmd.AddCommand(c.widgetDeleteCommand())

	return cmd
}

func (c *CLI) widgetListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List widget definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				st := s.store.Get()
				fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("Widgets (%d)", len(st.Widgets))))
				for _, key := range st.WidgetKeys() {
					w := st.Widgets[key]
					line := fmt.Sprintf("  %-20s %s", key, StyleValue.Render(w.Name))
					if !st.CanDeleteWidget(key) {
						line += " " + styleRequired.Render("required")
					}
					fmt.Fprintln(stdout, line)
					if w.Data != "" {
						printDetail("  %s", w.Data)
					}
				}
				return nil
			})
		},
	}
}

func (c *CLI) widgetSetCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "set <key> [name]",
		Short: "Add or replace a widget definition",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := errors.ValidateKey("widget", key); err != nil {
				return err
			}
			w := config.Widget{Name: key, Data: data}
			if len(args) == 2 {
				w.Name = args[1]
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("widget %s set", key), func() {
					s.store.SetWidget(key, w)
				})
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "opaque widget payload")
	return cmd
}

func (c *CLI) widgetDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a widget and every placement of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return c.withSession(cmd.Context(), func(s *session) error {
				st := s.store.Get()
				if _, ok := st.Widgets[key]; !ok {
					return errors.New(errors.ErrCodeNotFound, "widget %q not found", key)
				}
				if !st.CanDeleteWidget(key) {
					return errors.New(errors.ErrCodeCannotChange, "widget %q is required by a scene", key)
				}
				placed := 0
				for _, l := range st.Layouts {
					placed += l.Count(key)
				}
				if err := c.applyEdit(cmd.Context(), s, fmt.Sprintf("widget %s deleted", key), func() {
					s.store.DeleteWidget(key)
				}); err != nil {
					return err
				}
				if placed > 0 {
					printDetail("removed %d placements", placed)
				}
				return nil
			})
		},
	}
}
