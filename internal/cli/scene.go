package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/errors"
)

func (c *CLI) sceneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Inspect scenes and choose their layouts",
	}

	cmd.AddCommand(c.sceneListCommand())
	cmd.AddCommand(c.sceneUseCommand())
	cmd.AddCommand(c.sceneAddCommand())

	return cmd
}

func (c *CLI) sceneListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenes with their layouts and widget rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				st := s.store.Get()
				fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("Scenes (%d)", len(st.Scenes))))
				for _, key := range st.Scenes.Keys() {
					sc := st.Scenes[key]
					fmt.Fprintf(stdout, "%s %s\n", marker(key == st.CurrentScene), key)

					layouts := make([]string, len(sc.Layouts))
					for i, l := range sc.Layouts {
						layouts[i] = l
						if l == sc.CurrentLayout {
							layouts[i] = StyleHighlight.Render(l + "*")
						}
					}
					printDetail("  layouts: %s", strings.Join(layouts, ", "))
					if sc.Widgets == nil {
						continue
					}
					if len(sc.Widgets.Required) > 0 {
						fmt.Fprintf(stdout, "    required:   %s\n", styleRequired.Render(strings.Join(sc.Widgets.Required, ", ")))
					}
					if len(sc.Widgets.Disallowed) > 0 {
						fmt.Fprintf(stdout, "    disallowed: %s\n", styleDisallowed.Render(strings.Join(sc.Widgets.Disallowed, ", ")))
					}
				}
				return nil
			})
		},
	}
}

func (c *CLI) sceneUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use <scene> <layout>",
		Short: "Make a layout the scene's current layout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sceneKey, layoutKey := args[0], args[1]
			return c.withSession(cmd.Context(), func(s *session) error {
				sc, ok := s.store.Get().Scenes[sceneKey]
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "scene %q not found", sceneKey)
				}
				if !sc.HasLayout(layoutKey) {
					return errors.New(errors.ErrCodeInvalidInput, "layout %q is not part of scene %q; add it with `tessera scene add`", layoutKey, sceneKey)
				}
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("scene %s now shows %s", sceneKey, layoutKey), func() {
					s.store.SwitchLayout(sceneKey, layoutKey)
				})
			})
		},
	}
}

func (c *CLI) sceneAddCommand() *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "add <scene> <layout>",
		Short: "Add an existing layout to a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sceneKey, layoutKey := args[0], args[1]
			return c.withSession(cmd.Context(), func(s *session) error {
				st := s.store.Get()
				if _, ok := st.Scenes[sceneKey]; !ok {
					return errors.New(errors.ErrCodeNotFound, "scene %q not found", sceneKey)
				}
				if _, ok := st.Layouts[layoutKey]; !ok {
					return errors.New(errors.ErrCodeNotFound, "layout %q not found", layoutKey)
				}
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("layout %s added to scene %s", layoutKey, sceneKey), func() {
					s.store.AddLayoutToScene(sceneKey, layoutKey)
					if use {
						s.store.SwitchLayout(sceneKey, layoutKey)
					}
				})
			})
		},
	}

	cmd.Flags().BoolVar(&use, "use", false, "also make it the current layout")
	return cmd
}
