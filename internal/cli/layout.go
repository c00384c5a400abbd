package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/layout"
)

func (c *CLI) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "List, replace, clone, and delete layouts",
	}

	cmd.AddCommand(c.layoutListCommand())
	cmd.AddCommand(c.layoutSetCommand())
	cmd.AddCommand(c.layoutCloneCommand())
	cmd.AddCommand(c.layoutDeleteCommand())

	return cmd
}

func (c *CLI) layoutListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List layouts and the scenes using them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				st := s.store.Get()
				current, _, _ := st.CurrentLayout()
				fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("Layouts (%d)", len(st.Layouts))))
				for _, key := range st.Layouts.Keys() {
					fmt.Fprintf(stdout, "%s %-20s %s\n", marker(key == current), key,
						StyleDim.Render(fmt.Sprintf("%d instances", len(st.Layouts[key]))))
					if scenes := st.ScenesForLayout(key); len(scenes) > 0 {
						printDetail("  scenes: %v", scenes)
					}
				}
				return nil
			})
		},
	}
}

// readLayout decodes a JSON layout from path, or stdin for "-".
func readLayout(path string) (layout.Layout, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var l layout.Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode layout %s", path)
	}
	return l, nil
}

func (c *CLI) layoutSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <layout.json|->",
		Short: "Replace a layout from a JSON file",
		Long: `Replace a layout with the JSON array of {"widget", "dim"} instances in the
given file, or stdin for "-". The layout is fitted to the grid. The edit is
refused if fitting would hide the last copy of a required widget.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := errors.ValidateKey("layout", key); err != nil {
				return err
			}
			l, err := readLayout(args[1])
			if err != nil {
				return err
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("layout %s set (%d instances)", key, len(l)), func() {
					s.store.SetLayout(key, l)
				})
			})
		},
	}
}

func (c *CLI) layoutCloneCommand() *cobra.Command {
	var sceneFlag string

	cmd := &cobra.Command{
		Use:   "clone <src> [dst]",
		Short: "Copy a layout under a new key",
		Long: `Copy a layout under a new key. Without dst a random key is generated.
With --scene the copy is also added to that scene's layouts.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			dst := "layout-" + uuid.NewString()[:8]
			if len(args) == 2 {
				dst = args[1]
			}
			if err := errors.ValidateKey("layout", dst); err != nil {
				return err
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				st := s.store.Get()
				l, ok := st.Layouts[src]
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "layout %q not found", src)
				}
				if _, exists := st.Layouts[dst]; exists {
					return errors.New(errors.ErrCodeInvalidInput, "layout %q already exists", dst)
				}
				if sceneFlag != "" {
					if _, ok := st.Scenes[sceneFlag]; !ok {
						return errors.New(errors.ErrCodeNotFound, "scene %q not found", sceneFlag)
					}
				}
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("cloned %s to %s", src, dst), func() {
					s.store.SetLayout(dst, l.Clone())
					if sceneFlag != "" {
						s.store.AddLayoutToScene(sceneFlag, dst)
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&sceneFlag, "scene", "s", "", "add the copy to this scene")
	return cmd
}

func (c *CLI) layoutDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a layout and drop it from every scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return c.withSession(cmd.Context(), func(s *session) error {
				st := s.store.Get()
				if _, ok := st.Layouts[key]; !ok {
					return errors.New(errors.ErrCodeNotFound, "layout %q not found", key)
				}
				scenes := st.ScenesForLayout(key)
				if err := c.applyEdit(cmd.Context(), s, fmt.Sprintf("layout %s deleted", key), func() {
					s.store.DeleteLayout(key)
				}); err != nil {
					return err
				}
				for _, sc := range scenes {
					if s.store.Get().Scenes[sc].CurrentLayout == key {
						printWarning("scene %s has no current layout now; run `tessera scene use %s <layout>`", sc, sc)
					}
				}
				return nil
			})
		},
	}
}
