package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/codec"
	"github.com/matzehuels/tessera/pkg/config"
	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
	"github.com/matzehuels/tessera/pkg/store"
)

func countInstances(m layout.Map) int {
	n := 0
	for _, l := range m {
		n += len(l)
	}
	return n
}

func (c *CLI) fixupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fixup",
		Short: "Drop empty, disallowed, and off-grid cells from every layout",
		Long: `Run the end-of-editing sweep over every layout: remove empty cells,
widgets a scene using the layout disallows, unknown widgets, and cells with
no visible area on the grid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				dropped := store.Select(s.store, func(st *store.State[config.Widget]) int {
					swept := scene.FixupLayouts(st.Scenes, st.WidgetKeys(), st.Layouts, st.XSize, st.YSize)
					return countInstances(st.Layouts) - countInstances(swept)
				})
				if dropped == 0 {
					printSuccess("layouts are clean")
					return nil
				}
				return c.applyEdit(cmd.Context(), s, fmt.Sprintf("dropped %d cells", dropped), func() {
					s.store.StartEditing()
					s.store.FinishEditing()
				})
			})
		},
	}
}

// readInput reads path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// rawCounts counts the top-level entries of a raw snapshot.
func rawCounts(data []byte) (widgets, layouts, scenes int) {
	root, _ := codec.Parse(data).(map[string]any)
	count := func(k string) int {
		m, _ := root[k].(map[string]any)
		return len(m)
	}
	return count("widgets"), count("layouts"), count("scenes")
}

// sanitize decodes a raw snapshot through the same pipeline the store
// uses on startup and returns the cleaned, indented snapshot.
func sanitize(cfg *config.Config, data []byte, withDefaults bool, logger *log.Logger) (*store.State[config.Widget], []byte, error) {
	opts := cfg.StoreOptions(logger)
	opts.Persisted = data
	if !withDefaults {
		opts.InitializeWidgets = nil
		opts.InitializeLayouts = nil
		opts.InitializeScenes = nil
	}
	s, err := store.New(opts)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.Marshal()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "  "); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "indent snapshot")
	}
	buf.WriteByte('\n')
	return s.Get(), buf.Bytes(), nil
}

func (c *CLI) sanitizeCommand() *cobra.Command {
	var (
		output   string
		defaults bool
	)

	cmd := &cobra.Command{
		Use:   "sanitize <snapshot.json|->",
		Short: "Clean a saved snapshot and print the result",
		Long: `Decode a saved snapshot the way the store does on startup and print what
survives. Malformed entries, layouts referencing unknown widgets, and scenes
not declared in the configuration are dropped.

With --defaults, the configured widgets, layouts, and scenes are merged in
as they would be on startup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			st, out, err := sanitize(cfg, data, defaults, c.Logger)
			if err != nil {
				return err
			}
			w, l, sc := rawCounts(data)
			c.Logger.Info("sanitized snapshot",
				"widgets", fmt.Sprintf("%d→%d", w, len(st.Widgets)),
				"layouts", fmt.Sprintf("%d→%d", l, len(st.Layouts)),
				"scenes", fmt.Sprintf("%d→%d", sc, len(st.Scenes)))

			if output == "" {
				_, err := stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("sanitized snapshot written")
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "merge in the configured defaults")
	return cmd
}
