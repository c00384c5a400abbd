package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/refgraph"
)

func (c *CLI) graphCommand() *cobra.Command {
	var (
		output string
		format string
		opts   refgraph.Options
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw how scenes, layouts, and widgets reference each other",
		Long: `Draw the reference graph of the layout state: scenes point at their
layouts, layouts at the widgets they place. Output is Graphviz DOT or SVG.

The format defaults to the output file's extension, or DOT on stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(output), ".")
				if format == "" {
					format = "dot"
				}
			}
			if format != "dot" && format != "svg" {
				return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want dot or svg)", format)
			}

			return c.withSession(cmd.Context(), func(s *session) error {
				dot := refgraph.ToDOT(refgraph.FromState(s.store.Get()), opts)
				out := []byte(dot)
				if format == "svg" {
					prog := newProgress(c.Logger)
					spin := newSpinner(cmd.Context(), "Rendering SVG...")
					spin.Start()
					svg, err := refgraph.RenderSVG(cmd.Context(), dot)
					spin.Stop()
					if err != nil {
						return errors.Wrap(errors.ErrCodeInternal, err, "render graph")
					}
					prog.done("Rendered graph")
					out = svg
				}

				if output == "" {
					_, err := stdout.Write(out)
					return err
				}
				if err := os.WriteFile(output, out, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printSuccess("graph written")
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "dot or svg")
	cmd.Flags().BoolVar(&opts.Restrictions, "restrictions", false, "draw required and disallowed widgets")
	cmd.Flags().BoolVar(&opts.Counts, "counts", false, "label edges with placement counts")
	return cmd
}
