// Package refgraph draws the references between scenes, layouts, and
// widgets of a layout state as a Graphviz graph.
//
// Scenes point at the layouts they list, and layouts point at the widgets
// they place. The current scene and each scene's current layout are drawn
// bold. With [Options.Restrictions], required and disallowed widgets are
// linked straight from their scene as well.
package refgraph

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
	"github.com/matzehuels/tessera/pkg/store"
)

// Graph is the part of a layout state the reference graph is drawn from.
type Graph struct {
	Widgets      []string
	Layouts      layout.Map
	Scenes       scene.Map
	CurrentScene string
}

// Options configures DOT output.
type Options struct {
	// Restrictions adds scene → widget edges for required (solid red) and
	// disallowed (dotted grey) widgets.
	Restrictions bool
	// Counts labels layout → widget edges with the instance count when a
	// widget is placed more than once.
	Counts bool
}

// FromState extracts a Graph from a store snapshot.
func FromState[T any](st *store.State[T]) Graph {
	return Graph{
		Widgets:      st.WidgetKeys(),
		Layouts:      st.Layouts,
		Scenes:       st.Scenes,
		CurrentScene: st.CurrentScene,
	}
}

func sceneID(key string) string  { return "scene:" + key }
func layoutID(key string) string { return "layout:" + key }
func widgetID(key string) string { return "widget:" + key }

// ToDOT converts g to Graphviz DOT. Nodes are emitted in key order and
// layout edges in placement order, so equal graphs give equal output.
func ToDOT(g Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph refs {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, style=filled, fillcolor=white];\n")
	buf.WriteString("\n")

	scenes := g.Scenes.Keys()
	layouts := g.Layouts.Keys()
	widgets := slices.Clone(g.Widgets)
	slices.Sort(widgets)

	for _, key := range scenes {
		attrs := []string{fmt.Sprintf("label=%q", key), "shape=doubleoctagon"}
		if key == g.CurrentScene {
			attrs = append(attrs, "penwidth=3")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", sceneID(key), strings.Join(attrs, ", "))
	}
	for _, key := range layouts {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=box];\n", layoutID(key), key)
	}
	for _, key := range widgets {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse];\n", widgetID(key), key)
	}

	buf.WriteString("\n")
	for _, key := range scenes {
		sc := g.Scenes[key]
		for _, l := range sc.Layouts {
			if _, ok := g.Layouts[l]; !ok {
				continue
			}
			if l == sc.CurrentLayout {
				fmt.Fprintf(&buf, "  %q -> %q [penwidth=3];\n", sceneID(key), layoutID(l))
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", sceneID(key), layoutID(l))
			}
		}
		if opts.Restrictions && sc.Widgets != nil {
			for _, w := range sc.Widgets.Required {
				fmt.Fprintf(&buf, "  %q -> %q [color=red, label=\"required\"];\n", sceneID(key), widgetID(w))
			}
			for _, w := range sc.Widgets.Disallowed {
				fmt.Fprintf(&buf, "  %q -> %q [color=grey, style=dotted, label=\"disallowed\"];\n", sceneID(key), widgetID(w))
			}
		}
	}
	for _, key := range layouts {
		l := g.Layouts[key]
		for _, w := range l.Widgets() {
			if n := l.Count(w); opts.Counts && n > 1 {
				fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", layoutID(key), widgetID(w), n)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", layoutID(key), widgetID(w))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
