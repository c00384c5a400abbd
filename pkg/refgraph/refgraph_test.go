package refgraph

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
)

func testGraph() Graph {
	return Graph{
		Widgets: []string{"page", "controller", "ads"},
		Layouts: layout.Map{
			"main": {
				{Widget: "controller", Dim: grid.Dim{W: 10, H: 2}},
				{Widget: "page", Dim: grid.Dim{Y: 2, W: 5, H: 8}},
				{Widget: "page", Dim: grid.Dim{X: 5, Y: 2, W: 5, H: 8}},
				{Widget: layout.Empty, Dim: grid.Dim{W: 1, H: 1}},
			},
			"alt": {{Widget: "page", Dim: grid.Dim{W: 10, H: 10}}},
		},
		Scenes: scene.Map{
			"main": {
				Layouts:       []string{"main", "alt", "gone"},
				CurrentLayout: "main",
				Widgets:       &scene.Restriction{Required: []string{"controller"}, Disallowed: []string{"ads"}},
			},
		},
		CurrentScene: "main",
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})

	wantLines := []string{
		`"scene:main" [label="main", shape=doubleoctagon, penwidth=3];`,
		`"layout:alt" [label="alt", shape=box];`,
		`"widget:ads" [label="ads", shape=ellipse];`,
		`"scene:main" -> "layout:main" [penwidth=3];`,
		`"scene:main" -> "layout:alt";`,
		`"layout:main" -> "widget:controller";`,
		`"layout:main" -> "widget:page";`,
	}
	for _, line := range wantLines {
		if !strings.Contains(dot, line) {
			t.Errorf("ToDOT() missing %s\n%s", line, dot)
		}
	}

	for _, unwanted := range []string{"layout:gone", "widget:\"", "required", "disallowed"} {
		if strings.Contains(dot, unwanted) {
			t.Errorf("ToDOT() should not contain %q\n%s", unwanted, dot)
		}
	}
	if n := strings.Count(dot, `"layout:main" -> "widget:page"`); n != 1 {
		t.Errorf("layout:main -> widget:page edges = %d, want 1", n)
	}
}

func TestToDOTOptions(t *testing.T) {
	dot := ToDOT(testGraph(), Options{Restrictions: true, Counts: true})

	wantLines := []string{
		`"scene:main" -> "widget:controller" [color=red, label="required"];`,
		`"scene:main" -> "widget:ads" [color=grey, style=dotted, label="disallowed"];`,
		`"layout:main" -> "widget:page" [label="2"];`,
		`"layout:alt" -> "widget:page";`,
	}
	for _, line := range wantLines {
		if !strings.Contains(dot, line) {
			t.Errorf("ToDOT() missing %s\n%s", line, dot)
		}
	}
}

func TestToDOTDeterministic(t *testing.T) {
	g := testGraph()
	first := ToDOT(g, Options{Restrictions: true})
	for range 5 {
		if got := ToDOT(g, Options{Restrictions: true}); got != first {
			t.Fatalf("ToDOT() output changed between calls:\n%s\nvs\n%s", first, got)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testGraph(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "not a graph {"); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
