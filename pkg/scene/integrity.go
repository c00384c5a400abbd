package scene

import (
	"slices"

	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
)

// CanDeleteWidget reports whether the widget definition may be deleted.
// A widget required by any scene cannot be deleted.
func CanDeleteWidget(scenes Map, widget string) bool {
	for _, s := range scenes {
		if s.Requires(widget) {
			return false
		}
	}
	return true
}

// CanRemoveWidget reports whether one instance of widget may be removed from
// (or switched away in) the layout stored under layoutKey.
//
// Removal is allowed when another instance of the widget would remain in the
// layout, or when no scene using the layout requires the widget.
func CanRemoveWidget(scenes Map, l layout.Layout, layoutKey, widget string) bool {
	if l.Count(widget) >= 2 {
		return true
	}
	for _, key := range ForLayout(scenes, layoutKey) {
		if scenes[key].Requires(widget) {
			return false
		}
	}
	return true
}

// CanAddWidget reports whether widget may be placed in the layout stored
// under layoutKey, i.e. no scene using the layout disallows it.
func CanAddWidget(scenes Map, layoutKey, widget string) bool {
	for _, key := range ForLayout(scenes, layoutKey) {
		if scenes[key].Disallows(widget) {
			return false
		}
	}
	return true
}

// AvailableWidgets returns the widget keys that may be placed in the layout
// stored under layoutKey, sorted lexically. widgets is the set of known
// widget keys.
func AvailableWidgets(scenes Map, widgets []string, layoutKey string) []string {
	owners := ForLayout(scenes, layoutKey)
	out := make([]string, 0, len(widgets))
	for _, w := range widgets {
		allowed := true
		for _, key := range owners {
			if scenes[key].Disallows(w) {
				allowed = false
				break
			}
		}
		if allowed {
			out = append(out, w)
		}
	}
	slices.Sort(out)
	return out
}

// FixupLayouts drops, from every layout, instances that have no widget,
// whose widget is not available to the layout, or whose dimension is not
// visible on an xSize × ySize grid. Kept instances are not refitted.
//
// The result is always a new map; layouts that lost nothing are shared with
// the input.
func FixupLayouts(scenes Map, widgets []string, layouts layout.Map, xSize, ySize int) layout.Map {
	out := make(layout.Map, len(layouts))
	for key, l := range layouts {
		available := AvailableWidgets(scenes, widgets, key)
		keep := func(in layout.Instance) bool {
			if in.Widget == layout.Empty {
				return false
			}
			if _, ok := slices.BinarySearch(available, in.Widget); !ok {
				return false
			}
			return grid.Visible(in.Dim, xSize, ySize)
		}

		next := make(layout.Layout, 0, len(l))
		for _, in := range l {
			if keep(in) {
				next = append(next, in)
			}
		}
		if len(next) == len(l) {
			out[key] = l
			continue
		}
		out[key] = next
	}
	return out
}
