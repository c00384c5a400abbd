// Package layout defines widget placements and the ordered layouts built
// from them.
//
// A [Layout] is an ordered slice of [Instance] values. Order matters: it is
// the index space used by index-addressed edits (split, remove, switch), and
// it is preserved by every helper in this package.
//
// Layouts are treated as immutable values. Helpers never modify their input;
// when nothing changes they return the input unchanged (same backing array
// or same map) so callers can detect no-ops cheaply.
package layout

import (
	"slices"

	"github.com/matzehuels/tessera/pkg/grid"
)

// Empty is the widget key of a placeholder cell created by a split. It is a
// valid value meaning "no widget selected yet".
const Empty = ""

// Instance is one placement of a widget inside a layout.
type Instance struct {
	Widget string   `json:"widget" bson:"widget"`
	Dim    grid.Dim `json:"dim" bson:"dim"`
}

// Layout is an ordered sequence of widget placements.
type Layout []Instance

// Map maps layout keys to layouts.
type Map map[string]Layout

// Count returns how many instances of widget the layout contains.
func (l Layout) Count(widget string) int {
	n := 0
	for _, in := range l {
		if in.Widget == widget {
			n++
		}
	}
	return n
}

// Contains reports whether the layout has at least one instance of widget.
func (l Layout) Contains(widget string) bool {
	return slices.ContainsFunc(l, func(in Instance) bool { return in.Widget == widget })
}

// Widgets returns the distinct non-empty widget keys in placement order.
func (l Layout) Widgets() []string {
	seen := make(map[string]bool, len(l))
	var out []string
	for _, in := range l {
		if in.Widget == Empty || seen[in.Widget] {
			continue
		}
		seen[in.Widget] = true
		out = append(out, in.Widget)
	}
	return out
}

// Clone returns a copy of the layout that shares no backing array with l.
func (l Layout) Clone() Layout {
	if l == nil {
		return nil
	}
	return slices.Clone(l)
}

// Fit clamps every dimension into an xSize × ySize grid, keeping widget keys
// and order. The result is always a new slice.
func Fit(l Layout, xSize, ySize int) Layout {
	out := make(Layout, len(l))
	for i, in := range l {
		out[i] = Instance{Widget: in.Widget, Dim: grid.FitDim(in.Dim, xSize, ySize)}
	}
	return out
}

// WithoutWidget returns l minus every instance of widget. When l has no such
// instance, l itself is returned.
func WithoutWidget(l Layout, widget string) Layout {
	if !l.Contains(widget) {
		return l
	}
	out := make(Layout, 0, len(l))
	for _, in := range l {
		if in.Widget != widget {
			out = append(out, in)
		}
	}
	return out
}

// RemoveWidgetReference strips every instance of widget from every layout.
// Layouts that are unaffected are shared with the input; when no layout
// changed, the input map itself is returned.
func RemoveWidgetReference(layouts Map, widget string) Map {
	var changes Map
	for key, l := range layouts {
		next := WithoutWidget(l, widget)
		if len(next) == len(l) {
			continue
		}
		if changes == nil {
			changes = make(Map)
		}
		changes[key] = next
	}
	if changes == nil {
		return layouts
	}
	out := make(Map, len(layouts))
	for key, l := range layouts {
		out[key] = l
	}
	for key, l := range changes {
		out[key] = l
	}
	return out
}

// Clone returns a shallow copy of the map. Layout slices are shared.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the layout keys in lexical order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
