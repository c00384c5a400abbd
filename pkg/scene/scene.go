// Package scene defines scenes and the referential-integrity rules that tie
// scenes, layouts, and widgets together.
//
// # Model
//
// A [Scene] lists the layouts that belong to it and the one currently shown.
// It may restrict widgets: a required widget must keep at least one instance
// in each of the scene's layouts, and a disallowed widget must never be
// placed in any of them.
//
// Membership is by key only. A layout does not know which scenes use it;
// [ForLayout] recomputes that on every call. This keeps deletion simple:
// removing a key from one map and sweeping the others with
// [layout.RemoveWidgetReference] or [RemoveLayoutReference] is enough to
// leave no dangling pointers behind.
//
// # Immutability
//
// All helpers are pure. Sweeps return their input unchanged (same map) when
// nothing was removed.
package scene

import (
	"slices"
)

// Restriction limits which widgets may appear in a scene's layouts.
type Restriction struct {
	// Required widgets cannot lose their last instance in any layout of the
	// scene, and their definitions cannot be deleted.
	Required []string `json:"required,omitempty" bson:"required,omitempty"`
	// Disallowed widgets are never offered for the scene's layouts and are
	// dropped from them when editing finishes.
	Disallowed []string `json:"disallowed,omitempty" bson:"disallowed,omitempty"`
}

// IsZero reports whether the restriction has no entries.
func (r *Restriction) IsZero() bool {
	return r == nil || (len(r.Required) == 0 && len(r.Disallowed) == 0)
}

// Scene groups layouts and widget restrictions.
type Scene struct {
	Layouts       []string     `json:"layouts" bson:"layouts"`
	CurrentLayout string       `json:"currentLayout" bson:"currentLayout"`
	Widgets       *Restriction `json:"widgets,omitempty" bson:"widgets,omitempty"`
}

// Map maps scene keys to scenes.
type Map map[string]Scene

// HasLayout reports whether key is one of the scene's layouts.
func (s Scene) HasLayout(key string) bool {
	return slices.Contains(s.Layouts, key)
}

// Requires reports whether the scene requires widget.
func (s Scene) Requires(widget string) bool {
	return s.Widgets != nil && slices.Contains(s.Widgets.Required, widget)
}

// Disallows reports whether the scene disallows widget.
func (s Scene) Disallows(widget string) bool {
	return s.Widgets != nil && slices.Contains(s.Widgets.Disallowed, widget)
}

// Clone returns a shallow copy of the map. Scenes are values but their
// slices are shared.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the scene keys in lexical order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ForLayout returns the keys of every scene that lists layoutKey, sorted.
func ForLayout(scenes Map, layoutKey string) []string {
	var out []string
	for key, s := range scenes {
		if s.HasLayout(layoutKey) {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}

// RemoveLayoutReference drops layoutKey from every scene's layout list.
// CurrentLayout is left untouched even if it named the removed layout.
// When no scene changed, the input map is returned.
func RemoveLayoutReference(scenes Map, layoutKey string) Map {
	var changes Map
	for key, s := range scenes {
		if !s.HasLayout(layoutKey) {
			continue
		}
		if changes == nil {
			changes = make(Map)
		}
		s.Layouts = slices.DeleteFunc(slices.Clone(s.Layouts), func(k string) bool { return k == layoutKey })
		changes[key] = s
	}
	if changes == nil {
		return scenes
	}
	out := scenes.Clone()
	for key, s := range changes {
		out[key] = s
	}
	return out
}
