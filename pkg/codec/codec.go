// Package codec converts between the in-memory layout model and its
// persisted JSON form.
//
// # Decoding
//
// Persisted data is untrusted. [Decode] rebuilds widgets, layouts, and
// scenes from whatever it is given and drops every fragment it cannot use
// at the finest granularity: a single widget, a single layout instance, a
// single scene. It never fails and never panics; input that is not a JSON
// object at all yields an empty model.
//
// After each map is rebuilt the matching initializer hook runs, in the order
// widgets, layouts, scenes. Layout instances are checked against the
// initialized widget map and scene layout lists against the initialized
// layout map, so content injected by a hook is visible to later stages.
//
// # Encoding
//
// [Encode] produces the inverse shape:
//
//	{
//	  "widgets": {"<key>": <data>},
//	  "layouts": {"<key>": [{"widget": "<key>", "dim": {"x":0,"y":0,"w":1,"h":1}}]},
//	  "scenes":  {"<key>": {"layouts": [...], "currentLayout": "...", "widgets": {...}}}
//	}
//
// Decoding an encoded model with matching hooks yields the same model.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
)

// Model is the persisted part of the layout state.
type Model[T any] struct {
	Widgets map[string]T
	Layouts layout.Map
	Scenes  scene.Map
}

// Hooks customize decoding. Every field is optional.
type Hooks[T any] struct {
	// DeserializeWidget converts persisted widget data. Returning false
	// drops the widget. The default accepts non-nil data of type T.
	DeserializeWidget func(key string, data any) (T, bool)

	// InitializeWidgets receives the decoded widgets and returns the map
	// to use. It may add defaults; it must not return a shared map.
	InitializeWidgets func(map[string]T) map[string]T

	// InitializeLayouts receives the decoded layouts.
	InitializeLayouts func(layout.Map) layout.Map

	// InitializeScenes receives the decoded scenes.
	InitializeScenes func(scene.Map) scene.Map
}

// Parse turns a raw persisted value into a generic JSON value.
// Strings and byte slices are parsed as JSON; anything else is returned as
// is. Unparseable input yields nil.
func Parse(raw any) any {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		return raw
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

// Decode rebuilds a model from raw persisted data. raw may be a JSON
// string, JSON bytes, or an already parsed map. Scenes whose keys are not in
// sceneKeys are dropped.
func Decode[T any](raw any, sceneKeys []string, hooks Hooks[T]) Model[T] {
	root, _ := Parse(raw).(map[string]any)

	widgets := decodeWidgets(root["widgets"], hooks.DeserializeWidget)
	if hooks.InitializeWidgets != nil {
		widgets = hooks.InitializeWidgets(widgets)
	}
	if widgets == nil {
		widgets = map[string]T{}
	}

	layouts := decodeLayouts(root["layouts"], func(key string) bool {
		_, ok := widgets[key]
		return ok
	})
	if hooks.InitializeLayouts != nil {
		layouts = hooks.InitializeLayouts(layouts)
	}
	if layouts == nil {
		layouts = layout.Map{}
	}

	scenes := decodeScenes(root["scenes"], sceneKeys, layouts)
	if hooks.InitializeScenes != nil {
		scenes = hooks.InitializeScenes(scenes)
	}
	if scenes == nil {
		scenes = scene.Map{}
	}

	return Model[T]{Widgets: widgets, Layouts: layouts, Scenes: scenes}
}

func decodeWidgets[T any](raw any, deserialize func(string, any) (T, bool)) map[string]T {
	out := map[string]T{}
	obj, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	if deserialize == nil {
		deserialize = assertWidget[T]
	}
	for key, data := range obj {
		if w, ok := deserialize(key, data); ok {
			out[key] = w
		}
	}
	return out
}

func assertWidget[T any](_ string, data any) (T, bool) {
	if data == nil {
		var zero T
		return zero, false
	}
	w, ok := data.(T)
	return w, ok
}

func decodeLayouts(raw any, known func(string) bool) layout.Map {
	out := layout.Map{}
	obj, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for key, v := range obj {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		l := make(layout.Layout, 0, len(items))
		for _, item := range items {
			if inst, ok := decodeInstance(item, known); ok {
				l = append(l, inst)
			}
		}
		out[key] = l
	}
	return out
}

func decodeInstance(raw any, known func(string) bool) (layout.Instance, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return layout.Instance{}, false
	}
	widget, ok := obj["widget"].(string)
	if !ok || !known(widget) {
		return layout.Instance{}, false
	}
	dim, ok := decodeDim(obj["dim"])
	if !ok || dim.W <= 0 || dim.H <= 0 {
		return layout.Instance{}, false
	}
	return layout.Instance{Widget: widget, Dim: dim}, true
}

func decodeDim(raw any) (grid.Dim, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return grid.Dim{}, false
	}
	var vals [4]int
	for i, name := range [...]string{"x", "y", "w", "h"} {
		n, ok := asInt(obj[name])
		if !ok {
			return grid.Dim{}, false
		}
		vals[i] = n
	}
	return grid.Dim{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, true
}

// asInt accepts integral numbers in any of the forms a JSON or BSON decoder
// produces. 3.0 is an integer, 3.5 is not. Every form is held to the int32
// range.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return boundInt(int64(n))
	case int32:
		return int(n), true
	case int64:
		return boundInt(n)
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return boundInt(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	return 0, false
}

func boundInt(i int64) (int, bool) {
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, false
	}
	return int(i), true
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func decodeScenes(raw any, sceneKeys []string, layouts layout.Map) scene.Map {
	out := scene.Map{}
	obj, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	declared := make(map[string]bool, len(sceneKeys))
	for _, k := range sceneKeys {
		declared[k] = true
	}
	for key, v := range obj {
		if !declared[key] {
			continue
		}
		sObj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		s := scene.Scene{Layouts: []string{}}
		if list, ok := sObj["layouts"].([]any); ok {
			for _, item := range list {
				lk, ok := item.(string)
				if !ok || lk == "" {
					continue
				}
				if _, exists := layouts[lk]; exists {
					s.Layouts = append(s.Layouts, lk)
				}
			}
		}
		if cur, ok := sObj["currentLayout"].(string); ok {
			if _, exists := layouts[cur]; exists {
				s.CurrentLayout = cur
			}
		}
		if wObj, ok := sObj["widgets"].(map[string]any); ok {
			r := &scene.Restriction{
				Required:   stringList(wObj["required"]),
				Disallowed: stringList(wObj["disallowed"]),
			}
			if !r.IsZero() {
				s.Widgets = r
			}
		}
		out[key] = s
	}
	return out
}

// stringList keeps the truthy scalar entries of a JSON array, formatted as
// strings. Empty strings, zero, false, and null are dropped, as are nested
// arrays and objects.
func stringList(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := truthyString(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func truthyString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case bool:
		return "true", x
	case json.Number:
		f, err := x.Float64()
		if err != nil || f == 0 || math.IsNaN(f) {
			return "", false
		}
		return formatNumber(f), true
	case float64:
		if x == 0 || math.IsNaN(x) {
			return "", false
		}
		return formatNumber(x), true
	case int:
		return strconv.Itoa(x), x != 0
	case int64:
		return strconv.FormatInt(x, 10), x != 0
	}
	return "", false
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(f)
}
