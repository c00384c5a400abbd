package codec

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
)

// Snapshot is the persisted JSON document.
type Snapshot struct {
	Widgets map[string]any `json:"widgets"`
	Layouts layout.Map     `json:"layouts"`
	Scenes  scene.Map      `json:"scenes"`
}

// Encode converts a model into its persisted form. serialize converts widget
// data; nil stores the data as is.
func Encode[T any](m Model[T], serialize func(key string, w T) any) Snapshot {
	snap := Snapshot{
		Widgets: make(map[string]any, len(m.Widgets)),
		Layouts: make(layout.Map, len(m.Layouts)),
		Scenes:  make(scene.Map, len(m.Scenes)),
	}
	for k, w := range m.Widgets {
		if serialize != nil {
			snap.Widgets[k] = serialize(k, w)
		} else {
			snap.Widgets[k] = w
		}
	}
	for k, l := range m.Layouts {
		if l == nil {
			l = layout.Layout{}
		}
		snap.Layouts[k] = l
	}
	for k, s := range m.Scenes {
		if s.Layouts == nil {
			s.Layouts = []string{}
		}
		if s.Widgets.IsZero() {
			s.Widgets = nil
		}
		snap.Scenes[k] = s
	}
	return snap
}

// Marshal encodes a model as JSON.
func Marshal[T any](m Model[T], serialize func(key string, w T) any) ([]byte, error) {
	data, err := json.Marshal(Encode(m, serialize))
	if err != nil {
		return nil, fmt.Errorf("marshal layout state: %w", err)
	}
	return data, nil
}
