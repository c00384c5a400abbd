package config

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
	"github.com/matzehuels/tessera/pkg/store"
)

// Widget is the widget payload used by the CLI and HTTP server.
type Widget struct {
	Name string `json:"name"`
	Data string `json:"data,omitempty"`
}

// DeserializeWidget accepts a persisted widget object or, for hand-written
// snapshots, a bare string taken as the name.
func DeserializeWidget(key string, data any) (Widget, bool) {
	switch v := data.(type) {
	case string:
		return Widget{Name: v}, true
	case map[string]any:
		w := Widget{}
		w.Name, _ = v["name"].(string)
		w.Data, _ = v["data"].(string)
		if w.Name == "" {
			w.Name = key
		}
		return w, true
	}
	return Widget{}, false
}

// Localize returns the widget's configured name, or its key.
func Localize(_, _, widget string, data Widget) string {
	if data.Name != "" {
		return data.Name
	}
	return widget
}

// Initializers returns hooks that add every configured widget, layout, and
// scene that persisted state lacks. Persisted entries are never replaced.
func (c *Config) Initializers() (
	widgets func(map[string]Widget) map[string]Widget,
	layouts func(layout.Map) layout.Map,
	scenes func(scene.Map) scene.Map,
) {
	widgets = func(m map[string]Widget) map[string]Widget {
		for _, w := range c.Widgets {
			if _, ok := m[w.Key]; !ok {
				m[w.Key] = Widget{Name: w.Name, Data: w.Data}
			}
		}
		return m
	}
	layouts = func(m layout.Map) layout.Map {
		for key, l := range c.Layouts {
			if _, ok := m[key]; !ok {
				m[key] = l.Layout()
			}
		}
		return m
	}
	scenes = func(m scene.Map) scene.Map {
		for key, s := range c.Scene {
			if _, ok := m[key]; !ok {
				m[key] = s.Scene()
			}
		}
		// Every declared scene exists so SwitchScene can reach it.
		for _, key := range c.Scenes.Keys {
			if _, ok := m[key]; !ok {
				m[key] = scene.Scene{Layouts: []string{}}
			}
		}
		return m
	}
	return widgets, layouts, scenes
}

// StoreOptions builds store options from the configuration with
// persistence enabled. Pass them to store.Open, or set Persisted and call
// store.New.
func (c *Config) StoreOptions(logger *log.Logger) store.Options[Widget] {
	iw, il, is := c.Initializers()
	return store.Options[Widget]{
		XSize:             c.Grid.X,
		YSize:             c.Grid.Y,
		SceneKeys:         c.Scenes.Keys,
		InitialScene:      c.Scenes.Initial,
		InitializeWidgets: iw,
		InitializeLayouts: il,
		InitializeScenes:  is,
		DeserializeWidget: DeserializeWidget,
		LocalizeWidget:    Localize,
		Persist:           true,
		Logger:            logger,
	}
}
