package store

import (
	"slices"

	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
)

// WidgetKeys returns the widget keys in lexical order.
func (st *State[T]) WidgetKeys() []string {
	keys := make([]string, 0, len(st.Widgets))
	for k := range st.Widgets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Scene returns the current scene.
func (st *State[T]) Scene() (scene.Scene, bool) {
	sc, ok := st.Scenes[st.CurrentScene]
	return sc, ok
}

// CurrentLayout returns the key and contents of the current scene's current
// layout. ok is false when the scene has no current layout or it points at
// a layout that no longer exists.
func (st *State[T]) CurrentLayout() (key string, l layout.Layout, ok bool) {
	sc, found := st.Scene()
	if !found || sc.CurrentLayout == "" {
		return "", nil, false
	}
	l, ok = st.Layouts[sc.CurrentLayout]
	if !ok {
		return "", nil, false
	}
	return sc.CurrentLayout, l, true
}

// ScenesForLayout returns the scenes that list layoutKey.
func (st *State[T]) ScenesForLayout(layoutKey string) []string {
	return scene.ForLayout(st.Scenes, layoutKey)
}

// AvailableWidgets returns the widgets that may be placed in layoutKey.
func (st *State[T]) AvailableWidgets(layoutKey string) []string {
	return scene.AvailableWidgets(st.Scenes, st.WidgetKeys(), layoutKey)
}

// CanAddWidgetToLayout reports whether widget may be placed in layoutKey.
func (st *State[T]) CanAddWidgetToLayout(layoutKey, widget string) bool {
	return scene.CanAddWidget(st.Scenes, layoutKey, widget)
}

// CanRemoveWidgetFromLayout reports whether one instance of widget may be
// removed from layoutKey.
func (st *State[T]) CanRemoveWidgetFromLayout(layoutKey, widget string) bool {
	return scene.CanRemoveWidget(st.Scenes, st.Layouts[layoutKey], layoutKey, widget)
}

// CanDeleteWidget reports whether the widget definition may be deleted.
func (st *State[T]) CanDeleteWidget(widget string) bool {
	return scene.CanDeleteWidget(st.Scenes, widget)
}

// WidgetName returns the display name of widget as shown in the given
// scene and layout.
func (s *Store[T]) WidgetName(sceneKey, layoutKey, widget string) string {
	if s.localize == nil {
		return widget
	}
	data := s.Get().Widgets[widget]
	return s.localize(sceneKey, layoutKey, widget, data)
}
