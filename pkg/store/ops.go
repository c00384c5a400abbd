package store

import (
	"maps"
	"slices"

	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
)

// SetWidget adds or replaces a widget definition.
func (s *Store[T]) SetWidget(key string, data T) {
	s.update("setWidget", func(st *State[T]) *State[T] {
		next := st.clone()
		next.Widgets = maps.Clone(st.Widgets)
		if next.Widgets == nil {
			next.Widgets = make(map[string]T, 1)
		}
		next.Widgets[key] = data
		return next
	})
}

// DeleteWidget removes a widget definition and every instance of it in
// every layout. Widgets required by any scene are kept.
func (s *Store[T]) DeleteWidget(key string) {
	s.update("deleteWidget", func(st *State[T]) *State[T] {
		if _, ok := st.Widgets[key]; !ok {
			return st
		}
		if !scene.CanDeleteWidget(st.Scenes, key) {
			s.reject("deleteWidget", errors.ErrCodeCannotChange, "widget", key)
			return st
		}
		next := st.clone()
		next.Widgets = maps.Clone(st.Widgets)
		delete(next.Widgets, key)
		next.Layouts = layout.RemoveWidgetReference(st.Layouts, key)
		return next
	})
}

// SetLayout stores l under key after fitting it to the grid.
//
// If fitting leaves an instance with no visible area and that instance
// holds the last copy of a widget required by a scene using the layout, the
// whole edit is refused: the layouts are left alone, LayoutSerial is bumped,
// and Error is set to [errors.ErrCodeCannotChange].
func (s *Store[T]) SetLayout(key string, l layout.Layout) {
	s.update("setLayout", func(st *State[T]) *State[T] {
		fitted := layout.Fit(l, st.XSize, st.YSize)
		old := st.Layouts[key]
		for i, inst := range fitted {
			if inst.Dim.IsVisible() {
				continue
			}
			if !scene.CanRemoveWidget(st.Scenes, old, key, inst.Widget) {
				s.reject("setLayout", errors.ErrCodeCannotChange, "layout", key, "idx", i, "widget", inst.Widget)
				next := st.clone()
				next.LayoutSerial++
				next.Error = errors.ErrCodeCannotChange
				return next
			}
		}
		next := st.clone()
		next.Layouts = maps.Clone(st.Layouts)
		if next.Layouts == nil {
			next.Layouts = make(layout.Map, 1)
		}
		next.Layouts[key] = fitted
		return next
	})
}

// instanceAt returns the instance at idx in the named layout.
func instanceAt[T any](st *State[T], layoutKey string, idx int) (layout.Instance, bool) {
	l, ok := st.Layouts[layoutKey]
	if !ok || idx < 0 || idx >= len(l) {
		return layout.Instance{}, false
	}
	return l[idx], true
}

// withLayout returns a snapshot whose layout layoutKey is replaced by l.
func withLayout[T any](st *State[T], layoutKey string, l layout.Layout) *State[T] {
	next := st.clone()
	next.Layouts = maps.Clone(st.Layouts)
	next.Layouts[layoutKey] = l
	return next
}

// RemoveWidgetFromLayout deletes the instance at idx. Later instances move
// down by one. The last instance of a required widget is never removed.
func (s *Store[T]) RemoveWidgetFromLayout(layoutKey string, idx int) {
	s.update("removeWidgetFromLayout", func(st *State[T]) *State[T] {
		inst, ok := instanceAt(st, layoutKey, idx)
		if !ok {
			s.ignore("removeWidgetFromLayout", "no such instance", "layout", layoutKey, "idx", idx)
			return st
		}
		l := st.Layouts[layoutKey]
		if !scene.CanRemoveWidget(st.Scenes, l, layoutKey, inst.Widget) {
			s.reject("removeWidgetFromLayout", errors.ErrCodeCannotChange, "layout", layoutKey, "idx", idx, "widget", inst.Widget)
			return st
		}
		return withLayout(st, layoutKey, slices.Delete(slices.Clone(l), idx, idx+1))
	})
}

// SplitWidgetInLayout halves the instance at idx along dir. The instance
// keeps the first half; a new empty instance holding the second half is
// appended to the end of the layout.
func (s *Store[T]) SplitWidgetInLayout(layoutKey string, idx int, dir grid.Direction) {
	s.update("splitWidgetInLayout", func(st *State[T]) *State[T] {
		inst, ok := instanceAt(st, layoutKey, idx)
		if !ok {
			s.ignore("splitWidgetInLayout", "no such instance", "layout", layoutKey, "idx", idx)
			return st
		}
		if !grid.CanSplit(inst.Dim, dir) {
			s.ignore("splitWidgetInLayout", "too small", "layout", layoutKey, "idx", idx, "dim", inst.Dim, "dir", dir)
			return st
		}
		first, second := grid.Split(inst.Dim, dir)
		l := slices.Clone(st.Layouts[layoutKey])
		l[idx].Dim = first
		l = append(l, layout.Instance{Widget: layout.Empty, Dim: second})
		return withLayout(st, layoutKey, l)
	})
}

// SwitchWidgetInLayout puts widget into the cell at idx, keeping its
// rectangle. Switching away from the last instance of a required widget is
// refused.
func (s *Store[T]) SwitchWidgetInLayout(layoutKey string, idx int, widget string) {
	s.update("switchWidgetInLayout", func(st *State[T]) *State[T] {
		inst, ok := instanceAt(st, layoutKey, idx)
		if !ok {
			s.ignore("switchWidgetInLayout", "no such instance", "layout", layoutKey, "idx", idx)
			return st
		}
		l := st.Layouts[layoutKey]
		if !scene.CanRemoveWidget(st.Scenes, l, layoutKey, inst.Widget) {
			s.reject("switchWidgetInLayout", errors.ErrCodeCannotChange, "layout", layoutKey, "idx", idx, "widget", inst.Widget)
			return st
		}
		l = slices.Clone(l)
		l[idx].Widget = widget
		return withLayout(st, layoutKey, l)
	})
}

// DeleteLayout removes a layout and drops it from every scene's layout
// list. A scene whose current layout was deleted keeps the dangling key;
// [State.CurrentLayout] then reports no layout.
func (s *Store[T]) DeleteLayout(key string) {
	s.update("deleteLayout", func(st *State[T]) *State[T] {
		if _, ok := st.Layouts[key]; !ok {
			return st
		}
		next := st.clone()
		next.Layouts = maps.Clone(st.Layouts)
		delete(next.Layouts, key)
		next.Scenes = scene.RemoveLayoutReference(st.Scenes, key)
		return next
	})
}

// SwitchLayout makes layoutKey the current layout of sceneKey. The layout
// must already belong to the scene.
func (s *Store[T]) SwitchLayout(sceneKey, layoutKey string) {
	s.update("switchLayout", func(st *State[T]) *State[T] {
		sc, ok := st.Scenes[sceneKey]
		if !ok || !sc.HasLayout(layoutKey) {
			s.ignore("switchLayout", "layout not in scene", "scene", sceneKey, "layout", layoutKey)
			return st
		}
		if sc.CurrentLayout == layoutKey {
			return st
		}
		sc.CurrentLayout = layoutKey
		next := st.clone()
		next.Scenes = maps.Clone(st.Scenes)
		next.Scenes[sceneKey] = sc
		return next
	})
}

// AddLayoutToScene appends an existing layout to a scene's layout list so
// it can be selected with [Store.SwitchLayout].
func (s *Store[T]) AddLayoutToScene(sceneKey, layoutKey string) {
	s.update("addLayoutToScene", func(st *State[T]) *State[T] {
		sc, ok := st.Scenes[sceneKey]
		if !ok {
			s.ignore("addLayoutToScene", "unknown scene", "scene", sceneKey)
			return st
		}
		if _, ok := st.Layouts[layoutKey]; !ok || sc.HasLayout(layoutKey) {
			return st
		}
		sc.Layouts = append(slices.Clone(sc.Layouts), layoutKey)
		next := st.clone()
		next.Scenes = maps.Clone(st.Scenes)
		next.Scenes[sceneKey] = sc
		return next
	})
}

// SwitchScene changes the current scene. Unknown scenes are ignored.
func (s *Store[T]) SwitchScene(key string) {
	s.update("switchScene", func(st *State[T]) *State[T] {
		if _, ok := st.Scenes[key]; !ok {
			s.ignore("switchScene", "unknown scene", "scene", key)
			return st
		}
		if st.CurrentScene == key {
			return st
		}
		next := st.clone()
		next.CurrentScene = key
		return next
	})
}

// StartEditing enters edit mode.
func (s *Store[T]) StartEditing() {
	s.update("startEditing", func(st *State[T]) *State[T] {
		if st.Editing {
			return st
		}
		next := st.clone()
		next.Editing = true
		return next
	})
}

// FinishEditing leaves edit mode and sweeps every layout, dropping empty
// placeholders, widgets no longer available to the layout's scenes, and
// instances with no visible area on the grid.
func (s *Store[T]) FinishEditing() {
	s.update("finishEditing", func(st *State[T]) *State[T] {
		next := st.clone()
		next.Layouts = scene.FixupLayouts(st.Scenes, st.WidgetKeys(), st.Layouts, st.XSize, st.YSize)
		next.Editing = false
		return next
	})
}

// ForceRerender bumps LayoutSerial without any other change.
func (s *Store[T]) ForceRerender() {
	s.update("forceRerender", func(st *State[T]) *State[T] {
		next := st.clone()
		next.LayoutSerial++
		return next
	})
}

// SetError sets the one-shot error code. The empty code clears it.
func (s *Store[T]) SetError(code errors.Code) {
	s.update("setError", func(st *State[T]) *State[T] {
		if st.Error == code {
			return st
		}
		next := st.clone()
		next.Error = code
		return next
	})
}

// ClearError acknowledges the current error.
func (s *Store[T]) ClearError() {
	s.SetError("")
}
