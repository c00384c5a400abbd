package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/scene"
	"github.com/matzehuels/tessera/pkg/store"
)

// StateView is the JSON form of a store snapshot.
type StateView[T any] struct {
	XSize        int          `json:"xSize"`
	YSize        int          `json:"ySize"`
	Widgets      map[string]T `json:"widgets"`
	Layouts      layout.Map   `json:"layouts"`
	Scenes       scene.Map    `json:"scenes"`
	CurrentScene string       `json:"currentScene"`
	Editing      bool         `json:"editing"`
	LayoutSerial int          `json:"layoutSerial"`
	Error        string       `json:"error,omitempty"`
}

// MutationResponse answers every mutation endpoint.
type MutationResponse[T any] struct {
	Changed bool         `json:"changed"`
	State   StateView[T] `json:"state"`
}

// CurrentLayoutResponse answers GET /api/layouts/current.
type CurrentLayoutResponse struct {
	Scene     string            `json:"scene"`
	Key       string            `json:"key"`
	Layout    layout.Layout     `json:"layout"`
	Available []string          `json:"available"`
	Names     map[string]string `json:"names"`
}

// IndexRequest addresses an instance by position.
type IndexRequest struct {
	Idx int `json:"idx"`
}

// SplitRequest is the body of POST /split.
type SplitRequest struct {
	Idx       int    `json:"idx"`
	Direction string `json:"direction"`
}

// SwitchWidgetRequest is the body of POST /switch.
type SwitchWidgetRequest struct {
	Idx    int    `json:"idx"`
	Widget string `json:"widget"`
}

// LayoutRequest names a layout.
type LayoutRequest struct {
	Layout string `json:"layout"`
}

func viewOf[T any](st *store.State[T]) StateView[T] {
	return StateView[T]{
		XSize:        st.XSize,
		YSize:        st.YSize,
		Widgets:      st.Widgets,
		Layouts:      st.Layouts,
		Scenes:       st.Scenes,
		CurrentScene: st.CurrentScene,
		Editing:      st.Editing,
		LayoutSerial: st.LayoutSerial,
		Error:        string(st.Error),
	}
}

// mutate runs op and answers with the resulting state.
func (s *Server[T]) mutate(w http.ResponseWriter, op func()) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	before := s.store.Get()
	op()
	after := s.store.Get()
	respondJSON(w, http.StatusOK, MutationResponse[T]{Changed: after != before, State: viewOf(after)})
}

// keyParam reads and validates a URL key parameter.
func keyParam(r *http.Request, name string) (string, error) {
	key := chi.URLParam(r, name)
	if err := errors.ValidateKey(name, key); err != nil {
		return "", err
	}
	return key, nil
}

// layoutParam reads the {layout} parameter and checks that it exists.
func (s *Server[T]) layoutParam(r *http.Request) (string, error) {
	key, err := keyParam(r, "layout")
	if err != nil {
		return "", err
	}
	if _, ok := s.store.Get().Layouts[key]; !ok {
		return "", errors.New(errors.ErrCodeNotFound, "layout %q not found", key)
	}
	return key, nil
}

// sceneParam reads the {scene} parameter and checks that it exists.
func (s *Server[T]) sceneParam(r *http.Request) (string, error) {
	key, err := keyParam(r, "scene")
	if err != nil {
		return "", err
	}
	if _, ok := s.store.Get().Scenes[key]; !ok {
		return "", errors.New(errors.ErrCodeNotFound, "scene %q not found", key)
	}
	return key, nil
}

func (s *Server[T]) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server[T]) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, viewOf(s.store.Get()))
}

func (s *Server[T]) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Marshal()
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server[T]) handleSetWidget(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r, "widget")
	if err != nil {
		respondError(w, err)
		return
	}
	var data T
	if err := decodeBody(r, &data); err != nil {
		respondError(w, err)
		return
	}
	s.mutate(w, func() { s.store.SetWidget(key, data) })
}

func (s *Server[T]) handleDeleteWidget(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r, "widget")
	if err != nil {
		respondError(w, err)
		return
	}
	st := s.store.Get()
	if _, ok := st.Widgets[key]; !ok {
		respondError(w, errors.New(errors.ErrCodeNotFound, "widget %q not found", key))
		return
	}
	if !st.CanDeleteWidget(key) {
		respondError(w, errors.New(errors.ErrCodeCannotChange, "widget %q is required by a scene", key))
		return
	}
	s.mutate(w, func() { s.store.DeleteWidget(key) })
}

func (s *Server[T]) handleCurrentLayout(w http.ResponseWriter, r *http.Request) {
	st := s.store.Get()
	key, l, ok := st.CurrentLayout()
	if !ok {
		respondError(w, errors.New(errors.ErrCodeNotFound, "scene %q has no current layout", st.CurrentScene))
		return
	}
	names := make(map[string]string)
	for _, widget := range l.Widgets() {
		names[widget] = s.store.WidgetName(st.CurrentScene, key, widget)
	}
	respondJSON(w, http.StatusOK, CurrentLayoutResponse{
		Scene:     st.CurrentScene,
		Key:       key,
		Layout:    l,
		Available: st.AvailableWidgets(key),
		Names:     names,
	})
}

// handleSetLayout replaces a layout. A rejected edit answers 409 and
// acknowledges the store's one-shot error.
func (s *Server[T]) handleSetLayout(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r, "layout")
	if err != nil {
		respondError(w, err)
		return
	}
	var l layout.Layout
	if err := decodeBody(r, &l); err != nil {
		respondError(w, err)
		return
	}
	s.editMu.Lock()
	defer s.editMu.Unlock()
	before := s.store.Get()
	s.store.SetLayout(key, l)
	after := s.store.Get()
	if after.Error != "" && after.LayoutSerial != before.LayoutSerial {
		s.store.ClearError()
		respondError(w, errors.FromCode(after.Error))
		return
	}
	respondJSON(w, http.StatusOK, MutationResponse[T]{Changed: after != before, State: viewOf(after)})
}

func (s *Server[T]) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	key, err := s.layoutParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	s.mutate(w, func() { s.store.DeleteLayout(key) })
}

func (s *Server[T]) handleAvailable(w http.ResponseWriter, r *http.Request) {
	key, err := s.layoutParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"widgets": s.store.Get().AvailableWidgets(key)})
}

func (s *Server[T]) handleCanAdd(w http.ResponseWriter, r *http.Request) {
	key, err := s.layoutParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	widget, err := keyParam(r, "widget")
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"allowed": s.store.Get().CanAddWidgetToLayout(key, widget)})
}

func (s *Server[T]) handleSplit(w http.ResponseWriter, r *http.Request) {
	key, err := s.layoutParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req SplitRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	dir, err := grid.ParseDirection(strings.ToLower(req.Direction))
	if err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid direction"))
		return
	}
	s.mutate(w, func() { s.store.SplitWidgetInLayout(key, req.Idx, dir) })
}

func (s *Server[T]) handleRemove(w http.ResponseWriter, r *http.Request) {
	key, err := s.layoutParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req IndexRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	s.mutate(w, func() { s.store.RemoveWidgetFromLayout(key, req.Idx) })
}

func (s *Server[T]) handleSwitchWidget(w http.ResponseWriter, r *http.Request) {
	key, err := s.layoutParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req SwitchWidgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	st := s.store.Get()
	if _, ok := st.Widgets[req.Widget]; !ok && req.Widget != layout.Empty {
		respondError(w, errors.New(errors.ErrCodeNotFound, "widget %q not found", req.Widget))
		return
	}
	if !st.CanAddWidgetToLayout(key, req.Widget) {
		respondError(w, errors.New(errors.ErrCodeInvalidInput, "widget %q is not allowed in layout %q", req.Widget, key))
		return
	}
	s.mutate(w, func() { s.store.SwitchWidgetInLayout(key, req.Idx, req.Widget) })
}

func (s *Server[T]) handleSwitchScene(w http.ResponseWriter, r *http.Request) {
	key, err := s.sceneParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	s.mutate(w, func() { s.store.SwitchScene(key) })
}

func (s *Server[T]) handleSwitchLayout(w http.ResponseWriter, r *http.Request) {
	key, err := s.sceneParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req LayoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	s.mutate(w, func() { s.store.SwitchLayout(key, req.Layout) })
}

func (s *Server[T]) handleAddLayout(w http.ResponseWriter, r *http.Request) {
	key, err := s.sceneParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req LayoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if _, ok := s.store.Get().Layouts[req.Layout]; !ok {
		respondError(w, errors.New(errors.ErrCodeNotFound, "layout %q not found", req.Layout))
		return
	}
	s.mutate(w, func() { s.store.AddLayoutToScene(key, req.Layout) })
}

func (s *Server[T]) handleStartEditing(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, s.store.StartEditing)
}

func (s *Server[T]) handleFinishEditing(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, s.store.FinishEditing)
}

func (s *Server[T]) handleRerender(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, s.store.ForceRerender)
}

func (s *Server[T]) handleClearError(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, s.store.ClearError)
}
