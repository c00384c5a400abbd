package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/tessera/pkg/grid"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/persist"
	"github.com/matzehuels/tessera/pkg/scene"
	"github.com/matzehuels/tessera/pkg/store"
)

func cell(widget string, x, y, w, h int) layout.Instance {
	return layout.Instance{Widget: widget, Dim: grid.Dim{X: x, Y: y, W: w, H: h}}
}

func newTestServer(t *testing.T, p persist.Store) (*Server[string], *store.Store[string]) {
	t.Helper()
	st, err := store.New(store.Options[string]{
		XSize:        10,
		YSize:        10,
		SceneKeys:    []string{"main", "kiosk"},
		InitialScene: "main",
		InitializeWidgets: func(m map[string]string) map[string]string {
			m["controller"] = "Controller"
			m["page"] = "Page"
			m["ads"] = "Ads"
			return m
		},
		InitializeLayouts: func(m layout.Map) layout.Map {
			m["main"] = layout.Layout{cell("controller", 0, 0, 10, 2), cell("page", 0, 2, 10, 8)}
			m["alt"] = layout.Layout{cell("page", 0, 0, 10, 10)}
			return m
		},
		InitializeScenes: func(m scene.Map) scene.Map {
			m["main"] = scene.Scene{
				Layouts:       []string{"main"},
				CurrentLayout: "main",
				Widgets:       &scene.Restriction{Required: []string{"controller"}, Disallowed: []string{"ads"}},
			}
			m["kiosk"] = scene.Scene{Layouts: []string{"alt"}, CurrentLayout: "alt"}
			return m
		},
		LocalizeWidget: func(_, _, _ string, data string) string { return data },
		Logger:         log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	srv := New(Config[string]{Store: st, Persist: p, Logger: log.New(io.Discard)})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[V any](t *testing.T, rec *httptest.ResponseRecorder) V {
	t.Helper()
	var v V
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthzAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header should be set")
	}
}

func TestGetState(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	view := decode[StateView[string]](t, rec)
	if view.XSize != 10 || view.CurrentScene != "main" {
		t.Errorf("state = %+v, want 10x10 on main", view)
	}
	if len(view.Layouts["main"]) != 2 {
		t.Errorf("len(layouts[main]) = %d, want 2", len(view.Layouts["main"]))
	}
}

func TestSplitAndRemove(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/layouts/main/split", SplitRequest{Idx: 1, Direction: "Vertical"})
	if rec.Code != http.StatusOK {
		t.Fatalf("split status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[MutationResponse[string]](t, rec)
	if !resp.Changed {
		t.Error("split should report changed")
	}
	want := layout.Layout{cell("controller", 0, 0, 10, 2), cell("page", 0, 2, 10, 4), cell("", 0, 6, 10, 4)}
	if diff := cmp.Diff(want, st.Get().Layouts["main"]); diff != "" {
		t.Errorf("layout after split (-want +got):\n%s", diff)
	}

	rec = do(t, h, http.MethodPost, "/api/layouts/main/remove", IndexRequest{Idx: 0})
	resp = decode[MutationResponse[string]](t, rec)
	if resp.Changed {
		t.Error("removing the required controller should not change state")
	}
}

func TestSplitErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown layout", "/api/layouts/nope/split", SplitRequest{Direction: "horizontal"}, http.StatusNotFound},
		{"bad direction", "/api/layouts/main/split", SplitRequest{Direction: "diagonal"}, http.StatusBadRequest},
		{"bad body", "/api/layouts/main/split", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestSetLayoutConflict(t *testing.T) {
	srv, st := newTestServer(t, nil)

	rec := do(t, srv.Handler(), http.MethodPut, "/api/layouts/main",
		layout.Layout{cell("controller", 10, 0, 2, 2), cell("page", 0, 0, 10, 10)})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
	body := decode[errorResponse](t, rec)
	if body.Code != "CANNOT_CHANGE" {
		t.Errorf("code = %q, want CANNOT_CHANGE", body.Code)
	}

	got := st.Get()
	if got.Error != "" {
		t.Errorf("store error = %q, want acknowledged", got.Error)
	}
	if got.LayoutSerial != 1 {
		t.Errorf("LayoutSerial = %d, want 1", got.LayoutSerial)
	}
}

func TestSwitchWidget(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/layouts/main/switch", SwitchWidgetRequest{Idx: 1, Widget: "ads"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("switch to disallowed status = %d, want 400", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/layouts/main/switch", SwitchWidgetRequest{Idx: 1, Widget: "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("switch to unknown status = %d, want 404", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/layouts/main/switch", SwitchWidgetRequest{Idx: 1, Widget: "controller"})
	if rec.Code != http.StatusOK {
		t.Fatalf("switch status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := st.Get().Layouts["main"].Count("controller"); got != 2 {
		t.Errorf("Count(controller) = %d, want 2", got)
	}
}

func TestAvailableAndCanAdd(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/layouts/main/available", nil)
	got := decode[map[string][]string](t, rec)
	if diff := cmp.Diff([]string{"controller", "page"}, got["widgets"]); diff != "" {
		t.Errorf("available (-want +got):\n%s", diff)
	}

	rec = do(t, h, http.MethodGet, "/api/layouts/main/can-add/ads", nil)
	if allowed := decode[map[string]bool](t, rec)["allowed"]; allowed {
		t.Error("ads should not be allowed in main")
	}
	rec = do(t, h, http.MethodGet, "/api/layouts/alt/can-add/ads", nil)
	if allowed := decode[map[string]bool](t, rec)["allowed"]; !allowed {
		t.Error("ads should be allowed in alt")
	}
}

func TestScenesAndCurrentLayout(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/layouts/current", nil)
	cur := decode[CurrentLayoutResponse](t, rec)
	if cur.Key != "main" || cur.Names["controller"] != "Controller" {
		t.Errorf("current = %+v, want main with localized names", cur)
	}

	rec = do(t, h, http.MethodPost, "/api/scenes/main/layouts", LayoutRequest{Layout: "alt"})
	if !decode[MutationResponse[string]](t, rec).Changed {
		t.Error("adding alt to main should change state")
	}
	rec = do(t, h, http.MethodPost, "/api/scenes/main/layout", LayoutRequest{Layout: "alt"})
	if !decode[MutationResponse[string]](t, rec).Changed {
		t.Error("switching main to alt should change state")
	}
	rec = do(t, h, http.MethodPost, "/api/scenes/kiosk/activate", nil)
	resp := decode[MutationResponse[string]](t, rec)
	if resp.State.CurrentScene != "kiosk" {
		t.Errorf("CurrentScene = %q, want kiosk", resp.State.CurrentScene)
	}

	rec = do(t, h, http.MethodPost, "/api/scenes/ghost/activate", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown scene status = %d, want 404", rec.Code)
	}
}

func TestDeleteWidget(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	if rec := do(t, h, http.MethodDelete, "/api/widgets/controller", nil); rec.Code != http.StatusConflict {
		t.Errorf("delete required status = %d, want 409", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/widgets/ghost", nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete unknown status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/widgets/page", nil); rec.Code != http.StatusOK {
		t.Errorf("delete page status = %d, want 200", rec.Code)
	}
	if l, ok := st.Get().Layouts["alt"]; !ok || len(l) != 0 {
		t.Errorf("alt layout = %v, want empty after deleting page", st.Get().Layouts["alt"])
	}
}

func TestEditingCycle(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/api/editing/start", nil)
	if !st.Get().Editing {
		t.Fatal("editing should be on")
	}
	do(t, h, http.MethodPost, "/api/layouts/main/split", SplitRequest{Idx: 1, Direction: "horizontal"})
	do(t, h, http.MethodPost, "/api/editing/finish", nil)

	got := st.Get()
	if got.Editing {
		t.Error("editing should be off")
	}
	if n := got.Layouts["main"].Count(""); n != 0 {
		t.Errorf("empty placeholders after finish = %d, want 0", n)
	}

	do(t, h, http.MethodPost, "/api/rerender", nil)
	if st.Get().LayoutSerial != 1 {
		t.Errorf("LayoutSerial = %d, want 1", st.Get().LayoutSerial)
	}
}

func TestAutosave(t *testing.T) {
	p := persist.NewMemoryStore()
	srv, _ := newTestServer(t, p)
	h := srv.Handler()
	ctx := context.Background()

	if _, ok, _ := p.Get(ctx, persist.DefaultKey); ok {
		t.Fatal("nothing should be saved before the first change")
	}

	do(t, h, http.MethodPut, "/api/widgets/clock", "Clock")

	data, ok, err := p.Get(ctx, persist.DefaultKey)
	if err != nil || !ok {
		t.Fatalf("snapshot not saved: ok %v, err %v", ok, err)
	}
	var snap map[string]map[string]any
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if snap["widgets"]["clock"] != "Clock" {
		t.Errorf("saved widgets = %v, want clock", snap["widgets"])
	}

	rec := do(t, h, http.MethodGet, "/api/snapshot", nil)
	if !bytes.Equal(bytes.TrimSpace(rec.Body.Bytes()), data) {
		t.Errorf("GET /api/snapshot = %s, want saved snapshot %s", rec.Body.String(), data)
	}
}

// gatedStore holds its first Set until release is closed.
type gatedStore struct {
	persist.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		Store:   persist.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Store.Set(ctx, key, data, ttl)
}

func TestAutosaveKeepsLatestSnapshot(t *testing.T) {
	p := newGatedStore()
	_, st := newTestServer(t, p)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		st.SetWidget("clock", "Clock")
	}()
	<-p.entered

	go func() {
		defer wg.Done()
		st.DeleteLayout("alt")
	}()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := st.Get().Layouts["alt"]; !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("DeleteLayout() was not committed")
		}
		time.Sleep(time.Millisecond)
	}
	close(p.release)
	wg.Wait()

	saved, ok, err := p.Get(context.Background(), persist.DefaultKey)
	if err != nil || !ok {
		t.Fatalf("snapshot not saved: ok %v, err %v", ok, err)
	}
	want, err := st.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if diff := cmp.Diff(string(want), string(saved)); diff != "" {
		t.Errorf("saved snapshot is not the latest (-want +got):\n%s", diff)
	}
}

func TestConcurrentMutationsReportOwnChange(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	const n = 20
	type result struct {
		noop    bool
		code    int
		changed bool
	}
	results := make(chan result, 2*n)
	var wg sync.WaitGroup
	send := func(method, path, body string, noop bool) {
		defer wg.Done()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		var resp MutationResponse[string]
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		results <- result{noop: noop, code: rec.Code, changed: resp.Changed}
	}
	for i := 0; i < n; i++ {
		wg.Add(2)
		go send(http.MethodPost, "/api/scenes/main/activate", "", true)
		go send(http.MethodPut, "/api/widgets/w"+string(rune('a'+i)), `"W"`, false)
	}
	wg.Wait()
	close(results)

	for r := range results {
		if r.code != http.StatusOK {
			t.Errorf("status = %d, want %d", r.code, http.StatusOK)
			continue
		}
		if r.changed == r.noop {
			t.Errorf("changed = %v for no-op %v", r.changed, r.noop)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", rec.Code)
	}
}
