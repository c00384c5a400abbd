// Package store holds the layout state and the edits allowed on it.
//
// A [Store] owns one immutable [State] snapshot at a time. Every mutation
// computes a new snapshot from the current one and swaps it in; snapshots
// already handed out are never modified, so readers can compare pointers to
// detect change. A mutation that changes nothing keeps the current snapshot
// and does not notify subscribers.
//
// Mutations never return errors. An edit that would break the model's
// invariants is ignored, except for [Store.SetLayout], which also raises the
// one-shot [State.Error] and bumps [State.LayoutSerial] so a UI can roll
// back a drag or resize it has already drawn.
//
// # Usage
//
//	s, err := store.New(store.Options[string]{
//	    XSize:        10,
//	    YSize:        10,
//	    SceneKeys:    []string{"main"},
//	    InitialScene: "main",
//	})
//	if err != nil {
//	    return err
//	}
//	s.SplitWidgetInLayout("main", 0, grid.Horizontal)
//	st := s.Get()
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tessera/pkg/codec"
	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/layout"
	"github.com/matzehuels/tessera/pkg/observability"
	"github.com/matzehuels/tessera/pkg/persist"
	"github.com/matzehuels/tessera/pkg/scene"
)

// State is one snapshot of the layout model. Treat it as read-only.
type State[T any] struct {
	XSize int
	YSize int

	Widgets map[string]T
	Layouts layout.Map
	Scenes  scene.Map

	CurrentScene string
	Editing      bool

	// LayoutSerial increases whenever renderers must drop cached geometry
	// and redraw from the model.
	LayoutSerial int

	// Error is a one-shot error code. Consumers display it and clear it
	// with [Store.ClearError].
	Error errors.Code
}

// clone returns a shallow copy. Callers replace, never modify, the maps.
func (st *State[T]) clone() *State[T] {
	c := *st
	return &c
}

// Options configure a new store.
type Options[T any] struct {
	// XSize and YSize fix the grid size for the store's lifetime.
	XSize int
	YSize int

	// SceneKeys are the scenes the embedder knows about. Persisted scenes
	// with other keys are dropped.
	SceneKeys    []string
	InitialScene string

	// Initializers run after decoding, in this order. Each receives the
	// decoded map and returns the map to use.
	InitializeWidgets func(map[string]T) map[string]T
	InitializeLayouts func(layout.Map) layout.Map
	InitializeScenes  func(scene.Map) scene.Map

	// SerializeWidget and DeserializeWidget convert widget data to and from
	// its persisted form. The defaults store T as is.
	SerializeWidget   func(key string, w T) any
	DeserializeWidget func(key string, data any) (T, bool)

	// LocalizeWidget returns a display name for a widget. The default is
	// the widget key.
	LocalizeWidget func(scene, layout, widget string, data T) string

	// Persist enables decoding of Persisted. When false, Persisted is
	// ignored and the model comes from the initializers alone.
	Persist   bool
	Persisted any

	// Logger receives debug output about ignored edits. Defaults to
	// log.Default().
	Logger *log.Logger
}

// Store is the single writer of the layout state.
type Store[T any] struct {
	mu    sync.Mutex
	state atomic.Pointer[State[T]]

	sceneKeys []string
	serialize func(string, T) any
	localize  func(scene, layout, widget string, data T) string
	logger    *log.Logger

	listeners []listener[T]
	nextID    int
}

type listener[T any] struct {
	id int
	fn func(prev, next *State[T])
}

// New validates opts, decodes persisted data if enabled, runs the
// initializers, and returns a store positioned on the initial scene.
func New[T any](opts Options[T]) (*Store[T], error) {
	if err := errors.ValidateGridSize(opts.XSize, opts.YSize); err != nil {
		return nil, err
	}
	if err := errors.ValidateSceneKeys(opts.SceneKeys, opts.InitialScene); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	start := time.Now()
	var raw any
	if opts.Persist {
		raw = opts.Persisted
	}
	m := codec.Decode(raw, opts.SceneKeys, codec.Hooks[T]{
		DeserializeWidget: opts.DeserializeWidget,
		InitializeWidgets: opts.InitializeWidgets,
		InitializeLayouts: opts.InitializeLayouts,
		InitializeScenes:  opts.InitializeScenes,
	})
	observability.Store().OnLoad(len(m.Widgets), len(m.Layouts), len(m.Scenes), time.Since(start))
	logger.Debug("layout state loaded",
		"widgets", len(m.Widgets), "layouts", len(m.Layouts), "scenes", len(m.Scenes),
		"persisted", raw != nil)

	s := &Store[T]{
		sceneKeys: slices.Clone(opts.SceneKeys),
		serialize: opts.SerializeWidget,
		localize:  opts.LocalizeWidget,
		logger:    logger,
	}
	s.state.Store(&State[T]{
		XSize:        opts.XSize,
		YSize:        opts.YSize,
		Widgets:      m.Widgets,
		Layouts:      m.Layouts,
		Scenes:       m.Scenes,
		CurrentScene: opts.InitialScene,
	})
	return s, nil
}

// Open loads the snapshot stored under key from p (when opts.Persist is
// set) and creates a store from it. A missing snapshot is not an error.
func Open[T any](ctx context.Context, p persist.Store, key string, opts Options[T]) (*Store[T], error) {
	if opts.Persist && p != nil {
		data, ok, err := p.Get(ctx, key)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "load layout state %q", key)
		}
		if ok {
			opts.Persisted = data
		}
	}
	return New(opts)
}

// Get returns the current snapshot.
func (s *Store[T]) Get() *State[T] {
	return s.state.Load()
}

// Select applies fn to the current snapshot.
func Select[T, V any](s *Store[T], fn func(*State[T]) V) V {
	return fn(s.Get())
}

// SceneKeys returns the scene keys the store was created with.
func (s *Store[T]) SceneKeys() []string {
	return slices.Clone(s.sceneKeys)
}

// Subscribe registers fn to run after every committed change. Listeners run
// in registration order, outside the store's lock, so they may call back
// into the store. The returned function removes the listener.
func (s *Store[T]) Subscribe(fn func(prev, next *State[T])) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(l listener[T]) bool {
				return l.id == id
			})
		})
	}
}

// update runs fn against the current snapshot under the write lock. fn
// returns its argument to signal a no-op.
func (s *Store[T]) update(op string, fn func(*State[T]) *State[T]) {
	s.mu.Lock()
	prev := s.state.Load()
	next := fn(prev)
	changed := next != prev
	var ls []listener[T]
	if changed {
		s.state.Store(next)
		ls = slices.Clone(s.listeners)
	}
	s.mu.Unlock()

	observability.Store().OnMutation(op, changed)
	for _, l := range ls {
		l.fn(prev, next)
	}
}

// reject records an edit refused because of a scene restriction.
func (s *Store[T]) reject(op string, code errors.Code, keyvals ...any) {
	observability.Store().OnReject(op, string(code))
	s.logger.Debug("edit rejected", append([]any{"op", op, "code", code}, keyvals...)...)
}

// ignore records an edit that was a no-op.
func (s *Store[T]) ignore(op, reason string, keyvals ...any) {
	s.logger.Debug("edit ignored", append([]any{"op", op, "reason", reason}, keyvals...)...)
}

// Model returns the persisted part of the current snapshot.
func (st *State[T]) Model() codec.Model[T] {
	return codec.Model[T]{Widgets: st.Widgets, Layouts: st.Layouts, Scenes: st.Scenes}
}

// Marshal encodes the current snapshot for persistence.
func (s *Store[T]) Marshal() ([]byte, error) {
	return s.MarshalState(s.Get())
}

// MarshalState encodes st, a snapshot obtained from this store.
func (s *Store[T]) MarshalState(st *State[T]) ([]byte, error) {
	return codec.Marshal(st.Model(), s.serialize)
}

// Save writes the current snapshot to p under key. A ttl of zero keeps it
// until overwritten.
func (s *Store[T]) Save(ctx context.Context, p persist.Store, key string, ttl time.Duration) error {
	return s.SaveState(ctx, p, key, ttl, s.Get())
}

// SaveState writes st to p under key. Callers that save from several
// goroutines must order the calls themselves.
func (s *Store[T]) SaveState(ctx context.Context, p persist.Store, key string, ttl time.Duration, st *State[T]) error {
	data, err := s.MarshalState(st)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout state")
	}
	if err := p.Set(ctx, key, data, ttl); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save layout state %q", key)
	}
	s.logger.Debug("layout state saved", "key", key, "bytes", len(data), "serial", st.LayoutSerial)
	return nil
}

// String summarizes the snapshot for logs.
func (st *State[T]) String() string {
	return fmt.Sprintf("grid %dx%d, %d widgets, %d layouts, %d scenes, scene %q, serial %d",
		st.XSize, st.YSize, len(st.Widgets), len(st.Layouts), len(st.Scenes), st.CurrentScene, st.LayoutSerial)
}
