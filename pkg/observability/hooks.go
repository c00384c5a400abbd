// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can register
// hooks at startup to receive events about layout edits, persistence, and
// HTTP API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [PrometheusHooks] is the bundled implementation used by `tessera serve`.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    h := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	    observability.SetStoreHooks(h)
//	    observability.SetPersistHooks(h.Persist())
//	    observability.SetHTTPHooks(h.HTTP())
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Store().OnMutation("splitWidgetInLayout", true)
//	observability.Store().OnReject("setLayout", "CANNOT_CHANGE")
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the layout state store.
type StoreHooks interface {
	// OnLoad records the initial state built from persisted data.
	OnLoad(widgets, layouts, scenes int, duration time.Duration)

	// OnMutation records a mutation call. changed is false for no-ops.
	OnMutation(op string, changed bool)

	// OnReject records an edit rejected with an error code.
	OnReject(op, code string)
}

// =============================================================================
// Persist Hooks
// =============================================================================

// PersistHooks receives events from persistence backends.
type PersistHooks interface {
	// OnLoad records a snapshot read. hit is false when nothing was stored.
	OnLoad(ctx context.Context, backend string, hit bool, duration time.Duration, err error)

	// OnSave records a snapshot write.
	OnSave(ctx context.Context, backend string, size int, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(int, int, int, time.Duration) {}
func (NoopStoreHooks) OnMutation(string, bool)             {}
func (NoopStoreHooks) OnReject(string, string)             {}

// NoopPersistHooks is a no-op implementation of PersistHooks.
type NoopPersistHooks struct{}

func (NoopPersistHooks) OnLoad(context.Context, string, bool, time.Duration, error) {}
func (NoopPersistHooks) OnSave(context.Context, string, int, time.Duration, error)  {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                     {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks   StoreHooks   = NoopStoreHooks{}
	persistHooks PersistHooks = NoopPersistHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store is created.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetPersistHooks registers custom persistence hooks.
// This should be called once at application startup before any persistence operations.
func SetPersistHooks(h PersistHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		persistHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving requests.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Persist returns the registered persistence hooks.
func Persist() PersistHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return persistHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	persistHooks = NoopPersistHooks{}
	httpHooks = NoopHTTPHooks{}
}
