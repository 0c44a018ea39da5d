package codec

import (
	"fmt"
	"sync"
)

// Router is an Engine that dispatches each format to a dedicated engine.
// Engine handles are created lazily the first time a format needs them.
type Router struct {
	routes map[Format]Engine

	mu      sync.Mutex
	next    Handle
	handles map[Handle]*routedHandle
}

type routedHandle struct {
	sub       map[Engine]Handle
	active    Engine
	lastError string
	cancelled bool
}

// NewRouter builds a router from a format to engine mapping.
func NewRouter(routes map[Format]Engine) *Router {
	copied := make(map[Format]Engine, len(routes))
	for format, engine := range routes {
		if engine != nil {
			copied[format] = engine
		}
	}
	return &Router{routes: copied, handles: make(map[Handle]*routedHandle)}
}

// Supports reports whether a route exists for format.
func (r *Router) Supports(format Format) bool {
	_, ok := r.routes[format]
	return ok
}

func (r *Router) CreateHandle() (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.handles[r.next] = &routedHandle{sub: make(map[Engine]Handle)}
	return r.next, nil
}

func (r *Router) Encode(h Handle, sourcePath, outputPath string, format Format, progress func(float64)) bool {
	engine, ok := r.routes[format]

	r.mu.Lock()
	state := r.handles[h]
	if state == nil {
		r.mu.Unlock()
		return false
	}
	if !ok {
		state.lastError = fmt.Sprintf("%s: no engine configured for %s", ErrUnsupportedFormat, format)
		r.mu.Unlock()
		return false
	}
	sub, exists := state.sub[engine]
	if !exists {
		created, err := engine.CreateHandle()
		if err != nil {
			state.lastError = err.Error()
			r.mu.Unlock()
			return false
		}
		sub = created
		state.sub[engine] = sub
	}
	state.active = engine
	state.lastError = ""
	pendingCancel := state.cancelled
	state.cancelled = false
	r.mu.Unlock()

	if pendingCancel {
		engine.RequestCancel(sub)
	}
	success := engine.Encode(sub, sourcePath, outputPath, format, progress)

	r.mu.Lock()
	state.active = nil
	if !success {
		state.lastError = engine.LastError(sub)
	}
	r.mu.Unlock()
	return success
}

func (r *Router) LastError(h Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state := r.handles[h]; state != nil {
		return state.lastError
	}
	return ""
}

func (r *Router) RequestCancel(h Handle) {
	r.mu.Lock()
	state := r.handles[h]
	if state == nil {
		r.mu.Unlock()
		return
	}
	engine := state.active
	var sub Handle
	if engine != nil {
		sub = state.sub[engine]
	} else {
		state.cancelled = true
	}
	r.mu.Unlock()
	if engine != nil {
		engine.RequestCancel(sub)
	}
}

func (r *Router) DestroyHandle(h Handle) {
	r.mu.Lock()
	state := r.handles[h]
	delete(r.handles, h)
	r.mu.Unlock()
	if state == nil {
		return
	}
	for engine, sub := range state.sub {
		engine.DestroyHandle(sub)
	}
}

var _ Engine = (*Router)(nil)
