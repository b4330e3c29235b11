package bib

import "sync"

// memo caches the resolved value of one object. A value is published only
// after its resolution completed, and it cannot be cleared while any
// resolution of the object is in flight.
type memo[T any] struct {
	mu     sync.Mutex
	value  T
	valid  bool
	flight int
}

func (m *memo[T]) load() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.value, m.valid
}

func (m *memo[T]) begin() {
	m.mu.Lock()
	m.flight++
	m.mu.Unlock()
}

// end finishes a resolution started with begin and publishes v.
func (m *memo[T]) end(v T) {
	m.mu.Lock()
	m.flight--
	m.value, m.valid = v, true
	m.mu.Unlock()
}

// abort finishes a resolution without publishing a value.
func (m *memo[T]) abort() {
	m.mu.Lock()
	m.flight--
	m.mu.Unlock()
}

// clear drops the cached value. It returns false and leaves the cache alone
// while a resolution is in flight.
func (m *memo[T]) clear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.flight > 0 {
		return false
	}

	var zero T

	m.value, m.valid = zero, false

	return true
}

// resolver carries the state of one top-level Resolve call.
type resolver struct {
	macros   Macros
	refresh  bool
	visiting map[any]struct{}
	fresh    map[any]struct{}
}

// ResolveOption configures a resolution.
type ResolveOption func(*resolver)

// WithMacros supplies style macros. A macro overrides a dictionary string of
// the same name. Names are case-insensitive.
func WithMacros(m Macros) ResolveOption {
	return func(r *resolver) {
		r.macros = make(Macros, len(m))
		for k, v := range m {
			r.macros[foldID(k)] = v
		}
	}
}

// WithRefresh ignores cached values and recomputes every object reached by
// the resolution, at most once per call.
func WithRefresh(refresh bool) ResolveOption {
	return func(r *resolver) { r.refresh = refresh }
}

func newResolver(opts ...ResolveOption) *resolver {
	r := &resolver{visiting: map[any]struct{}{}}
	for _, opt := range opts {
		opt(r)
	}

	if r.refresh {
		r.fresh = map[any]struct{}{}
	}

	return r
}

// cached reports whether node may be served from its memo.
func (r *resolver) cached(node any) bool {
	if !r.refresh {
		return true
	}

	_, ok := r.fresh[node]

	return ok
}

// enter marks node as being resolved. It returns false when node is already
// on the resolution path.
func (r *resolver) enter(node any) bool {
	if _, ok := r.visiting[node]; ok {
		return false
	}

	r.visiting[node] = struct{}{}

	return true
}

func (r *resolver) leave(node any) {
	delete(r.visiting, node)

	if r.refresh {
		r.fresh[node] = struct{}{}
	}
}
