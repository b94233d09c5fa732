package extension

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/atomic"
)

// RoutePrefix is the path under which the host mounts every extension route.
// The platform owns it, so extension routes cannot collide with core routes.
const RoutePrefix = "/api/extensions"

var routeSeq atomic.Uint64

// Route is one contribution recorded by a Routes accumulator.
type Route struct {
	Extension string // identifier of the contributing extension
	Method    string // empty for mounted sub-handlers
	Pattern   string
	Handler   http.Handler

	seq uint64
}

// Routes accumulates route contributions. It is a value: every method returns
// a new Routes and leaves the receiver untouched, so a hook that returns the
// value it was given keeps everyone else's contributions.
type Routes struct {
	owner   string
	entries []Route
	err     error
}

// Handle registers h for method and pattern, relative to RoutePrefix.
func (r Routes) Handle(method, pattern string, h http.Handler) Routes {
	method = strings.ToUpper(method)
	if method == "" {
		return r.fail(fmt.Errorf("route %q: empty method", pattern))
	}
	return r.add(method, pattern, h)
}

// Get registers a GET handler.
func (r Routes) Get(pattern string, h http.HandlerFunc) Routes {
	return r.Handle(http.MethodGet, pattern, h)
}

// Post registers a POST handler.
func (r Routes) Post(pattern string, h http.HandlerFunc) Routes {
	return r.Handle(http.MethodPost, pattern, h)
}

// Put registers a PUT handler.
func (r Routes) Put(pattern string, h http.HandlerFunc) Routes {
	return r.Handle(http.MethodPut, pattern, h)
}

// Patch registers a PATCH handler.
func (r Routes) Patch(pattern string, h http.HandlerFunc) Routes {
	return r.Handle(http.MethodPatch, pattern, h)
}

// Delete registers a DELETE handler.
func (r Routes) Delete(pattern string, h http.HandlerFunc) Routes {
	return r.Handle(http.MethodDelete, pattern, h)
}

// Mount attaches a sub-handler (typically a chi.Router) at pattern.
func (r Routes) Mount(pattern string, h http.Handler) Routes {
	return r.add("", pattern, h)
}

// Len returns the number of contributions.
func (r Routes) Len() int { return len(r.entries) }

// Entries returns a copy of the contributions in registration order.
func (r Routes) Entries() []Route {
	return append([]Route(nil), r.entries...)
}

// Err returns the first invalid contribution, if any.
func (r Routes) Err() error { return r.err }

// Handler compiles the contributions into a chi router. Paths are relative to
// RoutePrefix; the host strips the prefix when mounting.
func (r Routes) Handler() (h http.Handler, err error) {
	if r.err != nil {
		return nil, r.err
	}

	seen := make(map[string]string, len(r.entries))
	for _, e := range r.entries {
		key := e.Method + " " + e.Pattern
		if e.Method == "" {
			key = "MOUNT " + e.Pattern
		}
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s registered by %q and %q", ErrRouteConflict, key, prev, e.Extension)
		}
		seen[key] = e.Extension
	}

	mux := chi.NewRouter()
	defer func() {
		// chi panics on unsupported methods and overlapping mounts.
		if rec := recover(); rec != nil {
			h, err = nil, fmt.Errorf("%w: %v", ErrRouteConflict, rec)
		}
	}()
	for _, e := range r.entries {
		if e.Method == "" {
			mux.Mount(e.Pattern, e.Handler)
			continue
		}
		mux.Method(e.Method, e.Pattern, e.Handler)
	}
	return mux, nil
}

// withOwner returns r tagged so that later contributions are attributed to id.
func (r Routes) withOwner(id string) Routes {
	r.owner = id
	return r
}

// keeps reports whether r still starts with every contribution in prior.
func (r Routes) keeps(prior Routes) bool {
	if len(r.entries) < len(prior.entries) {
		return false
	}
	for i := range prior.entries {
		if r.entries[i].seq != prior.entries[i].seq {
			return false
		}
	}
	return true
}

func (r Routes) add(method, pattern string, h http.Handler) Routes {
	if !strings.HasPrefix(pattern, "/") {
		return r.fail(fmt.Errorf("route %q: pattern must begin with '/'", pattern))
	}
	if f, ok := h.(http.HandlerFunc); h == nil || (ok && f == nil) {
		return r.fail(fmt.Errorf("route %s %q: nil handler", method, pattern))
	}

	entries := make([]Route, len(r.entries), len(r.entries)+1)
	copy(entries, r.entries)
	r.entries = append(entries, Route{
		Extension: r.owner,
		Method:    method,
		Pattern:   pattern,
		Handler:   h,
		seq:       routeSeq.Inc(),
	})
	return r
}

func (r Routes) fail(err error) Routes {
	if r.err == nil {
		r.err = fmt.Errorf("extension %q: %w", r.owner, err)
	}
	return r
}
