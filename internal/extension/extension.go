package extension

import (
	"context"

	"github.com/panelkit/panel/internal/state"
)

// Extension is the capability set every extension implements. Embed Base to
// opt out of the hooks an extension does not need.
type Extension interface {
	// Initialize runs once, in registration order, before any HTTP traffic
	// is served. An error aborts startup.
	Initialize(ctx context.Context, st *state.State) error

	// InitializeRouter receives the route accumulator and returns it,
	// possibly extended. Prior contributions must be kept.
	InitializeRouter(ctx context.Context, st *state.State, routes Routes) Routes

	// ProcessCall handles a named call. It returns (nil, false) when name is
	// not recognized, and (result, true) when handled. Errors from a handled
	// call travel inside result.
	ProcessCall(ctx context.Context, name string, args Args) (any, bool)
}

// Base provides no-op defaults for every hook.
type Base struct{}

// Initialize does nothing.
func (Base) Initialize(context.Context, *state.State) error { return nil }

// InitializeRouter returns routes unchanged.
func (Base) InitializeRouter(_ context.Context, _ *state.State, routes Routes) Routes {
	return routes
}

// ProcessCall handles nothing.
func (Base) ProcessCall(context.Context, string, Args) (any, bool) { return nil, false }
