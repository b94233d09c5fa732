package extension

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/panelkit/panel/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Phase is the registry's position in its boot state machine.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for lifecycle and dispatch events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics registers dispatch and boot metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Registry) {
		if reg != nil {
			r.metrics = newMetrics(reg)
		}
	}
}

// initializingKey marks contexts handed to boot hooks.
type initializingKey struct{}

// dispatchingKey marks contexts handed to ProcessCall while the caller holds
// the read lock.
type dispatchingKey struct{}

// Registry owns the compiled-in extensions, drives their boot hooks and
// dispatches calls between them.
//
// The extension slice is fixed by New. Init holds the write lock for the
// whole sequential boot; Call and the read accessors take the read lock, so
// any number of calls run concurrently once the registry is ready. A call
// made from inside ProcessCall reuses the outer call's read lock, so a
// pending writer cannot wedge nested dispatch.
type Registry struct {
	mu         sync.RWMutex
	extensions []Constructed
	index      map[string]int
	routes     Routes
	phase      atomic.Int32

	logger  *zap.Logger
	metrics *metrics
}

// New takes ownership of exts in registration order. Two entries with the
// same identifier yield ErrDuplicateIdentifier.
func New(exts []Constructed, opts ...Option) (*Registry, error) {
	r := &Registry{
		extensions: make([]Constructed, 0, len(exts)),
		index:      make(map[string]int, len(exts)),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "extensions"))

	for i, c := range exts {
		id := c.Descriptor.Identifier
		if id == "" {
			return nil, fmt.Errorf("extension at position %d has an empty identifier", i)
		}
		if c.Extension == nil {
			return nil, fmt.Errorf("extension %q has no implementation", id)
		}
		if prev, ok := r.index[id]; ok {
			return nil, fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateIdentifier, id, prev, i)
		}
		r.index[id] = i
		r.extensions = append(r.extensions, Constructed{
			Descriptor: c.Descriptor.clone(),
			Extension:  c.Extension,
		})
	}

	return r, nil
}

// Phase returns the current boot phase. It never blocks.
func (r *Registry) Phase() Phase {
	return Phase(r.phase.Load())
}

// Init runs Initialize and then InitializeRouter for every extension, one at
// a time in registration order, and returns the composed route handler for
// the host to mount under RoutePrefix. The first failure aborts the boot and
// leaves the registry in PhaseFailed.
func (r *Registry) Init(ctx context.Context, st *state.State) (http.Handler, error) {
	if phase := r.Phase(); phase != PhaseUninitialized {
		return nil, fmt.Errorf("%w (phase %s)", ErrAlreadyInitialized, phase)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.phase.CompareAndSwap(int32(PhaseUninitialized), int32(PhaseInitializing)) {
		return nil, fmt.Errorf("%w (phase %s)", ErrAlreadyInitialized, r.Phase())
	}

	hookCtx := context.WithValue(ctx, initializingKey{}, r)
	routes := Routes{}

	for _, c := range r.extensions {
		desc := c.Descriptor
		if err := ctx.Err(); err != nil {
			return nil, r.fail(fmt.Errorf("extension initialization interrupted before %q: %w", desc.Identifier, err))
		}

		start := time.Now()
		r.logger.Debug("initializing extension",
			zap.String("extension", desc.Identifier),
			zap.String("version", desc.Version),
		)

		if err := c.Extension.Initialize(hookCtx, st); err != nil {
			return nil, r.fail(&InitializationError{Identifier: desc.Identifier, Err: err})
		}

		prior := routes
		routes = c.Extension.InitializeRouter(hookCtx, st, prior.withOwner(desc.Identifier))
		if err := routes.Err(); err != nil {
			return nil, r.fail(&InitializationError{Identifier: desc.Identifier, Err: err})
		}
		if !routes.keeps(prior) {
			return nil, r.fail(&InitializationError{Identifier: desc.Identifier, Err: ErrRoutesDropped})
		}

		elapsed := time.Since(start)
		r.metrics.recordInit(desc.Identifier, elapsed)
		r.logger.Info("extension initialized",
			zap.String("extension", desc.Identifier),
			zap.String("version", desc.Version),
			zap.Int("routes", routes.Len()-prior.Len()),
			zap.Duration("elapsed", elapsed),
		)
	}

	handler, err := routes.withOwner("").Handler()
	if err != nil {
		return nil, r.fail(fmt.Errorf("composing extension routes: %w", err))
	}

	r.routes = routes
	r.phase.Store(int32(PhaseReady))
	r.logger.Info("extensions ready",
		zap.Int("extensions", len(r.extensions)),
		zap.Int("routes", routes.Len()),
	)
	return handler, nil
}

func (r *Registry) fail(err error) error {
	r.phase.Store(int32(PhaseFailed))
	r.logger.Error("extension boot failed", zap.Error(err))
	return err
}

// Call asks each extension, in registration order, to handle name and returns
// the first handled result. handled is false when no extension recognizes
// name, which is a normal outcome rather than an error.
//
// Calls made with a boot hook's context while the boot is still running are
// answered unhandled: the boot sequence holds the write lock and waiting for
// it would deadlock. A cancelled ctx stops the scan between extensions.
func (r *Registry) Call(ctx context.Context, name string, args ...any) (result any, handled bool) {
	if owner, _ := ctx.Value(initializingKey{}).(*Registry); owner == r && r.Phase() == PhaseInitializing {
		r.logger.Warn("extension call during initialization ignored", zap.String("call", name))
		r.metrics.recordCall(name, false)
		return nil, false
	}

	if owner, _ := ctx.Value(dispatchingKey{}).(*Registry); owner != r {
		r.mu.RLock()
		defer r.mu.RUnlock()
		ctx = context.WithValue(ctx, dispatchingKey{}, r)
	}

	if phase := r.Phase(); phase != PhaseReady {
		r.logger.Debug("extension call before registry ready",
			zap.String("call", name),
			zap.Stringer("phase", phase),
		)
		r.metrics.recordCall(name, false)
		return nil, false
	}

	a := Args(args)
	for _, c := range r.extensions {
		if ctx.Err() != nil {
			r.metrics.recordCall(name, false)
			return nil, false
		}
		if v, ok := c.Extension.ProcessCall(ctx, name, a); ok {
			r.metrics.recordCall(name, true)
			return v, true
		}
	}

	r.logger.Debug("extension call unhandled", zap.String("call", name))
	r.metrics.recordCall(name, false)
	return nil, false
}

// Descriptors returns the compiled-in descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.extensions))
	for i, c := range r.extensions {
		out[i] = c.Descriptor.clone()
	}
	return out
}

// Lookup returns the descriptor registered under identifier.
func (r *Registry) Lookup(identifier string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[identifier]
	if !ok {
		return Descriptor{}, false
	}
	return r.extensions[i].Descriptor.clone(), true
}

// Routes returns the contributions composed by Init. It is empty before the
// registry is ready.
func (r *Registry) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.routes.Entries()
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	return len(r.extensions)
}
