package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/panelkit/panel/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockExtension records hook invocations and answers a fixed set of calls.
type mockExtension struct {
	Base

	id       string
	initErr  error
	onInit   func(ctx context.Context, st *state.State)
	router   func(routes Routes) Routes
	process  func(ctx context.Context, name string, args Args) (any, bool)
	handles  map[string]any
	mu       sync.Mutex
	calls    int
	initRuns int
}

func (m *mockExtension) Initialize(ctx context.Context, st *state.State) error {
	m.mu.Lock()
	m.initRuns++
	m.mu.Unlock()
	if m.onInit != nil {
		m.onInit(ctx, st)
	}
	return m.initErr
}

func (m *mockExtension) InitializeRouter(_ context.Context, _ *state.State, routes Routes) Routes {
	if m.router != nil {
		return m.router(routes)
	}
	return routes
}

func (m *mockExtension) ProcessCall(ctx context.Context, name string, args Args) (any, bool) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.process != nil {
		if v, ok := m.process(ctx, name, args); ok {
			return v, true
		}
	}

	if name == "trace" {
		seen, _ := Arg[*[]string](args, 0)
		*seen = append(*seen, m.id)
		if last, _ := Arg[string](args, 1); last == m.id {
			return *seen, true
		}
		return nil, false
	}
	v, ok := m.handles[name]
	return v, ok
}

func (m *mockExtension) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func construct(exts ...*mockExtension) []Constructed {
	out := make([]Constructed, len(exts))
	for i, e := range exts {
		out[i] = Construct(Descriptor{
			Identifier:  e.id,
			Name:        e.id,
			Description: "mock " + e.id,
			Authors:     []string{"tester"},
			Version:     "1.0.0",
		}, e)
	}
	return out
}

func newReady(t *testing.T, exts ...*mockExtension) *Registry {
	t.Helper()
	r, err := New(construct(exts...), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	_, err = r.Init(context.Background(), &state.State{})
	require.NoError(t, err)
	require.Equal(t, PhaseReady, r.Phase())
	return r
}

func TestNew_DuplicateIdentifier(t *testing.T) {
	exts := construct(&mockExtension{id: "billing"}, &mockExtension{id: "audit"}, &mockExtension{id: "billing"})

	r, err := New(exts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))
	assert.Contains(t, err.Error(), `"billing"`)
	assert.Nil(t, r, "a registry with duplicates must never reach Ready")
}

func TestNew_InvalidEntries(t *testing.T) {
	_, err := New([]Constructed{{Descriptor: Descriptor{}, Extension: &mockExtension{}}})
	assert.Error(t, err)

	_, err = New([]Constructed{{Descriptor: Descriptor{Identifier: "nil-impl"}}})
	assert.Error(t, err)
}

func TestNew_DescriptorsAreCopied(t *testing.T) {
	authors := []string{"0x7d8"}
	exts := []Constructed{Construct(Descriptor{Identifier: "test", Authors: authors}, &mockExtension{id: "test"})}
	authors[0] = "mutated"

	r, err := New(exts)
	require.NoError(t, err)

	descs := r.Descriptors()
	descs[0].Authors[0] = "mutated again"

	got, ok := r.Lookup("test")
	require.True(t, ok)
	assert.Equal(t, []string{"0x7d8"}, got.Authors)
}

func TestInit_RunsInRegistrationOrder(t *testing.T) {
	const n = 12

	for run := 0; run < 25; run++ {
		var (
			mu       sync.Mutex
			counter  int
			observed = make([]int, n)
		)

		exts := make([]*mockExtension, n)
		for i := range exts {
			i := i
			exts[i] = &mockExtension{
				id: fmt.Sprintf("ext-%02d", i),
				onInit: func(context.Context, *state.State) {
					mu.Lock()
					defer mu.Unlock()
					observed[i] = counter
					counter++
				},
			}
		}

		newReady(t, exts...)
		for i := range observed {
			require.Equal(t, i, observed[i], "run %d", run)
		}
		for _, e := range exts {
			require.Equal(t, 1, e.initRuns)
		}
	}
}

func TestInit_FailureAbortsBoot(t *testing.T) {
	cause := errors.New("schema migration failed")
	first := &mockExtension{id: "first"}
	broken := &mockExtension{id: "broken", initErr: cause}
	never := &mockExtension{id: "never", handles: map[string]any{"x": 1}}

	r, err := New(construct(first, broken, never))
	require.NoError(t, err)

	handler, err := r.Init(context.Background(), &state.State{})
	require.Error(t, err)
	assert.Nil(t, handler)

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "broken", initErr.Identifier)
	assert.True(t, errors.Is(err, cause))

	assert.Equal(t, 1, first.initRuns)
	assert.Equal(t, 0, never.initRuns, "extensions after the failure must not run")
	assert.Equal(t, PhaseFailed, r.Phase())

	_, handled := r.Call(context.Background(), "x")
	assert.False(t, handled)
}

func TestInit_OnlyOnce(t *testing.T) {
	r := newReady(t, &mockExtension{id: "one"})

	_, err := r.Init(context.Background(), &state.State{})
	assert.True(t, errors.Is(err, ErrAlreadyInitialized))
	assert.Equal(t, PhaseReady, r.Phase())
}

func TestInit_CancelledContext(t *testing.T) {
	ext := &mockExtension{id: "one"}
	r, err := New(construct(ext))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Init(ctx, &state.State{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, ext.initRuns)
	assert.Equal(t, PhaseFailed, r.Phase())
}

func TestCall_FirstResponder(t *testing.T) {
	first := &mockExtension{id: "first"}
	second := &mockExtension{id: "second", handles: map[string]any{"x": "from second"}}
	third := &mockExtension{id: "third", handles: map[string]any{"x": "from third"}}
	r := newReady(t, first, second, third)

	got, handled := r.Call(context.Background(), "x", 1, "two")
	require.True(t, handled)
	assert.Equal(t, "from second", got)
	assert.Equal(t, 1, first.callCount())
	assert.Equal(t, 1, second.callCount())
	assert.Equal(t, 0, third.callCount(), "dispatch must stop at the first responder")
}

func TestCall_Unhandled(t *testing.T) {
	exts := []*mockExtension{
		{id: "a", handles: map[string]any{"x": 1}},
		{id: "b"},
		{id: "c"},
	}
	r := newReady(t, exts...)

	got, handled := r.Call(context.Background(), "y")
	assert.False(t, handled)
	assert.Nil(t, got)
	for _, e := range exts {
		assert.Equal(t, 1, e.callCount())
	}
}

func TestCall_BeforeInit(t *testing.T) {
	ext := &mockExtension{id: "a", handles: map[string]any{"x": 1}}
	r, err := New(construct(ext))
	require.NoError(t, err)

	_, handled := r.Call(context.Background(), "x")
	assert.False(t, handled)
	assert.Equal(t, 0, ext.callCount())
}

func TestCall_CancelledContext(t *testing.T) {
	ext := &mockExtension{id: "a", handles: map[string]any{"x": 1}}
	r := newReady(t, ext)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, handled := r.Call(ctx, "x")
	assert.False(t, handled)
	assert.Equal(t, 0, ext.callCount())
}

func TestCall_DuringInitializeDoesNotDeadlock(t *testing.T) {
	var (
		answered bool
		handled  bool
	)
	provider := &mockExtension{id: "provider", handles: map[string]any{"x": 1}}
	consumer := &mockExtension{
		id: "consumer",
		onInit: func(ctx context.Context, st *state.State) {
			_, handled = st.Call(ctx, "x")
			answered = true
		},
	}

	r, err := New(construct(provider, consumer))
	require.NoError(t, err)
	st := &state.State{Calls: r}

	_, err = r.Init(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, answered)
	assert.False(t, handled)

	_, handled = st.Call(context.Background(), "x")
	assert.True(t, handled, "calls work once the registry is ready")
}

type workerKey struct{}

func TestCall_RetainedInitContextDispatchesAfterReady(t *testing.T) {
	var kept context.Context
	provider := &mockExtension{id: "provider", handles: map[string]any{"x": 1}}
	worker := &mockExtension{
		id: "worker",
		onInit: func(ctx context.Context, _ *state.State) {
			kept = context.WithValue(ctx, workerKey{}, "background")
		},
	}
	r := newReady(t, provider, worker)
	require.NotNil(t, kept)

	got, handled := r.Call(kept, "x")
	require.True(t, handled)
	assert.Equal(t, 1, got)
}

func TestCall_NestedWithPendingWriter(t *testing.T) {
	var r *Registry
	entered := make(chan struct{})
	outer := &mockExtension{
		id: "outer",
		process: func(ctx context.Context, name string, _ Args) (any, bool) {
			if name != "outer" {
				return nil, false
			}
			close(entered)
			// Give the writer time to queue on the lock.
			time.Sleep(50 * time.Millisecond)
			return r.Call(ctx, "inner")
		},
	}
	inner := &mockExtension{id: "inner", handles: map[string]any{"inner": "ok"}}
	r = newReady(t, outer, inner)

	type result struct {
		v       any
		handled bool
	}
	done := make(chan result, 1)
	go func() {
		v, handled := r.Call(context.Background(), "outer")
		done <- result{v, handled}
	}()
	<-entered

	var writers errgroup.Group
	writers.Go(func() error {
		r.mu.Lock()
		r.mu.Unlock() //nolint:staticcheck
		return nil
	})
	writers.Go(func() error {
		_, err := r.Init(context.Background(), &state.State{})
		if !errors.Is(err, ErrAlreadyInitialized) {
			return fmt.Errorf("second Init: %v", err)
		}
		return nil
	})

	select {
	case res := <-done:
		require.True(t, res.handled)
		assert.Equal(t, "ok", res.v)
	case <-time.After(2 * time.Second):
		t.Fatal("nested call blocked behind a pending writer")
	}
	require.NoError(t, writers.Wait())
}

func TestCall_ConcurrentCallersSeeFullList(t *testing.T) {
	const extCount = 5
	exts := make([]*mockExtension, extCount)
	want := make([]string, extCount)
	for i := range exts {
		want[i] = fmt.Sprintf("ext-%d", i)
		exts[i] = &mockExtension{id: want[i]}
	}
	r := newReady(t, exts...)

	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			var seen []string
			got, handled := r.Call(context.Background(), "trace", &seen, want[extCount-1])
			if !handled {
				return errors.New("trace call unhandled")
			}
			trail, ok := As[[]string](got)
			if !ok {
				return fmt.Errorf("unexpected result %T", got)
			}
			if fmt.Sprint(trail) != fmt.Sprint(want) {
				return fmt.Errorf("partial view: %v", trail)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestInit_ComposesRoutes(t *testing.T) {
	a := &mockExtension{id: "a", router: func(routes Routes) Routes {
		return routes.Get("/a", func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "a") })
	}}
	b := &mockExtension{id: "b"}
	c := &mockExtension{id: "c", router: func(routes Routes) Routes {
		return routes.
			Get("/c", func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "c") }).
			Post("/c", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
	}}

	r, err := New(construct(a, b, c))
	require.NoError(t, err)
	handler, err := r.Init(context.Background(), &state.State{})
	require.NoError(t, err)

	for _, tt := range []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/a", http.StatusOK, "a"},
		{http.MethodGet, "/c", http.StatusOK, "c"},
		{http.MethodPost, "/c", http.StatusCreated, ""},
		{http.MethodGet, "/b", http.StatusNotFound, ""},
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
		if tt.body != "" {
			assert.Equal(t, tt.body, rec.Body.String())
		}
	}

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "a", routes[0].Extension)
	assert.Equal(t, "c", routes[1].Extension)
	assert.Equal(t, "c", routes[2].Extension)
}

func TestInit_RouterHookDroppingContributionsFails(t *testing.T) {
	a := &mockExtension{id: "a", router: func(routes Routes) Routes {
		return routes.Get("/a", func(http.ResponseWriter, *http.Request) {})
	}}
	rogue := &mockExtension{id: "rogue", router: func(Routes) Routes {
		return Routes{}.Get("/rogue", func(http.ResponseWriter, *http.Request) {})
	}}

	r, err := New(construct(a, rogue))
	require.NoError(t, err)

	_, err = r.Init(context.Background(), &state.State{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRoutesDropped))

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "rogue", initErr.Identifier)
}

func TestInit_RouteConflictFails(t *testing.T) {
	handler := func(http.ResponseWriter, *http.Request) {}
	a := &mockExtension{id: "a", router: func(routes Routes) Routes { return routes.Get("/same", handler) }}
	b := &mockExtension{id: "b", router: func(routes Routes) Routes { return routes.Get("/same", handler) }}

	r, err := New(construct(a, b))
	require.NoError(t, err)

	_, err = r.Init(context.Background(), &state.State{})
	assert.True(t, errors.Is(err, ErrRouteConflict))
	assert.Equal(t, PhaseFailed, r.Phase())
}

func TestInit_InvalidRouteFails(t *testing.T) {
	a := &mockExtension{id: "a", router: func(routes Routes) Routes {
		return routes.Get("no-slash", func(http.ResponseWriter, *http.Request) {})
	}}

	r, err := New(construct(a))
	require.NoError(t, err)

	_, err = r.Init(context.Background(), &state.State{})
	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "a", initErr.Identifier)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext := &mockExtension{id: "a", handles: map[string]any{"x": 1}}

	r, err := New(construct(ext), WithMetrics(reg))
	require.NoError(t, err)
	_, err = r.Init(context.Background(), &state.State{})
	require.NoError(t, err)

	r.Call(context.Background(), "x")
	r.Call(context.Background(), "x")
	r.Call(context.Background(), "y")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.calls.WithLabelValues("x", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.calls.WithLabelValues("y", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.metrics.initDuration))
}

func TestMetrics_CallLabelsBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(construct(&mockExtension{id: "a"}), WithMetrics(reg))
	require.NoError(t, err)
	_, err = r.Init(context.Background(), &state.State{})
	require.NoError(t, err)

	for i := 0; i < maxCallLabels+10; i++ {
		r.Call(context.Background(), fmt.Sprintf("call-%d", i))
	}

	assert.Equal(t, maxCallLabels+1, testutil.CollectAndCount(r.metrics.calls))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.metrics.calls.WithLabelValues(otherCallLabel, "false")))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "uninitialized", PhaseUninitialized.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
