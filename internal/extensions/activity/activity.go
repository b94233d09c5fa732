// Package activity is a built-in extension that counts named panel events.
// Other extensions report events through the activity.record call.
package activity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/extensions/respond"
	"github.com/panelkit/panel/internal/state"
)

// Call names answered by this extension.
const (
	CallRecord = "activity.record"
	CallCount  = "activity.count"
)

const maxKeyLen = 128

// ErrInvalidKey is returned for empty or oversized counter keys.
var ErrInvalidKey = errors.New("invalid activity key")

// Descriptor describes the activity extension.
var Descriptor = extension.Descriptor{
	Identifier:  "activity",
	Name:        "Activity",
	Description: "Counts panel events, shared across nodes when a cache is configured.",
	Authors:     []string{"Panel Maintainers"},
	Version:     "1.0.0",
}

// Extension implements extension.Extension.
type Extension struct {
	counter Counter
	logger  *zap.Logger
}

// New returns the constructed activity extension.
func New() extension.Constructed {
	return extension.Construct(Descriptor, &Extension{})
}

func (e *Extension) Initialize(_ context.Context, st *state.State) error {
	e.logger = zap.NewNop()
	if st != nil && st.Logger != nil {
		e.logger = st.Logger.Named("activity")
	}

	if st != nil && st.Cache != nil {
		e.counter = NewRedisCounter(st.Cache)
		e.logger.Debug("using redis counters")
		return nil
	}
	e.counter = NewMemoryCounter()
	e.logger.Info("no cache configured, activity counts are kept in memory")
	return nil
}

func (e *Extension) InitializeRouter(_ context.Context, _ *state.State, routes extension.Routes) extension.Routes {
	return routes.Get("/activity/{key}", e.handleCount)
}

func (e *Extension) ProcessCall(ctx context.Context, name string, args extension.Args) (any, bool) {
	if name != CallRecord && name != CallCount {
		return nil, false
	}

	key, ok := extension.Arg[string](args, 0)
	if !ok {
		return fmt.Errorf("%w: %s wants (key string)", extension.ErrArgType, name), true
	}
	if err := validateKey(key); err != nil {
		return err, true
	}

	var (
		n   int64
		err error
	)
	if name == CallRecord {
		n, err = e.counter.Incr(ctx, key)
	} else {
		n, err = e.counter.Get(ctx, key)
	}
	if err != nil {
		return err, true
	}
	return n, true
}

type countResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

func (e *Extension) handleCount(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := validateKey(key); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := e.counter.Get(r.Context(), key)
	if err != nil {
		e.logger.Error("reading activity count", zap.String("key", key), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not read activity count")
		return
	}
	respond.JSON(w, http.StatusOK, countResponse{Key: key, Count: n})
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if len(key) > maxKeyLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLen)
	}
	return nil
}
