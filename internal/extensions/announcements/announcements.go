// Package announcements is a built-in extension that stores operator notices
// in the host database and serves them under /announcements.
package announcements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/extensions/respond"
	"github.com/panelkit/panel/internal/state"
)

// Call names answered by this extension.
const (
	CallLatest = "announcements.latest"
	CallCreate = "announcements.create"
)

// activityKey is recorded through activity.record after each create.
const activityKey = "announcements.created"

// Descriptor describes the announcements extension.
var Descriptor = extension.Descriptor{
	Identifier:  "announcements",
	Name:        "Announcements",
	Description: "Operator notices stored in the panel database.",
	Authors:     []string{"Panel Maintainers"},
	Version:     "1.0.0",
}

// Extension implements extension.Extension.
type Extension struct {
	store  *Store
	st     *state.State
	logger *zap.Logger
}

// New returns the constructed announcements extension.
func New() extension.Constructed {
	return extension.Construct(Descriptor, &Extension{})
}

func (e *Extension) Initialize(ctx context.Context, st *state.State) error {
	if st == nil {
		return errors.New("announcements: no host state")
	}
	store, err := NewStore(ctx, st.DB)
	if err != nil {
		return err
	}
	e.store = store
	e.st = st
	e.logger = st.Logger
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.logger = e.logger.Named("announcements")
	return nil
}

func (e *Extension) InitializeRouter(_ context.Context, _ *state.State, routes extension.Routes) extension.Routes {
	return routes.
		Get("/announcements", e.handleList).
		Post("/announcements", e.handleCreate)
}

func (e *Extension) ProcessCall(ctx context.Context, name string, args extension.Args) (any, bool) {
	switch name {
	case CallLatest:
		limit := 0
		if len(args) > 0 {
			n, ok := extension.Arg[int](args, 0)
			if !ok {
				return fmt.Errorf("%w: %s wants (limit int), got %T", extension.ErrArgType, name, args[0]), true
			}
			limit = n
		}
		list, err := e.store.Latest(ctx, limit)
		if err != nil {
			return err, true
		}
		return list, true

	case CallCreate:
		title, ok1 := extension.Arg[string](args, 0)
		body, ok2 := extension.Arg[string](args, 1)
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: %s wants (title, body string)", extension.ErrArgType, name), true
		}
		a, err := e.create(ctx, title, body)
		if err != nil {
			return err, true
		}
		return a, true
	}
	return nil, false
}

func (e *Extension) create(ctx context.Context, title, body string) (*Announcement, error) {
	a, err := e.store.Create(ctx, title, body)
	if err != nil {
		return nil, err
	}
	e.logger.Info("announcement created", zap.Uint("id", a.ID), zap.String("title", a.Title))

	// Activity tracking is optional; an unhandled call is fine.
	if v, handled := e.st.Call(ctx, "activity.record", activityKey); handled {
		if err, ok := v.(error); ok {
			e.logger.Warn("recording activity failed", zap.Error(err))
		}
	}
	return a, nil
}

type createRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (e *Extension) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := e.store.Latest(r.Context(), limit)
	if err != nil {
		e.logger.Error("listing announcements", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not list announcements")
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (e *Extension) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	a, err := e.create(r.Context(), req.Title, req.Body)
	switch {
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrTitleTooLong):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case err != nil:
		e.logger.Error("creating announcement", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not create announcement")
	default:
		respond.JSON(w, http.StatusCreated, a)
	}
}
