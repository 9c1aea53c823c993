package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/orcaflow/internal/core"
)

type controllerKey struct{}

// withController stores the session's controller for handlers.
func withController(ctx context.Context, c *core.Controller) context.Context {
	return context.WithValue(ctx, controllerKey{}, c)
}

// controllerFrom returns the controller stored by the session middleware.
func controllerFrom(r *http.Request) (*core.Controller, bool) {
	c, ok := r.Context().Value(controllerKey{}).(*core.Controller)
	return c, ok && c != nil
}
