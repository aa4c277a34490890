// Package api assembles the HTTP surface: the /v1/chats routes, the
// middleware chain that guards them, and the handler registration order.
package api

import (
	"github.com/gorilla/mux"

	"dexchat/pkg/api/handlers"
	"dexchat/pkg/auth"
	"dexchat/pkg/chat"
)

// NewRouter builds the versioned API router. Everything under /v1/chats
// except the by-user listing requires a bearer token; the stream endpoint
// additionally passes through the per-owner rate limiter.
func NewRouter(ctrl *chat.Controller) *mux.Router {
	r := mux.NewRouter()

	chats := r.PathPrefix("/v1/chats").Subrouter()

	// Listing by user id is deliberately unauthenticated; it serves the
	// operator console, which fronts its own access control.
	handlers.RegisterSessionsAdmin(chats)

	authed := chats.NewRoute().Subrouter()
	authed.Use(auth.RequireOwner)
	handlers.RegisterSessions(authed)
	handlers.RegisterMessages(authed)

	streamed := authed.NewRoute().Subrouter()
	streamed.Use(auth.LimitPerOwner)
	handlers.RegisterStream(streamed, ctrl)

	return r
}
