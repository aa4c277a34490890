package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"dexchat/pkg/auth"
	"dexchat/pkg/chat"
	"dexchat/pkg/logger"
	"dexchat/pkg/store"
	"dexchat/pkg/stream"
	"dexchat/pkg/utils"
	"dexchat/pkg/validation"
)

// RegisterStream registers the SSE turn endpoint. The controller owns the
// pacing and tool configuration, so it is injected rather than global.
func RegisterStream(r *mux.Router, ctrl *chat.Controller) {
	r.HandleFunc("/sessions/{sessionID}/stream", func(w http.ResponseWriter, req *http.Request) {
		runTurn(w, req, ctrl)
	}).Methods(http.MethodPost)
}

func runTurn(w http.ResponseWriter, r *http.Request, ctrl *chat.Controller) {
	owner := auth.OwnerFromContext(r.Context())
	sessionID := mux.Vars(r)["sessionID"]
	if err := validation.ValidateSessionID(sessionID); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Message string          `json:"message"`
		Context json.RawMessage `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateTurnInput(body.Message); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Ownership is settled before the response switches to SSE. A session
	// created by someone else is an explicit-id denial, not a masked 404.
	switch sessOwner, err := store.SessionOwner(sessionID); {
	case errors.Is(err, store.ErrNotFound):
		// First turn in a fresh session; persistence claims it.
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	case sessOwner != owner:
		utils.JSONError(w, http.StatusForbidden, "session belongs to another user")
		return
	}

	em, err := stream.NewSSE(w)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	in := chat.Input{
		Owner:     owner,
		SessionID: sessionID,
		Message:   body.Message,
		Context:   body.Context,
	}
	if err := ctrl.Run(r.Context(), em, in); err != nil {
		// Headers are already on the wire; all we can do is log.
		logger.Warn("turn_ended_early", "session", sessionID, "owner", owner, "error", err)
	}
}
