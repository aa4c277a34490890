package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"dexchat/pkg/auth"
	"dexchat/pkg/logger"
	"dexchat/pkg/models"
	"dexchat/pkg/store"
	"dexchat/pkg/utils"
	"dexchat/pkg/validation"
)

// RegisterMessages registers the owner-gated message endpoints.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/messages", listMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages", createMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}", updateMessage).Methods(http.MethodPatch)
	r.HandleFunc("/messages/{id}", deleteMessage).Methods(http.MethodDelete)
}

// requireMessageOwner loads a message the caller owns. Absence and foreign
// ownership both surface as 404: the id space is existence-masked.
func requireMessageOwner(w http.ResponseWriter, r *http.Request, id string) (models.Message, bool) {
	msg, err := store.GetMessage(id)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "message not found")
		return msg, false
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return msg, false
	}
	if msg.Owner != auth.OwnerFromContext(r.Context()) {
		utils.JSONError(w, http.StatusNotFound, "message not found")
		return msg, false
	}
	return msg, true
}

func listMessages(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.JSONError(w, http.StatusBadRequest, "sessionId query parameter is required")
		return
	}
	// Existence-ambiguous query: non-owners get the same 404 as a missing
	// session.
	sessOwner, err := store.SessionOwner(sessionID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && sessOwner != owner) {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	msgs, err := store.ListMessages(sessionID)
	if err != nil {
		logger.Error("list_messages_failed", "session", sessionID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	utils.JSONDataMeta(w, http.StatusOK, msgs, map[string]any{"count": len(msgs)})
}

func createMessage(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	var body struct {
		SessionID string          `json:"session_id"`
		Question  string          `json:"question"`
		Answer    string          `json:"answer"`
		Context   json.RawMessage `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateNewMessage(body.SessionID, body.Question, body.Answer); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg, err := store.CreateMessage(owner, body.SessionID, body.Question, body.Context, body.Answer, nil, nil)
	if errors.Is(err, store.ErrOwnerMismatch) {
		// The session id came from the body, so existence stays masked.
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		logger.Error("create_message_failed", "session", body.SessionID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.JSONData(w, http.StatusCreated, msg)
}

func updateMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := requireMessageOwner(w, r, id); !ok {
		return
	}
	var body struct {
		Question *string `json:"question,omitempty"`
		Answer   *string `json:"answer,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateMessagePatch(body.Question, body.Answer); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg, err := store.UpdateMessage(id, body.Question, body.Answer)
	if err != nil {
		logger.Error("update_message_failed", "msg_id", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.JSONData(w, http.StatusOK, msg)
}

func deleteMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := requireMessageOwner(w, r, id); !ok {
		return
	}
	if err := store.DeleteMessage(id); err != nil {
		logger.Error("delete_message_failed", "msg_id", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.JSONData(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
