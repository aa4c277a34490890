package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"dexchat/pkg/auth"
	"dexchat/pkg/logger"
	"dexchat/pkg/models"
	"dexchat/pkg/store"
	"dexchat/pkg/utils"
)

// RegisterSessions registers the owner-gated session endpoints.
func RegisterSessions(r *mux.Router) {
	r.HandleFunc("/sessions", listSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{sessionID}", getSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{sessionID}", deleteSession).Methods(http.MethodDelete)
}

// RegisterSessionsAdmin registers the unauthenticated back-office listing.
func RegisterSessionsAdmin(r *mux.Router) {
	r.HandleFunc("/sessions/by-user/{userID}", listSessionsByUser).Methods(http.MethodGet)
}

// requireSessionOwner resolves ownership of an explicitly identified
// session. A missing session is 404; a session owned by someone else is
// 403, since the caller already proved the id exists.
func requireSessionOwner(w http.ResponseWriter, r *http.Request, sessionID string) bool {
	owner, err := store.SessionOwner(sessionID)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return false
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	if owner != auth.OwnerFromContext(r.Context()) {
		utils.JSONError(w, http.StatusForbidden, "access denied")
		return false
	}
	return true
}

func listSessions(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	sums, err := store.ListSessions(owner)
	if err != nil {
		logger.Error("list_sessions_failed", "owner", owner, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sums == nil {
		sums = []models.SessionSummary{}
	}
	utils.JSONDataMeta(w, http.StatusOK, sums, map[string]any{"count": len(sums)})
}

func getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if !requireSessionOwner(w, r, sessionID) {
		return
	}
	sum, err := store.GetSession(sessionID)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.JSONData(w, http.StatusOK, sum)
}

func deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if !requireSessionOwner(w, r, sessionID) {
		return
	}
	if err := store.DeleteSession(sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "session not found")
			return
		}
		logger.Error("delete_session_failed", "session", sessionID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.JSONData(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func listSessionsByUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	sums, err := store.ListSessions(userID)
	if err != nil {
		logger.Error("list_sessions_by_user_failed", "user", userID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sums == nil {
		sums = []models.SessionSummary{}
	}
	utils.JSONDataMeta(w, http.StatusOK, sums, map[string]any{"count": len(sums)})
}
