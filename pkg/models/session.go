package models

// SessionSummary is the aggregate view of a session: it exists only as a
// projection over the session's messages and disappears with them.
type SessionSummary struct {
	SessionID     string `json:"session_id"`
	Owner         string `json:"user_id"`
	MessageCount  int    `json:"message_count"`
	LastMessageAt int64  `json:"last_message_at"`
	FirstQuestion string `json:"first_question"`
}
