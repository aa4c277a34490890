package models

import "encoding/json"

// Message is one persisted turn: the user's question plus the fully
// assembled answer, with the tools invoked and client actions emitted
// while the answer streamed.
type Message struct {
	ID      string `json:"id"`
	Owner   string `json:"user_id"`
	Session string `json:"session_id"`
	// Question is the original message text; Context carries the optional
	// structured payload submitted alongside it.
	Question string          `json:"question"`
	Context  json.RawMessage `json:"context,omitempty"`
	Answer   string          `json:"answer"`
	// Tools lists invoked tool names in call order; ClientActions lists the
	// emitted client-action type names in emission order. Both may be empty.
	Tools         []string `json:"tools,omitempty"`
	ClientActions []string `json:"client_actions,omitempty"`
	// Unix milliseconds.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}
