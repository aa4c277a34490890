package utils

import (
	"encoding/json"
	"net/http"
)

// JSONError writes the error envelope {code, message} with the given HTTP
// status. Content-Type is always application/json.
func JSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": status, "message": message})
}

// JSONData writes the success envelope {code, message, data} with the given
// HTTP status (200 when status is 0).
func JSONData(w http.ResponseWriter, status int, data any) {
	JSONDataMeta(w, status, data, nil)
}

// JSONDataMeta is JSONData with an optional meta object (e.g. list counts).
func JSONDataMeta(w http.ResponseWriter, status int, data any, meta map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	out := map[string]any{"code": status, "message": "success", "data": data}
	if len(meta) > 0 {
		out["meta"] = meta
	}
	_ = json.NewEncoder(w).Encode(out)
}
