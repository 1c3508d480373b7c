package apistub

import (
	"encoding/json"
	"net/http"
)

// fieldError mirrors one entry of a FastAPI validation error list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func writeFieldErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}

func decodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

func missing(field string) fieldError {
	return fieldError{Loc: []string{"body", field}, Msg: "field required", Type: "value_error.missing"}
}

func invalid(field, msg string) fieldError {
	return fieldError{Loc: []string{"body", field}, Msg: msg, Type: "value_error"}
}
