package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/reelfeed/reelfeed/internal/validate"
)

const maxJSONBodyBytes = 1 << 20

type ErrorBody struct {
	Error  string                `json:"error"`
	Fields []validate.FieldError `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteValidationError reports per-field validation failures with 400.
func WriteValidationError(w http.ResponseWriter, fields []validate.FieldError) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: "invalid request", Fields: fields})
}

// DecodeJSON reads a bounded JSON body into v. Unknown fields are ignored.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}
