package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"padws/pkg/logging"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorBody is the JSON envelope for error responses.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Server", err, "Failed to encode response body")
	}
}

// writeError sends a JSON error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: message},
	})
}

// decodeJSON reads the request body into dst and validates it. The
// body is limited to 1 MiB except for pad payloads, which pass a
// higher limit via maxBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	// Unknown fields are ignored so older servers tolerate newer
	// frontend payloads.
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("field %s failed '%s' validation", fe.Field(), fe.Tag())
		}
		return err
	}
	return nil
}
