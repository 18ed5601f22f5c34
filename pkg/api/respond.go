package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

var (
	errNoRoute = errs.New(errs.ErrCodeNotFound, "no such endpoint")
	errMissing = errs.New(errs.ErrCodeInvalidInput, "missing required fields")
)

type errorBody struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status of err's code. Causes of server-side
// failures are logged and replaced by a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	body := errorBody{Error: errs.UserMessage(err), Code: errs.GetCode(err)}

	switch {
	case errs.Public(err):
	case status == http.StatusServiceUnavailable:
		s.logger.Warn("service unavailable", "method", r.Method, "path", r.URL.Path, "err", err)
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		body.Error = "internal server error"
		if body.Code == "" {
			body.Code = errs.ErrCodeInternal
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body of at most limit bytes into v. An empty body
// leaves v untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return errs.New(errs.ErrCodeInvalidInput, "request body is required")
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errs.New(errs.ErrCodeInvalidInput, "request body too large (max %d bytes)", tooLarge.Limit)
	}
	return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid JSON body")
}
