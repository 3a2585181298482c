package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"inkwell/app/errs"
	"inkwell/app/middleware"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies read by decode.
const maxBodyBytes = 1 << 20

// Responder writes JSON envelopes. Every body carries "success".
type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

// WriteJSON writes data with status. data is merged into the envelope
// alongside success=true.
func (r Responder) WriteJSON(w http.ResponseWriter, status int, data map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range data {
		body[k] = v
	}
	r.write(w, status, body)
}

// WriteError maps err onto a status and a caller-facing message. Server
// errors are logged and answered with a generic body.
func (r Responder) WriteError(w http.ResponseWriter, err error) {
	status := errs.StatusCode(err)
	body := map[string]interface{}{
		"success": false,
		"message": errs.Message(err),
	}
	if status >= http.StatusInternalServerError {
		r.logger.Error().Err(err).Msg("request failed")
		body["error"] = http.StatusText(status)
	}
	r.write(w, status, body)
}

func (r Responder) write(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errs.InvalidInputWithCause("Invalid request body", err)
	}
	return nil
}

// requester returns the authenticated caller or an Unauthorized error.
func requester(r *http.Request) (string, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", errs.Unauthorized("Not authorized")
	}
	return id, nil
}
