// Package httputil centralizes JSON response writing and error translation so
// every handler produces the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/errctx"
)

// WriteJSON serializes v with the given status. Serialization failures are
// unrecoverable at this point; the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates any error into the sanitized client envelope:
// {error, code, correlation_id, timestamp, path}. Errors that are not already
// correlated are captured here so no failure leaves without a correlation id.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var captured *errctx.Error
	if !errors.As(err, &captured) {
		captured = errctx.Capture(err, categoryFor(err), dErrors.MessageOf(err), errctx.WithRequest(r))
	}
	captured.Log(logger)

	path := ""
	if r != nil {
		path = r.URL.Path
	}
	WriteJSON(w, captured.HTTPStatus(), captured.Envelope(path))
}

func categoryFor(err error) errctx.Category {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnauthorized, dErrors.CodeForbidden:
		return errctx.CategoryAuth
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeInvalidLanguage:
		return errctx.CategoryValidation
	case dErrors.CodeNotFound, dErrors.CodeConflict, dErrors.CodeRateLimited:
		return errctx.CategoryBusinessLogic
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return errctx.CategoryExternalAPI
	case dErrors.CodeInternal:
		return errctx.CategoryInfrastructure
	default:
		return errctx.CategoryUnknown
	}
}

// DecodeJSON decodes a request body into T, rejecting unknown fields.
// A decode failure is reported to the client as a validation error.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var payload T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		WriteError(w, r, logger, errctx.Validation("malformed request body", errctx.Differential{
			Expected: "valid JSON matching the request schema",
			Actual:   err.Error(),
		}, errctx.WithRequest(r)))
		return payload, false
	}
	return payload, true
}
