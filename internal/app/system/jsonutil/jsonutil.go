// Package jsonutil writes JSON responses and decodes JSON request bodies for
// the API handlers.
package jsonutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/noticeboard/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies decoded by DecodeObject.
const MaxBodyBytes = 1 << 20

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as {"detail": ..., "code": ...} using the status carried by
// the *apperr.Error. Internal errors are logged with their cause; the client
// only sees the generic message.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	appErr := apperr.FromError(err)
	if appErr.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	Write(w, appErr.Status, appErr)
}

// DecodeObject reads a JSON object body into a field-map. Anything other than
// a single JSON object yields a validation error.
func DecodeObject(r *http.Request) (map[string]any, error) {
	var fields map[string]any
	if err := decode(r, &fields, false); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, apperr.Clone(apperr.ErrValidation, "Request body must be a JSON object.")
	}
	return fields, nil
}

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	return decode(r, dst, true)
}

func decode(r *http.Request, dst any, strict bool) error {
	if r.Body == nil {
		return apperr.Clone(apperr.ErrValidation, "Request body is required.")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Wrap(err, apperr.ErrValidation.Code, apperr.ErrValidation.Status, "Request body is required.")
		}
		return apperr.Wrap(err, apperr.ErrValidation.Code, apperr.ErrValidation.Status, "Request body must be valid JSON.")
	}
	if dec.More() {
		return apperr.Clone(apperr.ErrValidation, "Request body must contain a single JSON value.")
	}
	return nil
}
