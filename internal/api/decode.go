// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homevalue/internal/models"
	"github.com/tomtom215/homevalue/internal/validation"
)

// maxBodyBytes bounds a prediction payload.
const maxBodyBytes = 64 << 10

// decodeFeatures strictly decodes a prediction payload. Every failure,
// including malformed JSON, is returned as a *RequestValidationError so the
// handler answers 422 without touching the model.
func decodeFeatures(w http.ResponseWriter, r *http.Request) (*models.HouseFeatures, *validation.RequestValidationError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, validation.NewRequestValidationError("body", "max",
				fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
		}
		return nil, validation.NewRequestValidationError("body", "read", "request body could not be read")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, validation.NewRequestValidationError("body", "required", "request body is required")
	}

	var f models.HouseFeatures
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		if verr := mismatchedField(body); verr != nil {
			return nil, verr
		}
		return nil, decodeError(err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, validation.NewRequestValidationError("body", "json",
			"request body must contain exactly one JSON object")
	}
	return &f, nil
}

// mismatchedField names the first key, in sorted order, whose value is
// neither a number nor null. go-json reports some of these as syntax errors
// without the field, so the body is re-read as a generic object.
func mismatchedField(body []byte) *validation.RequestValidationError {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		v := bytes.TrimSpace(raw[key])
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			continue
		}
		return validation.NewRequestValidationError(key, "number",
			fmt.Sprintf("%s must be a number, got %s", key, jsonKind(v[0])))
	}
	return nil
}

func jsonKind(first byte) string {
	switch first {
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case '{':
		return "object"
	case '[':
		return "array"
	}
	return "invalid value"
}

// decodeError maps a go-json decode failure onto a single field error.
func decodeError(err error) *validation.RequestValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return validation.NewRequestValidationError("body", "object", "request body must be a JSON object")
		}
		return validation.NewRequestValidationError(field, "number",
			fmt.Sprintf("%s must be a number, got %s", field, typeErr.Value))
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return validation.NewRequestValidationError("body", "json",
			fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	}

	msg := err.Error()
	if i := strings.Index(msg, "unknown field "); i >= 0 {
		field := msg[i+len("unknown field "):]
		if unq, uerr := strconv.Unquote(field); uerr == nil {
			field = unq
		}
		return validation.NewRequestValidationError(field, "unknown",
			fmt.Sprintf("unknown field %s", field))
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return validation.NewRequestValidationError("body", "json", "malformed JSON: unexpected end of input")
	}

	return validation.NewRequestValidationError("body", "json", "request body is not valid JSON")
}
