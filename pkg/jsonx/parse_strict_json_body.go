package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingJSON = errors.New("trailing data")
)

// MaxBodyBytes caps what ParseStrictJSONBody reads.
const MaxBodyBytes = 64 << 10

// ParseStrictJSONBody decodes exactly one JSON value from the request body
// into dst. Every failure maps to 400 Bad Request:
//
//   - malformed or truncated JSON
//   - empty body (ErrEmptyBody)
//   - more than one JSON value (ErrTrailingJSON)
//   - unknown fields
//   - type mismatches
//
// Only shape is checked; required fields and value ranges are the caller's job.
func ParseStrictJSONBody[T any](r *http.Request, dst *T) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingJSON
	}
	return nil
}
