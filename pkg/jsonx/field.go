package jsonx

import (
	"bytes"
	"encoding/json"
)

// Field[T] records whether a key was present in the decoded object:
//   - IsSet() == true  => key appeared, possibly as null
//   - Value() == nil   => absent or JSON null
type Field[T any] struct {
	set bool
	val *T
}

func (f Field[T]) IsSet() bool  { return f.set }
func (f Field[T]) IsNull() bool { return f.set && f.val == nil }
func (f Field[T]) Value() *T    { return f.val }

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.set, f.val = true, nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.set, f.val = true, &v
	return nil
}
