package models

import (
	"bytes"
	"encoding/json"
)

// Optional wraps a request field so that "not sent" can be told apart from
// "sent". Wrapping a pointer (Optional[*string]) additionally separates an
// explicit JSON null from a value.
type Optional[T any] struct {
	Value T
	Set   bool
	null  bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null reports whether the field was sent as a literal JSON null.
func (o Optional[T]) Null() bool {
	return o.null
}

// UnmarshalJSON is only invoked by encoding/json when the key is present,
// which is what marks the field as set.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.null = bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}
