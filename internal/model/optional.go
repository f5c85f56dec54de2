package model

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Optional distinguishes an absent JSON field from one that was sent.
// Set is true when the field appeared in the payload; Null is true when it
// appeared with a null value.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Present reports whether a non-null value was supplied.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Merge returns the supplied value, or current when the field was absent or null.
func (o Optional[T]) Merge(current T) T {
	if o.Present() {
		return o.Value
	}
	return current
}

// Ptr returns a pointer to the value, or nil when absent or null.
func (o Optional[T]) Ptr() *T {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}
