// Package patch provides a presence-aware optional field for partial
// updates. Update payloads distinguish three states per field: omitted
// (leave unchanged), explicit null (clear), and an explicit value. A plain
// pointer cannot represent all three, so nullable fields in patch structs
// use Field[T] and non-nullable ones use *T.
package patch

import "encoding/json"

// Field wraps an optional, nullable value.
type Field[T any] struct {
	// Set is true when the field appeared in the payload at all.
	Set bool
	// Value is nil for an explicit null, non-nil for an explicit value.
	Value *T
}

// Of returns a set Field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a set Field holding an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the payload, so Set
// is true whenever it runs.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// MarshalJSON round-trips the wrapped value.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}
