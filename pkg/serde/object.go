// Package serde provides the serializable-object capability shared by every
// importer options and state type: erasure into an Object handle, exact-type
// downcasting, and the two wire encodings (YAML text and canonical CBOR binary).
package serde

import (
	"fmt"
	"reflect"
)

// Object is a type-erased value whose concrete type is known only to code
// that performs an explicit, fallible downcast.
type Object interface {
	// Type reports the concrete type held by the handle.
	Type() reflect.Type
	// Value returns the concrete value as an interface.
	Value() any
	// MarshalYAML encodes the concrete value, so erased metadata records can
	// be written with the same text encoding as typed ones.
	MarshalYAML() (any, error)
	// MarshalBinary encodes the concrete value with the cache encoding.
	MarshalBinary() ([]byte, error)
}

type box[T any] struct {
	v T
}

// Box erases v into an Object.
func Box[T any](v T) Object {
	return &box[T]{v: v}
}

func (b *box[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (b *box[T]) Value() any {
	return b.v
}

func (b *box[T]) MarshalYAML() (any, error) {
	return b.v, nil
}

func (b *box[T]) MarshalBinary() ([]byte, error) {
	return MarshalBinary(b.v)
}

func (b *box[T]) String() string {
	return fmt.Sprintf("serde.Object(%s)", b.Type())
}

// Downcast recovers the concrete value from o. It succeeds iff o was created
// by Box[T] for exactly this T.
func Downcast[T any](o Object) (T, bool) {
	b, ok := o.(*box[T])
	if !ok {
		var zero T
		return zero, false
	}
	return b.v, true
}

// MustDowncast is Downcast for call sites where a mismatch means the caller
// paired an erased value with the wrong importer. It panics with a
// *TypeMismatchError in that case.
func MustDowncast[T any](o Object, role string) T {
	v, ok := Downcast[T](o)
	if !ok {
		panic(&TypeMismatchError{Role: role, Want: reflect.TypeFor[T](), Got: typeOf(o)})
	}
	return v
}

func typeOf(o Object) reflect.Type {
	if o == nil {
		return nil
	}
	return o.Type()
}
