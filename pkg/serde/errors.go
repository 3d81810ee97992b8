package serde

import (
	"fmt"
	"reflect"
)

// Encoding formats understood by this package.
const (
	FormatText   = "yaml"
	FormatBinary = "cbor"
)

// DecodeError reports malformed bytes handed to a deserialize operation.
type DecodeError struct {
	Format string
	Type   reflect.Type
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s as %s: %v", e.Type, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TypeMismatchError is the panic value raised when an erased value is
// downcast to a type it does not hold. It is a programming defect, never a
// recoverable condition.
type TypeMismatchError struct {
	Role string
	Want reflect.Type
	Got  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("failed to downcast %s: want %v, got %v", e.Role, e.Want, e.Got)
}
