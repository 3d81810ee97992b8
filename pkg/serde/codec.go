package serde

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// The binary encoding is canonical CBOR (RFC 8949 core deterministic
// encoding): equal values always produce equal bytes, in any process and in
// any order of first use.
var (
	binaryEnc cbor.EncMode
	binaryDec cbor.DecMode
)

func init() {
	encOpts := cbor.CanonicalEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	var err error
	if binaryEnc, err = encOpts.EncMode(); err != nil {
		panic(err)
	}
	if binaryDec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// MarshalText encodes v with the human-readable metadata encoding.
func MarshalText(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T as %s: %w", v, FormatText, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode %T as %s: %w", v, FormatText, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalText decodes the human-readable encoding into a T.
// Unknown fields are ignored so newer files stay readable by older code;
// absent fields keep their zero value.
func UnmarshalText[T any](data []byte) (T, error) {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, &DecodeError{Format: FormatText, Type: reflect.TypeFor[T](), Err: err}
	}
	return v, nil
}

// MarshalBinary encodes v with the compact cache encoding. Only exported
// fields are encoded.
func MarshalBinary(v any) ([]byte, error) {
	data, err := binaryEnc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T as %s: %w", v, FormatBinary, err)
	}
	return data, nil
}

// UnmarshalBinary decodes the cache encoding into a T.
func UnmarshalBinary[T any](data []byte) (T, error) {
	var v T
	if err := binaryDec.Unmarshal(data, &v); err != nil {
		return v, &DecodeError{Format: FormatBinary, Type: reflect.TypeFor[T](), Err: err}
	}
	return v, nil
}

// DecodeBinary decodes the cache encoding into a T and erases the result.
func DecodeBinary[T any](data []byte) (Object, error) {
	v, err := UnmarshalBinary[T](data)
	if err != nil {
		return nil, err
	}
	return Box(v), nil
}
