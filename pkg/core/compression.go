package core

import "fmt"

// CompressionType names the codec applied to an artifact's serialized bytes.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionGzip
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompressionType maps a codec name to its CompressionType.
// The empty string means no compression.
func ParseCompressionType(s string) (CompressionType, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c CompressionType) MarshalText() ([]byte, error) {
	switch c {
	case CompressionNone, CompressionGzip:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("unknown compression type %d", uint8(c))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CompressionType) UnmarshalText(text []byte) error {
	parsed, err := ParseCompressionType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
