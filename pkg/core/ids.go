// Package core defines the opaque identifier types shared by importers,
// the metadata model and the downstream build pipeline and loader.
package core

import (
	"fmt"

	"github.com/google/uuid"
)

// AssetUUID uniquely identifies an asset. It is stable across re-imports.
type AssetUUID [16]byte

// NewAssetUUID returns a random asset identifier.
func NewAssetUUID() AssetUUID {
	return AssetUUID(uuid.New())
}

// DeriveAssetUUID returns a name-based (SHA-1) identifier, so the same
// namespace and name always yield the same asset.
func DeriveAssetUUID(namespace AssetUUID, name []byte) AssetUUID {
	return AssetUUID(uuid.NewSHA1(uuid.UUID(namespace), name))
}

// ParseAssetUUID parses the canonical textual form of an asset identifier.
func ParseAssetUUID(s string) (AssetUUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AssetUUID{}, fmt.Errorf("invalid asset uuid %q: %w", s, err)
	}
	return AssetUUID(u), nil
}

// MustParseAssetUUID is like ParseAssetUUID but panics on malformed input.
// Intended for package-level constants.
func MustParseAssetUUID(s string) AssetUUID {
	id, err := ParseAssetUUID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id AssetUUID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the nil UUID.
func (id AssetUUID) IsZero() bool {
	return id == AssetUUID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id AssetUUID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *AssetUUID) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetUUID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// AssetTypeID identifies a concrete data type: the type of an artifact's
// payload, or the implementation behind an importer.
type AssetTypeID [16]byte

// ParseAssetTypeID parses the canonical textual form of a type identifier.
func ParseAssetTypeID(s string) (AssetTypeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AssetTypeID{}, fmt.Errorf("invalid asset type id %q: %w", s, err)
	}
	return AssetTypeID(u), nil
}

// MustParseAssetTypeID is like ParseAssetTypeID but panics on malformed input.
func MustParseAssetTypeID(s string) AssetTypeID {
	id, err := ParseAssetTypeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id AssetTypeID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is unset. Metadata files written before the
// importer type was recorded decode to the zero id.
func (id AssetTypeID) IsZero() bool {
	return id == AssetTypeID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id AssetTypeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *AssetTypeID) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetTypeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
