package importer

import (
	"fmt"
	"io"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

// BoxedImporter is the erased form of an Importer. It is used wherever the
// concrete options and state types are not known, which is everywhere
// outside the importer's own package.
type BoxedImporter interface {
	TypeID() core.AssetTypeID
	// ImportBoxed downcasts options and state to the importer's concrete
	// types, runs the import and re-erases both. Passing values that belong
	// to another importer panics with *serde.TypeMismatchError.
	ImportBoxed(source io.Reader, options, state serde.Object) (*BoxedImporterValue, error)
	DefaultOptions() serde.Object
	DefaultState() serde.Object
	Version() uint32
	// DeserializeMetadata decodes a .meta file with the importer's concrete
	// types and returns it with options and state erased.
	DeserializeMetadata(data []byte) (*Erased, error)
	// DeserializeOptions and DeserializeState decode the binary cache encoding.
	DeserializeOptions(data []byte) (serde.Object, error)
	DeserializeState(data []byte) (serde.Object, error)
}

// BoxedImporterValue is the erased result of ImportBoxed.
type BoxedImporterValue struct {
	Value   *ImporterValue
	Options serde.Object
	State   serde.Object
}

// Box derives the BoxedImporter for any Importer.
func Box[O, S any](imp Importer[O, S]) BoxedImporter {
	return &boxedImporter[O, S]{imp: imp}
}

type boxedImporter[O, S any] struct {
	imp Importer[O, S]
}

func (b *boxedImporter[O, S]) TypeID() core.AssetTypeID {
	return b.imp.TypeID()
}

func (b *boxedImporter[O, S]) Version() uint32 {
	return b.imp.Version()
}

func (b *boxedImporter[O, S]) DefaultOptions() serde.Object {
	return serde.Box(b.imp.DefaultOptions())
}

func (b *boxedImporter[O, S]) DefaultState() serde.Object {
	return serde.Box(b.imp.DefaultState())
}

func (b *boxedImporter[O, S]) ImportBoxed(source io.Reader, options, state serde.Object) (*BoxedImporterValue, error) {
	s := serde.MustDowncast[S](state, "importer state")
	o := serde.MustDowncast[O](options, "importer options")

	value, err := b.imp.Import(source, o, &s)
	if err != nil {
		return nil, err
	}

	return &BoxedImporterValue{
		Value:   value,
		Options: serde.Box(o),
		State:   serde.Box(s),
	}, nil
}

func (b *boxedImporter[O, S]) DeserializeMetadata(data []byte) (*Erased, error) {
	m, err := UnmarshalMetadata[O, S](data)
	if err != nil {
		return nil, err
	}
	if !m.ImporterType.IsZero() && m.ImporterType != b.imp.TypeID() {
		return nil, &ImporterTypeMismatchError{Want: b.imp.TypeID(), Got: m.ImporterType}
	}
	return Erase(m), nil
}

func (b *boxedImporter[O, S]) DeserializeOptions(data []byte) (serde.Object, error) {
	return serde.DecodeBinary[O](data)
}

func (b *boxedImporter[O, S]) DeserializeState(data []byte) (serde.Object, error) {
	return serde.DecodeBinary[S](data)
}

func (b *boxedImporter[O, S]) String() string {
	return fmt.Sprintf("BoxedImporter(%s)", b.imp.TypeID())
}
