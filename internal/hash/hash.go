// Package hash computes the 64-bit content fingerprints used for artifact
// identity and for the import hash gate.
package hash

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/conduit-lang/assetimport/pkg/core"
)

// Hasher fingerprints byte slices.
type Hasher interface {
	Sum64(data []byte) uint64
}

// XXHash is the default Hasher.
type XXHash struct{}

// NewHasher creates the default hasher
func NewHasher() Hasher {
	return XXHash{}
}

// Sum64 returns the xxhash64 digest of data.
func (XXHash) Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// HashFile computes the xxhash64 digest of a file's contents
func HashFile(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	d := xxhash.New()
	if _, err := io.Copy(d, file); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}

// ImportHashInput lists everything that decides whether a source must be
// re-imported. Importer state is not an input.
// Options must be in a deterministic encoding.
type ImportHashInput struct {
	Source          []byte
	Options         []byte
	ImporterVersion uint32
	ImporterType    core.AssetTypeID
	Compression     core.CompressionType
}

// ImportHash fingerprints the inputs of an import. Each variable-length part
// is length-prefixed so different splits of the same bytes hash differently.
func ImportHash(in ImportHashInput) uint64 {
	d := xxhash.New()
	var scratch [8]byte

	writePart := func(p []byte) {
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(p)))
		_, _ = d.Write(scratch[:])
		_, _ = d.Write(p)
	}

	writePart(in.Source)
	writePart(in.Options)
	binary.LittleEndian.PutUint32(scratch[:4], in.ImporterVersion)
	_, _ = d.Write(scratch[:4])
	_, _ = d.Write(in.ImporterType[:])
	_, _ = d.Write([]byte{byte(in.Compression)})

	return d.Sum64()
}
