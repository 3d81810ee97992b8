package importer

import (
	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

// SourceMetadataVersion is the current version of the SourceMetadata schema.
// It lets the .meta format change without breaking older files.
const SourceMetadataVersion uint32 = 1

// SearchTag is a key with an optional value, used by asset tooling to find
// imported assets. Import and build logic never read it.
type SearchTag struct {
	Key   string  `yaml:"key"`
	Value *string `yaml:"value,omitempty"`
}

// Tag builds a SearchTag with a value.
func Tag(key, value string) SearchTag {
	return SearchTag{Key: key, Value: &value}
}

// AssetMetadata describes one logical asset produced from a source file.
// Stored in .meta files and the metadata DB.
type AssetMetadata struct {
	// ID is assigned once and never changes across re-imports.
	ID         core.AssetUUID `yaml:"id"`
	SearchTags []SearchTag    `yaml:"search_tags,omitempty"`
	// BuildPipeline names the asset whose pipeline builds this asset's artifact.
	BuildPipeline *core.AssetUUID `yaml:"build_pipeline,omitempty"`
	// Artifact is the latest artifact; nil before the first successful import.
	Artifact *ArtifactMetadata `yaml:"artifact,omitempty"`
}

// ArtifactMetadata describes one build artifact.
type ArtifactMetadata struct {
	// Hash fingerprints the artifact's serialized bytes.
	Hash uint64         `yaml:"hash"`
	ID   core.AssetUUID `yaml:"id"`
	// BuildDeps are handed to the builder as inputs when building the artifact.
	BuildDeps []core.AssetRef `yaml:"build_deps,omitempty"`
	// LoadDeps are loaded before this asset by the loader.
	LoadDeps         []core.AssetRef      `yaml:"load_deps,omitempty"`
	Compression      core.CompressionType `yaml:"compression"`
	CompressedSize   *uint64              `yaml:"compressed_size,omitempty"`
	UncompressedSize *uint64              `yaml:"uncompressed_size,omitempty"`
	TypeID           core.AssetTypeID     `yaml:"type_id"`
}

// SourceMetadata is the in-memory form of the .meta record for one
// (source file, importer) pair. Options and State are only meaningful
// together with ImporterType.
type SourceMetadata[O, S any] struct {
	Version uint32 `yaml:"version"`
	// ImportHash fingerprints the inputs of the last successful import.
	// The caller computes it; the core only compares it.
	ImportHash      *uint64 `yaml:"import_hash"`
	ImporterVersion uint32  `yaml:"importer_version"`
	// ImporterType is absent from files written before it was recorded and
	// then decodes to the zero id.
	ImporterType    core.AssetTypeID `yaml:"importer_type,omitempty"`
	ImporterOptions O                `yaml:"importer_options"`
	ImporterState   S                `yaml:"importer_state"`
	Assets          []AssetMetadata  `yaml:"assets"`
}

// Erased is a SourceMetadata whose options and state have been erased, so
// its shape no longer depends on the importer.
type Erased = SourceMetadata[serde.Object, serde.Object]

// NeedsReimport reports whether the record is stale with respect to a freshly
// computed import hash and the importer's current version. A missing hash,
// a different hash or a different importer version all require a re-import.
func (m *SourceMetadata[O, S]) NeedsReimport(freshHash uint64, importerVersion uint32) bool {
	if m == nil || m.ImportHash == nil {
		return true
	}
	return *m.ImportHash != freshHash || m.ImporterVersion != importerVersion
}

// AssetByID returns the asset entry with the given id.
func (m *SourceMetadata[O, S]) AssetByID(id core.AssetUUID) (*AssetMetadata, bool) {
	for i := range m.Assets {
		if m.Assets[i].ID == id {
			return &m.Assets[i], true
		}
	}
	return nil, false
}

// MarshalMetadata encodes a metadata record, typed or erased, with the
// human-readable .meta encoding.
func MarshalMetadata[O, S any](m *SourceMetadata[O, S]) ([]byte, error) {
	return serde.MarshalText(m)
}

// UnmarshalMetadata decodes a .meta file with concrete options and state types.
func UnmarshalMetadata[O, S any](data []byte) (*SourceMetadata[O, S], error) {
	m, err := serde.UnmarshalText[SourceMetadata[O, S]](data)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Erase converts a typed record into its erased form.
func Erase[O, S any](m *SourceMetadata[O, S]) *Erased {
	return &Erased{
		Version:         m.Version,
		ImportHash:      m.ImportHash,
		ImporterVersion: m.ImporterVersion,
		ImporterType:    m.ImporterType,
		ImporterOptions: serde.Box(m.ImporterOptions),
		ImporterState:   serde.Box(m.ImporterState),
		Assets:          m.Assets,
	}
}
