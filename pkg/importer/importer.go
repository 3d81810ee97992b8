package importer

import (
	"io"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

// Importer converts source bytes of one format into assets.
//
// O is the caller-supplied configuration and S the importer-private state
// carried between imports of the same source. Both must round-trip through
// the serde text and binary encodings.
type Importer[O, S any] interface {
	// TypeID identifies the implementation. It is recorded in .meta files so
	// options and state can be routed back to the importer that wrote them.
	TypeID() core.AssetTypeID

	// Version must be bumped whenever the output for fixed inputs changes.
	Version() uint32

	// DefaultOptions and DefaultState are used when no prior metadata exists.
	DefaultOptions() O
	DefaultState() S

	// Import reads source to completion and produces assets. It may update
	// *state and must be deterministic for identical (source, options, state).
	Import(source io.Reader, options O, state *S) (*ImporterValue, error)
}

// ImporterValue is the result of a single import.
type ImporterValue struct {
	Assets []ImportedAsset
}

// ImportedAsset is one asset produced by an importer.
type ImportedAsset struct {
	ID            core.AssetUUID
	SearchTags    []SearchTag
	BuildPipeline *core.AssetUUID
	BuildDeps     []core.AssetRef
	LoadDeps      []core.AssetRef
	// TypeID identifies the concrete type behind Data.
	TypeID core.AssetTypeID
	Data   serde.Object
}
