// Package blob imports arbitrary binary files as a single opaque asset.
package blob

import (
	"fmt"
	"io"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/importer"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

var (
	// TypeID identifies this importer in .meta files.
	TypeID = core.MustParseAssetTypeID("0c5c4a1e-6f0e-4b7d-9a51-3f2e8d7c6b01")
	// DataTypeID identifies the Blob artifact type.
	DataTypeID = core.MustParseAssetTypeID("0c5c4a1e-6f0e-4b7d-9a51-3f2e8d7c6b02")
)

// Extensions handled by this importer.
var Extensions = []string{"bin", "dat"}

// Options configures a blob import.
type Options struct {
	Label string `yaml:"label"`
}

// State remembers the id assigned on the first import.
type State struct {
	AssetID core.AssetUUID `yaml:"asset_id"`
}

// Blob is the artifact payload.
type Blob struct {
	Label string
	Data  []byte
}

// Importer implements importer.Importer[Options, State].
type Importer struct{}

func (Importer) TypeID() core.AssetTypeID { return TypeID }

func (Importer) Version() uint32 { return 1 }

func (Importer) DefaultOptions() Options { return Options{} }

func (Importer) DefaultState() State { return State{} }

func (Importer) Import(source io.Reader, options Options, state *State) (*importer.ImporterValue, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	if state.AssetID.IsZero() {
		state.AssetID = core.NewAssetUUID()
	}

	tags := []importer.SearchTag{importer.Tag("format", "blob")}
	if options.Label != "" {
		tags = append(tags, importer.Tag("label", options.Label))
	}

	return &importer.ImporterValue{
		Assets: []importer.ImportedAsset{{
			ID:         state.AssetID,
			SearchTags: tags,
			TypeID:     DataTypeID,
			Data:       serde.Box(Blob{Label: options.Label, Data: data}),
		}},
	}, nil
}

// New returns an erased blob importer.
func New() importer.BoxedImporter {
	return importer.Box[Options, State](Importer{})
}

// Register adds the blob importer to r for all of its extensions.
func Register(r *importer.Registry) error {
	for _, ext := range Extensions {
		if err := r.Register(ext, New); err != nil {
			return err
		}
	}
	return nil
}
