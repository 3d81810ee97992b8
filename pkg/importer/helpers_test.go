package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

var (
	countingImporterType = core.MustParseAssetTypeID("3b1f9a52-7c0e-4f7a-9a2d-5c6e8b4d1f00")
	otherImporterType    = core.MustParseAssetTypeID("a4c2e6f8-1b3d-4e5f-8a7b-9c0d1e2f3a4b")
	payloadType          = core.MustParseAssetTypeID("5e6f7a8b-9c0d-4e1f-a2b3-c4d5e6f7a8b9")
	assetNamespace       = core.MustParseAssetUUID("8e2b4c6d-0f1a-4b3c-9d5e-7f8a9b0c1d2e")
)

var errEmptySource = errors.New("empty source")

type qualityOptions struct {
	Quality uint8 `yaml:"quality"`
}

type counterState struct {
	NextID uint32 `yaml:"next_id"`
}

type payload struct {
	Quality uint8
	Bytes   []byte
}

// countingImporter hands out one asset per import and counts imports in its
// state.
type countingImporter struct {
	version uint32
}

func (c *countingImporter) TypeID() core.AssetTypeID { return countingImporterType }

func (c *countingImporter) Version() uint32 { return c.version }

func (c *countingImporter) DefaultOptions() qualityOptions { return qualityOptions{Quality: 80} }

func (c *countingImporter) DefaultState() counterState { return counterState{} }

func (c *countingImporter) Import(source io.Reader, options qualityOptions, state *counterState) (*ImporterValue, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptySource
	}

	state.NextID++
	id := core.DeriveAssetUUID(assetNamespace, []byte(fmt.Sprintf("asset-%d", state.NextID)))

	return &ImporterValue{
		Assets: []ImportedAsset{{
			ID:         id,
			SearchTags: []SearchTag{Tag("quality", fmt.Sprint(options.Quality))},
			TypeID:     payloadType,
			Data:       serde.Box(payload{Quality: options.Quality, Bytes: data}),
		}},
	}, nil
}

type otherImporter struct{}

func (otherImporter) TypeID() core.AssetTypeID { return otherImporterType }

func (otherImporter) Version() uint32 { return 1 }

func (otherImporter) DefaultOptions() string { return "" }

func (otherImporter) DefaultState() []string { return nil }

func (otherImporter) Import(io.Reader, string, *[]string) (*ImporterValue, error) {
	return &ImporterValue{}, nil
}

func newCounting() BoxedImporter {
	return Box[qualityOptions, counterState](&countingImporter{version: 1})
}

func newOther() BoxedImporter {
	return Box[string, []string](otherImporter{})
}
