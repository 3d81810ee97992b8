package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

func u64(v uint64) *uint64 { return &v }

func sampleMetadata() *SourceMetadata[qualityOptions, counterState] {
	pipeline := core.MustParseAssetUUID("11111111-2222-4333-8444-555555555555")
	assetID := core.MustParseAssetUUID("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee")
	dep := core.MustParseAssetUUID("99999999-8888-4777-8666-555555555555")

	return &SourceMetadata[qualityOptions, counterState]{
		Version:         SourceMetadataVersion,
		ImportHash:      u64(0xfeedfacecafebeef),
		ImporterVersion: 3,
		ImporterType:    countingImporterType,
		ImporterOptions: qualityOptions{Quality: 70},
		ImporterState:   counterState{NextID: 4},
		Assets: []AssetMetadata{{
			ID:            assetID,
			SearchTags:    []SearchTag{Tag("kind", "sprite"), {Key: "ui"}},
			BuildPipeline: &pipeline,
			Artifact: &ArtifactMetadata{
				Hash:             0xffffffffffffffff,
				ID:               assetID,
				BuildDeps:        []core.AssetRef{core.RefUUID(dep)},
				LoadDeps:         []core.AssetRef{core.RefUUID(dep), core.RefPath("fonts/main.ttf")},
				Compression:      core.CompressionGzip,
				CompressedSize:   u64(128),
				UncompressedSize: u64(512),
				TypeID:           payloadType,
			},
		}},
	}
}

func TestMetadata_TextRoundTrip(t *testing.T) {
	in := sampleMetadata()

	data, err := MarshalMetadata(in)
	require.NoError(t, err)

	out, err := UnmarshalMetadata[qualityOptions, counterState](data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMetadata_ErasedEncodingMatchesTyped(t *testing.T) {
	in := sampleMetadata()

	typed, err := MarshalMetadata(in)
	require.NoError(t, err)
	erased, err := MarshalMetadata(Erase(in))
	require.NoError(t, err)

	assert.Equal(t, string(typed), string(erased))
}

func TestMetadata_MissingImporterTypeDefaults(t *testing.T) {
	legacy := `
version: 1
import_hash: 12
importer_version: 1
importer_options:
  quality: 60
importer_state:
  next_id: 2
assets: []
`
	m, err := UnmarshalMetadata[qualityOptions, counterState]([]byte(legacy))
	require.NoError(t, err)
	assert.True(t, m.ImporterType.IsZero())
	assert.Equal(t, uint8(60), m.ImporterOptions.Quality)
	assert.Equal(t, uint64(12), *m.ImportHash)
}

func TestMetadata_UnknownFieldsIgnored(t *testing.T) {
	newer := `
version: 2
import_hash: null
importer_version: 1
importer_options:
  quality: 10
  dithering: true
importer_state:
  next_id: 0
assets: []
future_field: something
`
	m, err := UnmarshalMetadata[qualityOptions, counterState]([]byte(newer))
	require.NoError(t, err)
	assert.Nil(t, m.ImportHash)
	assert.Equal(t, uint32(2), m.Version)
}

func TestMetadata_ZeroImporterTypeOmitted(t *testing.T) {
	m := sampleMetadata()
	m.ImporterType = core.AssetTypeID{}

	data, err := MarshalMetadata(m)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "importer_type"))
}

func TestDeserializeMetadata_Erases(t *testing.T) {
	in := sampleMetadata()
	data, err := MarshalMetadata(in)
	require.NoError(t, err)

	erased, err := newCounting().DeserializeMetadata(data)
	require.NoError(t, err)

	assert.Equal(t, in.Version, erased.Version)
	assert.Equal(t, in.ImportHash, erased.ImportHash)
	assert.Equal(t, in.ImporterVersion, erased.ImporterVersion)
	assert.Equal(t, in.ImporterType, erased.ImporterType)
	assert.Equal(t, in.Assets, erased.Assets)
	assert.Equal(t, in.ImporterOptions, serde.MustDowncast[qualityOptions](erased.ImporterOptions, "options"))
	assert.Equal(t, in.ImporterState, serde.MustDowncast[counterState](erased.ImporterState, "state"))
}

func TestDeserializeMetadata_WrongImporter(t *testing.T) {
	data, err := MarshalMetadata(sampleMetadata())
	require.NoError(t, err)

	_, err = newOther().DeserializeMetadata(data)
	var mismatch *ImporterTypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, countingImporterType, mismatch.Got)
	assert.Equal(t, otherImporterType, mismatch.Want)
}

func TestDeserializeMetadata_Malformed(t *testing.T) {
	_, err := newCounting().DeserializeMetadata([]byte("version: [1"))

	var decodeErr *serde.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, serde.FormatText, decodeErr.Format)
}

func TestNeedsReimport(t *testing.T) {
	var missing *SourceMetadata[qualityOptions, counterState]
	assert.True(t, missing.NeedsReimport(1, 1))

	m := sampleMetadata()
	assert.False(t, m.NeedsReimport(0xfeedfacecafebeef, 3))
	assert.True(t, m.NeedsReimport(0xfeedfacecafebeee, 3), "content changed")
	assert.True(t, m.NeedsReimport(0xfeedfacecafebeef, 4), "importer version bumped")

	m.ImportHash = nil
	assert.True(t, m.NeedsReimport(0xfeedfacecafebeef, 3))
}

func TestAssetByID(t *testing.T) {
	m := sampleMetadata()

	asset, ok := m.AssetByID(m.Assets[0].ID)
	require.True(t, ok)
	assert.Same(t, &m.Assets[0], asset)

	_, ok = m.AssetByID(core.NewAssetUUID())
	assert.False(t, ok)
}
