package pipeline

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/assetimport/internal/hash"
	"github.com/conduit-lang/assetimport/internal/importers/blob"
	"github.com/conduit-lang/assetimport/internal/importers/text"
	"github.com/conduit-lang/assetimport/internal/metastore"
	"github.com/conduit-lang/assetimport/internal/optcache"
	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/importer"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

var (
	rawImporterType = core.MustParseAssetTypeID("c0ffee00-1111-4222-8333-444455556666")
	rawDataType     = core.MustParseAssetTypeID("c0ffee00-1111-4222-8333-444455556667")
	rawNamespace    = core.MustParseAssetUUID("c0ffee00-1111-4222-8333-444455556668")
)

type rawOptions struct {
	Scale int `yaml:"scale"`
}

type rawState struct {
	Imports int `yaml:"imports"`
}

// rawImporter copies the source through and counts how often it ran.
type rawImporter struct {
	version uint32
}

func (r rawImporter) TypeID() core.AssetTypeID { return rawImporterType }

func (r rawImporter) Version() uint32 { return r.version }

func (r rawImporter) DefaultOptions() rawOptions { return rawOptions{Scale: 1} }

func (r rawImporter) DefaultState() rawState { return rawState{} }

func (r rawImporter) Import(source io.Reader, options rawOptions, state *rawState) (*importer.ImporterValue, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, err
	}
	state.Imports++
	return &importer.ImporterValue{
		Assets: []importer.ImportedAsset{{
			ID:     core.DeriveAssetUUID(rawNamespace, []byte("raw")),
			TypeID: rawDataType,
			Data:   serde.Box(data),
		}},
	}, nil
}

func rawRegistry(t *testing.T, version uint32) *importer.Registry {
	t.Helper()
	r := importer.NewRegistry()
	require.NoError(t, r.Register("raw", func() importer.BoxedImporter {
		return importer.Box[rawOptions, rawState](rawImporter{version: version})
	}))
	return r
}

func textRegistry(t *testing.T) *importer.Registry {
	t.Helper()
	r := importer.NewRegistry()
	require.NoError(t, text.Register(r))
	return r
}

func newTestPipeline(t *testing.T, r *importer.Registry, opts Options) *Pipeline {
	t.Helper()
	p, err := New(r, metastore.NewFileStore(), nil, nil, opts)
	require.NoError(t, err)
	return p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, metastore.NewFileStore(), nil, nil, DefaultOptions())
	assert.Error(t, err)

	_, err = New(importer.NewRegistry(), nil, nil, nil, DefaultOptions())
	assert.Error(t, err)

	_, err = New(importer.NewRegistry(), metastore.NewFileStore(), nil, nil, Options{Compression: core.CompressionType(42)})
	assert.Error(t, err)
}

func TestPipeline_ImportFile_WritesMetadata(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeFile(t, dir, "readme.txt", "hello\r\nworld\n")

	p := newTestPipeline(t, textRegistry(t), DefaultOptions())
	result, err := p.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, importer.SourceMetadataVersion, result.Metadata.Version)
	assert.Equal(t, text.TypeID, result.Metadata.ImporterType)
	require.NotNil(t, result.Metadata.ImportHash)
	require.Len(t, result.Metadata.Assets, 1)
	require.Len(t, result.Artifacts, 1)

	asset := result.Metadata.Assets[0]
	require.NotNil(t, asset.Artifact)
	assert.Equal(t, asset.ID, asset.Artifact.ID)
	assert.Equal(t, text.DataTypeID, asset.Artifact.TypeID)
	assert.Equal(t, core.CompressionNone, asset.Artifact.Compression)
	assert.Equal(t, hash.NewHasher().Sum64(result.Artifacts[0].Data), asset.Artifact.Hash)
	assert.Equal(t, uint64(len(result.Artifacts[0].Data)), *asset.Artifact.UncompressedSize)
	assert.Equal(t, *asset.Artifact.UncompressedSize, *asset.Artifact.CompressedSize)

	decoded, err := DecodeArtifact[text.Text](core.CompressionNone, result.Artifacts[0].Data)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", decoded.Content)
	assert.Equal(t, 2, decoded.Lines)

	_, err = os.Stat(metastore.MetaPath(path))
	require.NoError(t, err, ".meta file written next to the source")

	stored, err := p.LoadMetadata(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, *result.Metadata.ImportHash, *stored.ImportHash)
	assert.Equal(t, asset.ID, stored.Assets[0].ID)
}

func TestPipeline_ImportFile_SkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "one\ntwo\n")
	p := newTestPipeline(t, textRegistry(t), DefaultOptions())

	first, err := p.ImportFile(ctx, path)
	require.NoError(t, err)

	second, err := p.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Empty(t, second.Artifacts)
	assert.Equal(t, *first.Metadata.ImportHash, *second.Metadata.ImportHash)
}

func TestPipeline_ImportFile_SourceChangeKeepsAssetID(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "first version")
	p := newTestPipeline(t, textRegistry(t), DefaultOptions())

	first, err := p.ImportFile(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("second version"), 0o644))
	second, err := p.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.False(t, second.Skipped)
	assert.NotEqual(t, *first.Metadata.ImportHash, *second.Metadata.ImportHash)
	assert.Equal(t, first.Metadata.Assets[0].ID, second.Metadata.Assets[0].ID,
		"asset id is carried in importer state")
}

func TestPipeline_ImportFile_Force(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "data.raw", "bytes")

	_, err := newTestPipeline(t, rawRegistry(t, 1), DefaultOptions()).ImportFile(ctx, path)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Force = true
	result, err := newTestPipeline(t, rawRegistry(t, 1), opts).ImportFile(ctx, path)
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	state := serde.MustDowncast[rawState](result.Metadata.ImporterState, "state")
	assert.Equal(t, 2, state.Imports)
}

func TestPipeline_ImportFile_VersionBumpReimports(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "data.raw", "bytes")

	first, err := newTestPipeline(t, rawRegistry(t, 1), DefaultOptions()).ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), first.Metadata.ImporterVersion)

	unchanged, err := newTestPipeline(t, rawRegistry(t, 1), DefaultOptions()).ImportFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, unchanged.Skipped)

	bumped, err := newTestPipeline(t, rawRegistry(t, 2), DefaultOptions()).ImportFile(ctx, path)
	require.NoError(t, err)
	assert.False(t, bumped.Skipped)
	assert.Equal(t, uint32(2), bumped.Metadata.ImporterVersion)

	state := serde.MustDowncast[rawState](bumped.Metadata.ImporterState, "state")
	assert.Equal(t, 2, state.Imports, "state survives the version bump")
}

func TestPipeline_ImportFile_ImporterChangeStartsFromDefaults(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "asset.txt", "text content")

	_, err := newTestPipeline(t, textRegistry(t), DefaultOptions()).ImportFile(ctx, path)
	require.NoError(t, err)

	r := importer.NewRegistry()
	require.NoError(t, r.Register("txt", blob.New))
	result, err := newTestPipeline(t, r, DefaultOptions()).ImportFile(ctx, path)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, blob.TypeID, result.Metadata.ImporterType)
	_, ok := serde.Downcast[blob.Options](result.Metadata.ImporterOptions)
	assert.True(t, ok)
}

func TestPipeline_ImportFile_PreservesBuildPipeline(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "data.raw", "bytes")
	store := metastore.NewFileStore()

	p, err := New(rawRegistry(t, 1), store, nil, nil, DefaultOptions())
	require.NoError(t, err)
	first, err := p.ImportFile(ctx, path)
	require.NoError(t, err)

	pipelineID := core.NewAssetUUID()
	meta := first.Metadata
	meta.Assets[0].BuildPipeline = &pipelineID
	data, err := importer.MarshalMetadata(meta)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, path, data))

	opts := DefaultOptions()
	opts.Force = true
	p, err = New(rawRegistry(t, 1), store, nil, nil, opts)
	require.NoError(t, err)
	second, err := p.ImportFile(ctx, path)
	require.NoError(t, err)

	require.NotNil(t, second.Metadata.Assets[0].BuildPipeline)
	assert.Equal(t, pipelineID, *second.Metadata.Assets[0].BuildPipeline)
}

func TestPipeline_ImportFile_Gzip(t *testing.T) {
	ctx := context.Background()
	content := "repeated line\nrepeated line\nrepeated line\nrepeated line\n"
	path := writeFile(t, t.TempDir(), "big.txt", content)

	opts := DefaultOptions()
	opts.Compression = core.CompressionGzip
	result, err := newTestPipeline(t, textRegistry(t), opts).ImportFile(ctx, path)
	require.NoError(t, err)

	artifact := result.Metadata.Assets[0].Artifact
	assert.Equal(t, core.CompressionGzip, artifact.Compression)
	assert.Equal(t, uint64(len(result.Artifacts[0].Data)), *artifact.CompressedSize)

	decoded, err := DecodeArtifact[text.Text](core.CompressionGzip, result.Artifacts[0].Data)
	require.NoError(t, err)
	assert.Equal(t, content, decoded.Content)
}

func TestPipeline_ImportFile_CompressionChangeReimports(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "one\ntwo\n")

	first, err := newTestPipeline(t, textRegistry(t), DefaultOptions()).ImportFile(ctx, path)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Compression = core.CompressionGzip
	second, err := newTestPipeline(t, textRegistry(t), opts).ImportFile(ctx, path)
	require.NoError(t, err)

	assert.False(t, second.Skipped)
	assert.NotEqual(t, *first.Metadata.ImportHash, *second.Metadata.ImportHash)
	assert.Equal(t, core.CompressionGzip, second.Metadata.Assets[0].Artifact.Compression)
	assert.Equal(t, first.Metadata.Assets[0].ID, second.Metadata.Assets[0].ID)
}

func TestPipeline_ImportFile_ArtifactHashIsStable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// encode other artifact types first; the raw payload must not change
	_, err := newTestPipeline(t, textRegistry(t), DefaultOptions()).ImportFile(ctx, writeFile(t, dir, "other.txt", "unrelated"))
	require.NoError(t, err)

	result, err := newTestPipeline(t, rawRegistry(t, 1), DefaultOptions()).ImportFile(ctx, writeFile(t, dir, "data.raw", "hello"))
	require.NoError(t, err)

	// CBOR byte string "hello"
	assert.Equal(t, "4568656c6c6f", hex.EncodeToString(result.Artifacts[0].Data))
	assert.Equal(t, uint64(0xe99e40b515da2d09), result.Metadata.Assets[0].Artifact.Hash)
}

func TestPipeline_ImportAll_IdenticalSourcesGetDistinctIDs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "hello\n")
	b := writeFile(t, dir, "b.txt", "hello\n")

	results, err := newTestPipeline(t, textRegistry(t), DefaultOptions()).ImportAll(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	assert.NotEqual(t, results[0].Metadata.Assets[0].ID, results[1].Metadata.Assets[0].ID)
	assert.Equal(t, results[0].Metadata.Assets[0].Artifact.Hash, results[1].Metadata.Assets[0].Artifact.Hash,
		"equal content fingerprints equally")
}

func TestPipeline_ImportFile_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := newTestPipeline(t, textRegistry(t), DefaultOptions())

	_, err := p.ImportFile(ctx, writeFile(t, dir, "image.png", "png"))
	assert.ErrorIs(t, err, importer.ErrNoImporter)

	_, err = p.ImportFile(ctx, filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, dir, "bad.txt", "\xff\xfe")
	_, err = p.ImportFile(ctx, bad)
	assert.ErrorIs(t, err, text.ErrInvalidUTF8)

	_, err = os.Stat(metastore.MetaPath(bad))
	assert.True(t, os.IsNotExist(err), "failed imports write no metadata")
}

func TestPipeline_ImportFile_UsesCachedOptions(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "padded.txt", "line   \nnext\t\n")

	backend := optcache.NewMemoryCache()
	defer backend.Close()
	cache := optcache.NewOptionsCache(backend)

	imp := text.New()
	options := serde.Box(text.Options{NormalizeNewlines: true, TrimTrailingSpace: true})
	require.NoError(t, cache.Put(ctx, imp, path, options, imp.DefaultState()))

	p, err := New(textRegistry(t), metastore.NewFileStore(), cache, nil, DefaultOptions())
	require.NoError(t, err)
	result, err := p.ImportFile(ctx, path)
	require.NoError(t, err)

	got := serde.MustDowncast[text.Options](result.Metadata.ImporterOptions, "options")
	assert.True(t, got.TrimTrailingSpace)

	decoded, err := DecodeArtifact[text.Text](core.CompressionNone, result.Artifacts[0].Data)
	require.NoError(t, err)
	assert.Equal(t, "line\nnext\n", decoded.Content)

	entry, err := cache.Get(ctx, imp, path)
	require.NoError(t, err)
	state := serde.MustDowncast[text.State](entry.State, "state")
	assert.Equal(t, result.Metadata.Assets[0].ID, state.AssetID, "cache is refreshed after import")
}

func TestPipeline_ImportAll(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "a"),
		writeFile(t, dir, "b.txt", "\xff"),
		writeFile(t, dir, "c.txt", "c"),
	}

	var done atomic.Int32
	opts := DefaultOptions()
	opts.Workers = 2
	opts.OnResult = func(*Result) { done.Add(1) }
	p := newTestPipeline(t, textRegistry(t), opts)

	results, err := p.ImportAll(ctx, paths)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(3), done.Load())
	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
	}
	assert.Error(t, results[1].Err)
	assert.Equal(t, Summary{Imported: 2, Failed: 1}, Summarize(results))

	results, err = p.ImportAll(ctx, paths)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 2, Failed: 1}, Summarize(results))
}

func TestPipeline_ImportAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeFile(t, t.TempDir(), "a.txt", "a")
	_, err := newTestPipeline(t, textRegistry(t), DefaultOptions()).ImportAll(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}
