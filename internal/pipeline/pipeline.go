// Package pipeline drives imports for a build tool: it resolves importers
// through the registry, gates re-imports on the import hash, runs importers
// in parallel and persists the resulting metadata.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/assetimport/internal/compression"
	"github.com/conduit-lang/assetimport/internal/hash"
	"github.com/conduit-lang/assetimport/internal/metastore"
	"github.com/conduit-lang/assetimport/internal/optcache"
	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/importer"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

// Options configures the pipeline
type Options struct {
	// Workers bounds the number of files imported concurrently.
	Workers int
	// Force re-imports even when the import hash is unchanged.
	Force       bool
	Compression core.CompressionType
	// OnResult is called by ImportAll once per finished file, from the
	// worker goroutine that imported it.
	OnResult func(*Result)
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Workers:     runtime.NumCPU(),
		Compression: core.CompressionNone,
	}
}

// Pipeline imports source files. It is safe for concurrent use once built.
type Pipeline struct {
	registry *importer.Registry
	store    metastore.Store
	cache    *optcache.OptionsCache
	hasher   hash.Hasher
	codec    compression.Codec
	logger   *zap.Logger
	options  Options
}

// New creates a pipeline. cache and logger may be nil.
func New(registry *importer.Registry, store metastore.Store, cache *optcache.OptionsCache, logger *zap.Logger, opts Options) (*Pipeline, error) {
	if registry == nil {
		return nil, errors.New("pipeline requires a registry")
	}
	if store == nil {
		return nil, errors.New("pipeline requires a metadata store")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	codec, err := compression.For(opts.Compression)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		registry: registry,
		store:    store,
		cache:    cache,
		hasher:   hash.NewHasher(),
		codec:    codec,
		logger:   logger,
		options:  opts,
	}, nil
}

// Artifact is the serialized and compressed payload of one imported asset.
type Artifact struct {
	AssetID core.AssetUUID
	Data    []byte
}

// Result describes the outcome for one source file.
type Result struct {
	Path string
	// Skipped is set when the stored import hash was still current.
	Skipped   bool
	Metadata  *importer.Erased
	Artifacts []Artifact
	Duration  time.Duration
	Err       error
}

// Summary aggregates results of ImportAll
type Summary struct {
	Imported int
	Skipped  int
	Failed   int
}

// Summarize counts results by outcome.
func Summarize(results []*Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		default:
			s.Imported++
		}
	}
	return s
}

// ImportAll imports paths in parallel. Per-file failures are reported in the
// matching Result; the returned error is only set when ctx is cancelled.
// Results are in the order of paths.
func (p *Pipeline) ImportAll(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := p.ImportFile(gctx, path)
			if err != nil {
				result = &Result{Path: path, Err: err}
			}
			results[i] = result
			if p.options.OnResult != nil {
				p.options.OnResult(result)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ImportFile imports one source file, or skips it when its metadata is
// current.
func (p *Pipeline) ImportFile(ctx context.Context, path string) (*Result, error) {
	startTime := time.Now()
	log := p.logger.With(zap.String("path", path))

	imp, ok := p.registry.Lookup(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%s: %w for extension %q", path, importer.ErrNoImporter, filepath.Ext(path))
	}
	log = log.With(zap.Stringer("importer", imp.TypeID()))

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	prior, err := p.loadPrior(ctx, imp, path, log)
	if err != nil {
		return nil, err
	}

	options, state := imp.DefaultOptions(), imp.DefaultState()
	if prior != nil {
		options, state = prior.ImporterOptions, prior.ImporterState
	} else if cached := p.loadCached(ctx, imp, path, log); cached != nil {
		options, state = cached.Options, cached.State
	}

	optionBytes, err := options.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode options for %s: %w", path, err)
	}
	importHash := hash.ImportHash(hash.ImportHashInput{
		Source:          source,
		Options:         optionBytes,
		ImporterVersion: imp.Version(),
		ImporterType:    imp.TypeID(),
		Compression:     p.options.Compression,
	})

	if !p.options.Force && !prior.NeedsReimport(importHash, imp.Version()) {
		log.Debug("import skipped, metadata is current", zap.Uint64("hash", importHash))
		return &Result{
			Path:     path,
			Skipped:  true,
			Metadata: prior,
			Duration: time.Since(startTime),
		}, nil
	}

	out, err := imp.ImportBoxed(bytes.NewReader(source), options, state)
	if err != nil {
		log.Warn("import failed", zap.Error(err))
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}

	assets, artifacts, err := p.buildAssets(out.Value, prior)
	if err != nil {
		return nil, fmt.Errorf("failed to build artifacts for %s: %w", path, err)
	}

	meta := &importer.Erased{
		Version:         importer.SourceMetadataVersion,
		ImportHash:      &importHash,
		ImporterVersion: imp.Version(),
		ImporterType:    imp.TypeID(),
		ImporterOptions: out.Options,
		ImporterState:   out.State,
		Assets:          assets,
	}

	data, err := importer.MarshalMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata for %s: %w", path, err)
	}
	if err := p.store.Save(ctx, path, data); err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, imp, path, out.Options, out.State); err != nil {
			// The cache is an accelerator; the metadata file is authoritative.
			log.Warn("failed to cache importer options", zap.Error(err))
		}
	}

	log.Info("imported",
		zap.Uint64("hash", importHash),
		zap.Int("assets", len(assets)),
		zap.Duration("duration", time.Since(startTime)))

	return &Result{
		Path:      path,
		Metadata:  meta,
		Artifacts: artifacts,
		Duration:  time.Since(startTime),
	}, nil
}

// loadPrior decodes the stored metadata for path. Metadata written by a
// different importer is routed to that importer to confirm it is intact and
// then discarded: its options and state cannot be fed to imp.
func (p *Pipeline) loadPrior(ctx context.Context, imp importer.BoxedImporter, path string, log *zap.Logger) (*importer.Erased, error) {
	data, err := p.store.Load(ctx, path)
	if err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	meta, err := imp.DeserializeMetadata(data)
	if err == nil {
		return meta, nil
	}

	var mismatch *importer.ImporterTypeMismatchError
	if !errors.As(err, &mismatch) {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", path, err)
	}

	if previous, ok := p.registry.ForType(mismatch.Got); ok {
		if _, err := previous.DeserializeMetadata(data); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", path, err)
		}
	}
	log.Info("importer changed, starting from defaults",
		zap.Stringer("previous_importer", mismatch.Got))
	return nil, nil
}

func (p *Pipeline) loadCached(ctx context.Context, imp importer.BoxedImporter, path string, log *zap.Logger) *optcache.Entry {
	if p.cache == nil {
		return nil
	}
	entry, err := p.cache.Get(ctx, imp, path)
	if err != nil {
		if !optcache.IsCacheMiss(err) {
			log.Warn("ignoring unreadable options cache entry", zap.Error(err))
		}
		return nil
	}
	return entry
}

// buildAssets serializes each imported asset and fills in its artifact
// metadata. Entries already known from prior keep their build pipeline
// unless the importer sets a new one.
func (p *Pipeline) buildAssets(value *importer.ImporterValue, prior *importer.Erased) ([]importer.AssetMetadata, []Artifact, error) {
	if value == nil {
		return []importer.AssetMetadata{}, nil, nil
	}

	assets := make([]importer.AssetMetadata, 0, len(value.Assets))
	artifacts := make([]Artifact, 0, len(value.Assets))

	for _, asset := range value.Assets {
		if asset.Data == nil {
			return nil, nil, fmt.Errorf("asset %s has no data", asset.ID)
		}
		serialized, err := asset.Data.MarshalBinary()
		if err != nil {
			return nil, nil, err
		}
		compressed, err := p.codec.Compress(serialized)
		if err != nil {
			return nil, nil, err
		}

		uncompressedSize := uint64(len(serialized))
		compressedSize := uint64(len(compressed))

		buildPipeline := asset.BuildPipeline
		if buildPipeline == nil && prior != nil {
			if previous, ok := prior.AssetByID(asset.ID); ok {
				buildPipeline = previous.BuildPipeline
			}
		}

		assets = append(assets, importer.AssetMetadata{
			ID:            asset.ID,
			SearchTags:    asset.SearchTags,
			BuildPipeline: buildPipeline,
			Artifact: &importer.ArtifactMetadata{
				Hash:             p.hasher.Sum64(serialized),
				ID:               asset.ID,
				BuildDeps:        asset.BuildDeps,
				LoadDeps:         asset.LoadDeps,
				Compression:      p.options.Compression,
				CompressedSize:   &compressedSize,
				UncompressedSize: &uncompressedSize,
				TypeID:           asset.TypeID,
			},
		})
		artifacts = append(artifacts, Artifact{AssetID: asset.ID, Data: compressed})
	}

	return assets, artifacts, nil
}

// LoadMetadata reads and decodes the stored metadata for path using the
// importer recorded in it, falling back to the extension's importer for
// files that predate the recorded importer type.
func (p *Pipeline) LoadMetadata(ctx context.Context, path string) (*importer.Erased, error) {
	data, err := p.store.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	imp, ok := p.registry.Lookup(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, importer.ErrNoImporter)
	}

	meta, err := imp.DeserializeMetadata(data)
	var mismatch *importer.ImporterTypeMismatchError
	if errors.As(err, &mismatch) {
		owner, ok := p.registry.ForType(mismatch.Got)
		if !ok {
			return nil, fmt.Errorf("%s: %w of type %s", path, importer.ErrNoImporter, mismatch.Got)
		}
		return owner.DeserializeMetadata(data)
	}
	return meta, err
}

// DecodeArtifact reverses the compression applied by the pipeline and
// decodes the payload as T.
func DecodeArtifact[T any](compressionType core.CompressionType, data []byte) (T, error) {
	var zero T
	codec, err := compression.For(compressionType)
	if err != nil {
		return zero, err
	}
	raw, err := codec.Decompress(data)
	if err != nil {
		return zero, err
	}
	return serde.UnmarshalBinary[T](raw)
}
