package optcache

import (
	"context"
	"fmt"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/importer"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

// OptionsCache stores erased importer options and state in the binary cache
// encoding. Entries are keyed by importer type, so a value is only ever
// decoded by the importer that wrote it.
type OptionsCache struct {
	cache Cache
}

// NewOptionsCache wraps a cache backend.
func NewOptionsCache(cache Cache) *OptionsCache {
	return &OptionsCache{cache: cache}
}

// Entry is the options and state restored for a source file.
type Entry struct {
	Options serde.Object
	State   serde.Object
}

func optionsKey(importerType core.AssetTypeID, sourcePath string) string {
	return fmt.Sprintf("options:%s:%s", importerType, sourcePath)
}

func stateKey(importerType core.AssetTypeID, sourcePath string) string {
	return fmt.Sprintf("state:%s:%s", importerType, sourcePath)
}

// Put encodes and stores options and state for sourcePath.
func (c *OptionsCache) Put(ctx context.Context, imp importer.BoxedImporter, sourcePath string, options, state serde.Object) error {
	optBytes, err := options.MarshalBinary()
	if err != nil {
		return err
	}
	stateBytes, err := state.MarshalBinary()
	if err != nil {
		return err
	}

	if err := c.cache.Set(ctx, optionsKey(imp.TypeID(), sourcePath), optBytes, 0); err != nil {
		return fmt.Errorf("failed to cache options for %s: %w", sourcePath, err)
	}
	if err := c.cache.Set(ctx, stateKey(imp.TypeID(), sourcePath), stateBytes, 0); err != nil {
		return fmt.Errorf("failed to cache state for %s: %w", sourcePath, err)
	}
	return nil
}

// Get restores options and state for sourcePath through imp. Both must be
// present; otherwise ErrCacheMiss is returned.
func (c *OptionsCache) Get(ctx context.Context, imp importer.BoxedImporter, sourcePath string) (*Entry, error) {
	optBytes, err := c.cache.Get(ctx, optionsKey(imp.TypeID(), sourcePath))
	if err != nil {
		return nil, err
	}
	stateBytes, err := c.cache.Get(ctx, stateKey(imp.TypeID(), sourcePath))
	if err != nil {
		return nil, err
	}

	options, err := imp.DeserializeOptions(optBytes)
	if err != nil {
		return nil, err
	}
	state, err := imp.DeserializeState(stateBytes)
	if err != nil {
		return nil, err
	}
	return &Entry{Options: options, State: state}, nil
}

// Invalidate drops the entries for sourcePath.
func (c *OptionsCache) Invalidate(ctx context.Context, imp importer.BoxedImporter, sourcePath string) error {
	if err := c.cache.Delete(ctx, optionsKey(imp.TypeID(), sourcePath)); err != nil {
		return err
	}
	return c.cache.Delete(ctx, stateKey(imp.TypeID(), sourcePath))
}

// Close closes the backend.
func (c *OptionsCache) Close() error {
	return c.cache.Close()
}
