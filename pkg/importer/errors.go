package importer

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/assetimport/pkg/core"
)

var (
	// ErrNoImporter is returned when no importer handles an extension or type.
	ErrNoImporter = errors.New("no importer registered")
	// ErrDuplicateExtension is returned when an extension is claimed twice.
	ErrDuplicateExtension = errors.New("extension already registered")
	// ErrRegistrySealed is returned when registering after the first lookup.
	ErrRegistrySealed = errors.New("importer registry is sealed")
)

// ImporterTypeMismatchError is returned when a .meta file was written by a
// different importer than the one asked to decode it.
type ImporterTypeMismatchError struct {
	Want core.AssetTypeID
	Got  core.AssetTypeID
}

func (e *ImporterTypeMismatchError) Error() string {
	return fmt.Sprintf("metadata written by importer %s, not %s", e.Got, e.Want)
}
