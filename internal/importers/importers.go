// Package importers wires the bundled importers into a registry. main calls
// RegisterAll once during startup, before the registry is first read.
package importers

import (
	"github.com/conduit-lang/assetimport/internal/importers/blob"
	"github.com/conduit-lang/assetimport/internal/importers/manifest"
	"github.com/conduit-lang/assetimport/internal/importers/text"
	"github.com/conduit-lang/assetimport/pkg/importer"
)

// RegisterAll registers every bundled importer with r.
func RegisterAll(r *importer.Registry) error {
	for _, register := range []func(*importer.Registry) error{
		blob.Register,
		text.Register,
		manifest.Register,
	} {
		if err := register(r); err != nil {
			return err
		}
	}
	return nil
}
