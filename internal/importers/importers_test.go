package importers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/assetimport/pkg/importer"
)

func TestRegisterAll(t *testing.T) {
	r := importer.NewRegistry()
	require.NoError(t, RegisterAll(r))

	var exts []string
	for _, entry := range r.SourceImporters() {
		exts = append(exts, entry.Extension)
	}
	assert.Equal(t, []string{"bin", "dat", "txt", "md", "manifest"}, exts)
}

func TestRegisterAll_Twice(t *testing.T) {
	r := importer.NewRegistry()
	require.NoError(t, RegisterAll(r))
	err := RegisterAll(r)
	assert.True(t, errors.Is(err, importer.ErrDuplicateExtension))
}
