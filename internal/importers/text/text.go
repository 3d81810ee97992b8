// Package text imports UTF-8 text files.
package text

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/importer"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

var (
	TypeID     = core.MustParseAssetTypeID("7a1d3e5f-2b4c-4d6e-8f01-a2b3c4d5e601")
	DataTypeID = core.MustParseAssetTypeID("7a1d3e5f-2b4c-4d6e-8f01-a2b3c4d5e602")
)

// ErrInvalidUTF8 is returned for sources that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("source is not valid UTF-8")

var Extensions = []string{"txt", "md"}

type Options struct {
	NormalizeNewlines bool     `yaml:"normalize_newlines"`
	TrimTrailingSpace bool     `yaml:"trim_trailing_space"`
	Tags              []string `yaml:"tags,omitempty"`
}

type State struct {
	AssetID core.AssetUUID `yaml:"asset_id"`
}

// Text is the artifact payload.
type Text struct {
	Content string
	Lines   int
}

type Importer struct{}

func (Importer) TypeID() core.AssetTypeID { return TypeID }

func (Importer) Version() uint32 { return 1 }

func (Importer) DefaultOptions() Options {
	return Options{NormalizeNewlines: true}
}

func (Importer) DefaultState() State { return State{} }

func (Importer) Import(source io.Reader, options Options, state *State) (*importer.ImporterValue, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	content := string(data)
	if options.NormalizeNewlines {
		content = strings.ReplaceAll(content, "\r\n", "\n")
	}
	if options.TrimTrailingSpace {
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t\r")
		}
		content = strings.Join(lines, "\n")
	}

	if state.AssetID.IsZero() {
		state.AssetID = core.NewAssetUUID()
	}

	tags := []importer.SearchTag{importer.Tag("format", "text")}
	for _, tag := range options.Tags {
		tags = append(tags, importer.SearchTag{Key: tag})
	}

	return &importer.ImporterValue{
		Assets: []importer.ImportedAsset{{
			ID:         state.AssetID,
			SearchTags: tags,
			TypeID:     DataTypeID,
			Data:       serde.Box(Text{Content: content, Lines: countLines(content)}),
		}},
	}, nil
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}

func New() importer.BoxedImporter {
	return importer.Box[Options, State](Importer{})
}

func Register(r *importer.Registry) error {
	for _, ext := range Extensions {
		if err := r.Register(ext, New); err != nil {
			return err
		}
	}
	return nil
}
