// Package manifest imports YAML asset manifests: one asset per entry, with
// build and load dependencies between entries or on other source files.
//
// A manifest looks like:
//
//	entries:
//	  - name: level1
//	    build_deps: [tiles]
//	    load_deps: [music/theme.ogg]
//	    properties:
//	      difficulty: hard
//	  - name: tiles
//
// A dependency naming another entry becomes a UUID reference; anything else
// is kept as a path reference for the loader to resolve.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/importer"
	"github.com/conduit-lang/assetimport/pkg/serde"
)

var (
	TypeID     = core.MustParseAssetTypeID("c3e9b2a7-5d1f-4e8a-b6c0-9f2d4a7e1b01")
	DataTypeID = core.MustParseAssetTypeID("c3e9b2a7-5d1f-4e8a-b6c0-9f2d4a7e1b02")
)

var (
	ErrEmptyName     = errors.New("manifest entry has no name")
	ErrDuplicateName = errors.New("duplicate manifest entry")
	ErrUnknownDep    = errors.New("unknown dependency")
)

var Extensions = []string{"manifest"}

// Options configures a manifest import.
type Options struct {
	// AllowPathDeps keeps dependencies that name no entry as path references.
	// When false they are rejected with ErrUnknownDep.
	AllowPathDeps bool `yaml:"allow_path_deps"`
}

// State keeps the id of every entry ever seen, so ids survive edits,
// reordering and temporary removal of entries.
type State struct {
	IDs map[string]core.AssetUUID `yaml:"ids"`
}

// Entry is the artifact payload of one manifest entry.
type Entry struct {
	Name string
	// Properties are sorted by key so equal entries serialize identically.
	Properties []Property
}

// Property is one key/value pair of an entry.
type Property struct {
	Key   string
	Value string
}

// Property returns the value for key.
func (e Entry) Property(key string) (string, bool) {
	i := sort.Search(len(e.Properties), func(i int) bool { return e.Properties[i].Key >= key })
	if i < len(e.Properties) && e.Properties[i].Key == key {
		return e.Properties[i].Value, true
	}
	return "", false
}

func sortedProperties(props map[string]string) []Property {
	if len(props) == 0 {
		return nil
	}
	out := make([]Property, 0, len(props))
	for k, v := range props {
		out = append(out, Property{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

type document struct {
	Entries []entry `yaml:"entries"`
}

type entry struct {
	Name       string            `yaml:"name"`
	BuildDeps  []string          `yaml:"build_deps"`
	LoadDeps   []string          `yaml:"load_deps"`
	Properties map[string]string `yaml:"properties"`
}

type Importer struct{}

func (Importer) TypeID() core.AssetTypeID { return TypeID }

func (Importer) Version() uint32 { return 1 }

func (Importer) DefaultOptions() Options { return Options{AllowPathDeps: true} }

func (Importer) DefaultState() State {
	return State{IDs: make(map[string]core.AssetUUID)}
}

func (Importer) Import(source io.Reader, options Options, state *State) (*importer.ImporterValue, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	seen := make(map[string]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		if e.Name == "" {
			return nil, ErrEmptyName
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, e.Name)
		}
		seen[e.Name] = true
	}

	// state is only updated once the whole manifest imported
	ids := make(map[string]core.AssetUUID, len(state.IDs)+len(doc.Entries))
	for name, id := range state.IDs {
		ids[name] = id
	}
	for _, e := range doc.Entries {
		if _, ok := ids[e.Name]; !ok {
			ids[e.Name] = core.NewAssetUUID()
		}
	}

	resolve := func(deps []string) ([]core.AssetRef, error) {
		var refs []core.AssetRef
		for _, dep := range deps {
			if seen[dep] {
				refs = append(refs, core.RefUUID(ids[dep]))
				continue
			}
			if !options.AllowPathDeps {
				return nil, fmt.Errorf("%w: %s", ErrUnknownDep, dep)
			}
			refs = append(refs, core.RefPath(dep))
		}
		return refs, nil
	}

	assets := make([]importer.ImportedAsset, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		buildDeps, err := resolve(e.BuildDeps)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Name, err)
		}
		loadDeps, err := resolve(e.LoadDeps)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Name, err)
		}

		assets = append(assets, importer.ImportedAsset{
			ID:         ids[e.Name],
			SearchTags: []importer.SearchTag{importer.Tag("name", e.Name)},
			BuildDeps:  buildDeps,
			LoadDeps:   loadDeps,
			TypeID:     DataTypeID,
			Data:       serde.Box(Entry{Name: e.Name, Properties: sortedProperties(e.Properties)}),
		})
	}

	state.IDs = ids
	return &importer.ImporterValue{Assets: assets}, nil
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
