package importer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-lang/assetimport/pkg/core"
)

// Instantiator yields a fresh erased importer instance.
type Instantiator func() BoxedImporter

// SourceFileImporter associates a file extension with an importer.
type SourceFileImporter struct {
	// Extension has no leading separator ("png", not ".png").
	Extension    string
	Instantiator Instantiator
}

// Registry maps file extensions to importer constructors.
//
// Registration happens during startup. The first read (or an explicit Seal)
// closes registration; from then on the registry is read-only and safe for
// concurrent use without locking.
type Registry struct {
	mu       sync.Mutex
	sealOnce sync.Once
	sealed   bool
	entries  []SourceFileImporter
	byExt    map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]int),
	}
}

// NormalizeExtension strips leading separators and lower-cases ext.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimLeft(ext, "."))
}

// Register adds an importer for ext. The extension is stored in its
// normalized form: leading dots are stripped and it is lower-cased, so "WAV",
// ".wav" and "wav" are the same claim and SourceImporters lists it as "wav".
// An extension may be claimed only once; a second claim fails with
// ErrDuplicateExtension regardless of order.
func (r *Registry) Register(ext string, inst Instantiator) error {
	normalized := NormalizeExtension(ext)
	if normalized == "" {
		return fmt.Errorf("invalid extension %q", ext)
	}
	if inst == nil {
		return fmt.Errorf("nil instantiator for extension %q", normalized)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", normalized, ErrRegistrySealed)
	}
	if _, exists := r.byExt[normalized]; exists {
		return fmt.Errorf("register %q: %w", normalized, ErrDuplicateExtension)
	}

	r.byExt[normalized] = len(r.entries)
	r.entries = append(r.entries, SourceFileImporter{
		Extension:    normalized,
		Instantiator: inst,
	})
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(ext string, inst Instantiator) {
	if err := r.Register(ext, inst); err != nil {
		panic(err)
	}
}

// Seal closes registration. It is idempotent.
func (r *Registry) Seal() {
	r.sealOnce.Do(func() {
		r.mu.Lock()
		r.sealed = true
		r.mu.Unlock()
	})
}

// SourceImporters enumerates every registered entry in registration order.
func (r *Registry) SourceImporters() []SourceFileImporter {
	r.Seal()
	out := make([]SourceFileImporter, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup returns a new importer instance for ext. The leading separator is
// optional.
func (r *Registry) Lookup(ext string) (BoxedImporter, bool) {
	r.Seal()
	idx, ok := r.byExt[NormalizeExtension(ext)]
	if !ok {
		return nil, false
	}
	return r.entries[idx].Instantiator(), true
}

// ForType returns a new instance of the importer whose TypeID is id.
// It is used to route a .meta file back to the importer that wrote it.
func (r *Registry) ForType(id core.AssetTypeID) (BoxedImporter, bool) {
	r.Seal()
	for _, entry := range r.entries {
		imp := entry.Instantiator()
		if imp.TypeID() == id {
			return imp, true
		}
	}
	return nil, false
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds an importer to the process-wide registry. See
// Registry.Register for extension normalization.
func Register(ext string, inst Instantiator) error {
	return defaultRegistry.Register(ext, inst)
}

// SourceImporters enumerates the process-wide registry.
func SourceImporters() []SourceFileImporter {
	return defaultRegistry.SourceImporters()
}

// Lookup resolves ext against the process-wide registry.
func Lookup(ext string) (BoxedImporter, bool) {
	return defaultRegistry.Lookup(ext)
}
