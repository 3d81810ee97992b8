// Package importer is the type-erasure core of the asset import pipeline.
//
// A format-specific importer implements Importer[O, S] with its own strongly
// typed options O and state S. Box derives a BoxedImporter from it, so a
// build tool can invoke any importer, decode its .meta files and cache
// entries, and persist the results without knowing O or S:
//
//	reg := importer.NewRegistry()
//	reg.MustRegister("png", func() importer.BoxedImporter {
//		return importer.Box[PNGOptions, PNGState](&PNGImporter{})
//	})
//
//	imp, ok := reg.Lookup(filepath.Ext(path))
//	meta, err := imp.DeserializeMetadata(metaBytes)
//	out, err := imp.ImportBoxed(src, meta.ImporterOptions, meta.ImporterState)
//
// Erased options and state always travel together with the importer type
// that produced them (SourceMetadata.ImporterType). Handing them to another
// importer is a defect and panics.
//
// SourceMetadata records the import hash and importer version of the last
// import. The hash itself is computed by the caller; NeedsReimport only
// compares it.
package importer
