package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/assetimport/internal/cli/config"
	"github.com/conduit-lang/assetimport/internal/cli/ui"
	"github.com/conduit-lang/assetimport/internal/metastore"
	"github.com/conduit-lang/assetimport/internal/pipeline"
	"github.com/conduit-lang/assetimport/internal/utils"
	"github.com/conduit-lang/assetimport/internal/watch"
	"github.com/conduit-lang/assetimport/pkg/core"
	"github.com/conduit-lang/assetimport/pkg/importer"
)

var (
	importForce       bool
	importWorkers     int
	importCompression string
	importWatch       bool
)

// ErrImportFailed is returned when at least one source failed to import.
var ErrImportFailed = errors.New("import failed")

// NewImportCommand creates the import command
func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [paths...]",
		Short: "Import source files",
		Long: `Import source files with the importer registered for their extension.

Directories are walked recursively and files without an importer are
ignored. Files named explicitly must have an importer. With no paths the
configured source_dir is imported.

A source is skipped when its stored import hash still matches the source
bytes, the importer options and the importer version.`,
		Example: `  # Import everything under source_dir
  assetimport import

  # Re-import two files even if they are unchanged
  assetimport import --force assets/a.txt assets/b.manifest

  # Import with gzip-compressed artifacts on 8 workers
  assetimport import -j 8 --compression gzip assets/

  # Import, then keep re-importing whatever changes
  assetimport import --watch`,
		RunE: runImport,
	}

	cmd.Flags().BoolVarP(&importForce, "force", "f", false, "Re-import even when metadata is current")
	cmd.Flags().IntVarP(&importWorkers, "workers", "j", 0, "Number of parallel imports (default: config workers)")
	cmd.Flags().StringVar(&importCompression, "compression", "", "Artifact compression: none or gzip (default: config compression)")
	cmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "Keep running and re-import sources as they change")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	errOut := cmd.ErrOrStderr()

	cfg, err := loadConfig()
	if err != nil {
		ui.ConfigError(err, noColor).Write(errOut)
		return err
	}
	applyImportFlags(cmd, cfg)
	if _, err := core.ParseCompressionType(cfg.Compression); err != nil {
		return err
	}

	registry, err := bundledRegistry()
	if err != nil {
		return err
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{cfg.SourceDir}
	}
	paths, err := collectSources(registry, roots)
	if err != nil {
		var noImp *noImporterError
		if errors.As(err, &noImp) {
			ui.NoImporterError(noImp.path, noImp.ext, knownExtensions(registry), noColor).Write(errOut)
		}
		return err
	}
	if len(paths) == 0 && !importWatch {
		ui.Warning(fmt.Sprintf("No importable files found in %s", strings.Join(roots, ", ")), noColor).Write(errOut)
		return nil
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	cache, err := cfg.OpenCache()
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	opts := cfg.PipelineOptions()
	var bar *ui.ProgressBar
	if !verbose && !importWatch && len(paths) > 1 {
		bar = ui.NewProgressBar(errOut, ui.ProgressBarOptions{
			Total:   len(paths),
			Message: "importing",
			NoColor: noColor,
		})
		opts.OnResult = func(*pipeline.Result) { bar.Increment() }
	}

	p, err := pipeline.New(registry, store, cache, logger, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	results, err := p.ImportAll(ctx, paths)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	summary := reportResults(cmd, results, time.Since(startTime))
	if importWatch {
		return watchSources(ctx, cmd, p, registry, roots, logger)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d sources", ErrImportFailed, summary.Failed, len(results))
	}
	return nil
}

func reportResults(cmd *cobra.Command, results []*pipeline.Result, elapsed time.Duration) pipeline.Summary {
	for _, r := range results {
		if r.Err != nil {
			ui.ImportFailedError(r.Path, r.Err, noColor).Write(cmd.ErrOrStderr())
		}
	}

	summary := pipeline.Summarize(results)
	message := fmt.Sprintf("Imported %d, skipped %d, failed %d (%.2fs)",
		summary.Imported, summary.Skipped, summary.Failed, elapsed.Seconds())
	if summary.Failed > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), message)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(message, noColor))
	}
	return summary
}

// watchSources re-imports changed sources until ctx is cancelled. Failures
// are reported and watching continues.
func watchSources(ctx context.Context, cmd *cobra.Command, p *pipeline.Pipeline, registry *importer.Registry, roots []string, logger *zap.Logger) error {
	dirs, accept, err := watchTargets(registry, roots)
	if err != nil {
		return err
	}

	w, err := watch.NewSourceWatcher(dirs, accept, logger, watch.DefaultDelay)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (Ctrl+C to stop)\n", strings.Join(dirs, ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case files := <-w.Changes():
			startTime := time.Now()
			results, err := p.ImportAll(ctx, files)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			reportResults(cmd, results, time.Since(startTime))
		}
	}
}

// watchTargets returns the directories to watch for roots and a filter that
// accepts importable files under directory roots plus the explicitly named
// files.
func watchTargets(registry *importer.Registry, roots []string) ([]string, func(string) bool, error) {
	var dirs, dirRoots []string
	files := make(map[string]bool)
	seenDirs := make(map[string]bool)

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, err
		}

		dir := root
		if info.IsDir() {
			dirRoots = append(dirRoots, filepath.Clean(root)+string(filepath.Separator))
		} else {
			dir = filepath.Dir(root)
			files[filepath.Clean(root)] = true
		}
		if !seenDirs[dir] {
			seenDirs[dir] = true
			dirs = append(dirs, dir)
		}
	}

	accept := func(path string) bool {
		if strings.HasSuffix(path, metastore.MetaExtension) || strings.HasSuffix(path, metastore.MetaExtension+".tmp") {
			return false
		}
		if _, ok := registry.Lookup(filepath.Ext(path)); !ok {
			return false
		}
		path = filepath.Clean(path)
		if files[path] {
			return true
		}
		for _, root := range dirRoots {
			if strings.HasPrefix(path, root) {
				return true
			}
		}
		return false
	}
	return dirs, accept, nil
}

func applyImportFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("force") {
		cfg.Force = importForce
	}
	if cmd.Flags().Changed("workers") && importWorkers > 0 {
		cfg.Workers = importWorkers
	}
	if cmd.Flags().Changed("compression") {
		cfg.Compression = importCompression
	}
}

type noImporterError struct {
	path string
	ext  string
}

func (e *noImporterError) Error() string {
	return fmt.Sprintf("%s: no importer for extension %q", e.path, e.ext)
}

func (e *noImporterError) Unwrap() error {
	return importer.ErrNoImporter
}

// collectSources expands roots into the source files to import. Metadata
// files and files without an importer are skipped while walking
// directories.
func collectSources(registry *importer.Registry, roots []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			ext := filepath.Ext(root)
			if _, ok := registry.Lookup(ext); !ok {
				return nil, &noImporterError{path: root, ext: strings.TrimPrefix(ext, ".")}
			}
			add(root)
			continue
		}

		found, err := utils.FindFiles(root, func(path string) bool {
			if strings.HasSuffix(path, metastore.MetaExtension) {
				return false
			}
			_, ok := registry.Lookup(filepath.Ext(path))
			return ok
		})
		if err != nil {
			return nil, err
		}
		for _, path := range found {
			add(path)
		}
	}

	return paths, nil
}

func knownExtensions(registry *importer.Registry) []string {
	entries := registry.SourceImporters()
	exts := make([]string, len(entries))
	for i, entry := range entries {
		exts[i] = entry.Extension
	}
	return exts
}
