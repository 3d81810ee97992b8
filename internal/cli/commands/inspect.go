package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/assetimport/internal/cli/ui"
	"github.com/conduit-lang/assetimport/internal/pipeline"
	"github.com/conduit-lang/assetimport/pkg/importer"
)

var inspectRaw bool

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <source>",
		Short: "Show the stored metadata of a source file",
		Example: `  # Summary of the last import of a file
  assetimport inspect assets/level.manifest

  # The full metadata record
  assetimport inspect --raw assets/level.manifest`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().BoolVar(&inspectRaw, "raw", false, "Print the metadata record as YAML")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	source := args[0]
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		ui.ConfigError(err, noColor).Write(cmd.ErrOrStderr())
		return err
	}

	registry, err := bundledRegistry()
	if err != nil {
		return err
	}

	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := pipeline.New(registry, store, nil, zap.NewNop(), cfg.PipelineOptions())
	if err != nil {
		return err
	}

	meta, err := p.LoadMetadata(cmd.Context(), source)
	if err != nil {
		return err
	}

	if inspectRaw {
		data, err := importer.MarshalMetadata(meta)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	renderMetadata(cmd, source, meta)
	return nil
}

func renderMetadata(cmd *cobra.Command, source string, meta *importer.Erased) {
	out := cmd.OutOrStdout()

	ui.Header(out, source, noColor)
	kv := ui.NewKeyValueTable(out, noColor)
	kv.AddRow("Importer type", meta.ImporterType.String())
	kv.AddRow("Importer version", fmt.Sprint(meta.ImporterVersion))
	if meta.ImportHash != nil {
		kv.AddRow("Import hash", fmt.Sprintf("%016x", *meta.ImportHash))
	} else {
		kv.AddRow("Import hash", "none")
	}
	kv.AddRow("Assets", fmt.Sprint(len(meta.Assets)))
	kv.Render()

	for _, asset := range meta.Assets {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asset.ID)

		details := ui.NewKeyValueTable(out, noColor).Indent(2)
		if tags := formatTags(asset.SearchTags); tags != "" {
			details.AddRow("Tags", tags)
		}
		if asset.BuildPipeline != nil {
			details.AddRow("Build pipeline", asset.BuildPipeline.String())
		}
		if a := asset.Artifact; a != nil {
			details.AddRow("Type", a.TypeID.String())
			details.AddRow("Hash", fmt.Sprintf("%016x", a.Hash))
			details.AddRow("Compression", a.Compression.String())
			if a.UncompressedSize != nil && a.CompressedSize != nil {
				details.AddRow("Size", fmt.Sprintf("%d bytes (%d compressed)", *a.UncompressedSize, *a.CompressedSize))
			}
			if len(a.BuildDeps) > 0 {
				details.AddRow("Build deps", formatRefs(a.BuildDeps))
			}
			if len(a.LoadDeps) > 0 {
				details.AddRow("Load deps", formatRefs(a.LoadDeps))
			}
		} else {
			details.AddRow("Artifact", "none")
		}
		details.Render()
	}
}

func formatTags(tags []importer.SearchTag) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		if tag.Value != nil {
			parts[i] = tag.Key + "=" + *tag.Value
		} else {
			parts[i] = tag.Key
		}
	}
	return strings.Join(parts, ", ")
}

func formatRefs[T fmt.Stringer](refs []T) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = ref.String()
	}
	return strings.Join(parts, ", ")
}
