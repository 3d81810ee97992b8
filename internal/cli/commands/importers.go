package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/assetimport/internal/cli/ui"
)

// NewImportersCommand creates the importers command
func NewImportersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "importers",
		Short: "List registered importers",
		Long:  "List every registered file extension with the type id and version of its importer.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := bundledRegistry()
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), noColor, "EXTENSION", "IMPORTER TYPE", "VERSION")
			for _, entry := range registry.SourceImporters() {
				imp := entry.Instantiator()
				table.AddRow(entry.Extension, imp.TypeID().String(), fmt.Sprint(imp.Version()))
			}
			table.Render()
			return nil
		},
	}
}
