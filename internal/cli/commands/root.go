package commands

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/assetimport/internal/cli/config"
	"github.com/conduit-lang/assetimport/internal/importers"
	"github.com/conduit-lang/assetimport/pkg/importer"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	configPath string
	verbose    bool
	noColor    bool
)

var (
	registerOnce sync.Once
	registerErr  error
)

// bundledRegistry returns the process-wide registry with the bundled
// importers registered.
func bundledRegistry() (*importer.Registry, error) {
	registerOnce.Do(func() {
		registerErr = importers.RegisterAll(importer.Default())
	})
	if registerErr != nil {
		return nil, fmt.Errorf("failed to register importers: %w", registerErr)
	}
	return importer.Default(), nil
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assetimport",
		Short: "Import source assets and maintain their metadata",
		Long: color.CyanString(`assetimport - asset import pipeline

Converts source files into assets with the importer registered for their
extension, and keeps a .meta record per source so unchanged files are
skipped and asset ids stay stable across re-imports.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./assetimport.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show importer logs")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewImportersCommand())
	rootCmd.AddCommand(NewInspectCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "assetimport version: ")
			fmt.Fprintln(out, Version)
			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// newLogger builds the development logger with --verbose and a production
// logger at the configured level otherwise.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	return zapConfig.Build()
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
