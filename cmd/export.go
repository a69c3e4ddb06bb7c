package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/langlog/internal"
	"github.com/iksnae/langlog/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a log to file or stdout",
	Long: `Export a log as a read-only projection in various formats (json, jsonl,
yaml, md, txt). The stored log is never modified.

With --output the projection is written to <output>/<name>.<ext>;
otherwise it goes to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		store := internal.NewStore(root)

		log, err := store.Load(logName)
		if err != nil {
			return err
		}

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		if outputDir == "" {
			return exporter.Export(log, cmd.OutOrStdout())
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(outputDir, fmt.Sprintf("%s.%s", log.Name, exporter.Extension()))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(log, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d messages to %s\n", len(log.Messages), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (json, jsonl, yaml, md, txt)")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default stdout)")
}
