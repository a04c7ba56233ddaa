package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"floto-label/internal/export"
	"floto-label/internal/store"
)

func newExportCmd() *cobra.Command {
	var format string
	var boundOnly bool

	cmd := &cobra.Command{
		Use:   "export <output>",
		Short: "Export label assignments as CSV or XLSX",
		Long:  "Writes a report of every label with its device and MAC addresses. The label table itself is not modified.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, format, boundOnly)
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "Output format (csv, xlsx)")
	cmd.Flags().BoolVar(&boundOnly, "bound-only", false, "only include labels bound to a device")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, format string, boundOnly bool) error {
	outputPath := args[0]

	cfg, closer, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Ensure output directory exists
	outputDir := filepath.Dir(outputPath)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path, err := resolveTablePath(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	table, err := store.New(path).Load()
	if err != nil {
		return err
	}

	entries := export.Entries(table, boundOnly)
	if err := export.Write(entries, outputPath, format); err != nil {
		return err
	}

	fmt.Printf("Exported %d labels to %s (format: %s)\n", len(entries), outputPath, format)
	return nil
}
