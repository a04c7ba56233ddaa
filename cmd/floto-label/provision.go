package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"floto-label/internal/logger"
	"floto-label/internal/provision"
	"floto-label/internal/store"
)

var (
	namePrefix string
	nameStart  int
	nameCount  int
	nameWidth  int
	fromCSV    string
	fromXLSX   string
	sheetName  string
	force      bool
)

func newProvisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a fresh label table",
		Long:  "Writes a new label table with every label free. Names are generated from a prefix and counter (FLOTO_RPI_0001 ...) or imported from the first column of a CSV or Excel file.",
		Args:  cobra.NoArgs,
		RunE:  runProvision,
	}

	cmd.Flags().StringVar(&namePrefix, "prefix", provision.DefaultTemplate.Prefix, "label name prefix")
	cmd.Flags().IntVar(&nameStart, "start", provision.DefaultTemplate.Start, "first label number")
	cmd.Flags().IntVar(&nameCount, "count", provision.DefaultTemplate.Count, "number of labels to generate")
	cmd.Flags().IntVar(&nameWidth, "width", provision.DefaultTemplate.Width, "zero-padded width of the label number")
	cmd.Flags().StringVar(&fromCSV, "from-csv", "", "import label names from the first column of a CSV file")
	cmd.Flags().StringVar(&fromXLSX, "from-xlsx", "", "import label names from the first column of an Excel file")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet to read with --from-xlsx (default first sheet)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing table")
	cmd.MarkFlagsMutuallyExclusive("from-csv", "from-xlsx")

	return cmd
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, closer, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	names, source, err := provisionNames()
	if err != nil {
		return err
	}

	path, err := resolveTablePath(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	s := store.New(path, store.WithLogger(logger.WithComponent("store")))
	if err := s.Create(names, force); err != nil {
		return err
	}

	fmt.Printf("Provisioned %d labels (%s .. %s) from %s\n", len(names), names[0], names[len(names)-1], source)
	fmt.Printf("Table written to %s\n", path)
	return nil
}

func provisionNames() ([]string, string, error) {
	switch {
	case fromCSV != "":
		names, err := provision.ReadNamesCSV(fromCSV)
		if err != nil {
			return nil, "", fmt.Errorf("failed to import names: %w", err)
		}
		return names, fromCSV, nil
	case fromXLSX != "":
		names, err := provision.ReadNamesXLSX(fromXLSX, sheetName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to import names: %w", err)
		}
		return names, fromXLSX, nil
	}

	names, err := provision.GenerateNames(provision.Template{
		Prefix: namePrefix,
		Start:  nameStart,
		Count:  nameCount,
		Width:  nameWidth,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate names: %w", err)
	}
	return names, "template " + namePrefix, nil
}
