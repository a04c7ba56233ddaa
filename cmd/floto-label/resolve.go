package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"floto-label/internal/store"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve this device's label once and print it",
		Long:  "Looks up the label bound to this device, binding the first free label if there is none, and prints the record. The table is only written when a new binding is made.",
		Args:  cobra.NoArgs,
		RunE:  runResolve,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, closer, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	orch := newOrchestrator(cfg, newSupervisorClient(cfg))
	record, err := orch.Assignment(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Label:       %s\n", record.Name)
	fmt.Printf("Device ID:   %s\n", record.Owner())
	fmt.Printf("MACs:        %s\n", strings.Join(record.NetworkIDs(), " "))
	fmt.Printf("Table:       %s\n", orch.TablePath())
	return nil
}

var listLabels bool

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarise label pool usage",
		Long:  "Reads the label table without modifying it and prints how many labels are bound and how many remain free.",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().BoolVarP(&listLabels, "list", "l", false, "list every label with its binding")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, closer, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	path, err := resolveTablePath(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	table, err := store.New(path).Load()
	if err != nil {
		return err
	}

	printStatusReport(path, table, time.Since(startTime))
	return nil
}

func printStatusReport(path string, table *store.Table, duration time.Duration) {
	stats := table.Stats()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("LABEL POOL STATUS")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("\nTable:                   %s\n", path)
	fmt.Printf("  Header Row:            %t\n", table.HasHeader())
	fmt.Printf("  Total Labels:          %d\n", stats.Total)
	fmt.Printf("  Bound Labels:          %d\n", stats.Bound)
	fmt.Printf("  Free Labels:           %d\n", stats.Free)
	if stats.Total > 0 {
		fmt.Printf("  Pool Usage:            %.1f%%\n", float64(stats.Bound)*100/float64(stats.Total))
	}
	if idx := table.FirstFree(); idx >= 0 {
		fmt.Printf("  Next Free Label:       %s\n", table.Records[idx].Name)
	} else {
		fmt.Printf("  Next Free Label:       none (pool exhausted)\n")
	}
	fmt.Printf("  Read Time:             %v\n", duration.Round(time.Millisecond))

	if listLabels {
		fmt.Printf("\nLabels:\n")
		for _, rec := range table.Records {
			if rec.IsFree() {
				fmt.Printf("  %-20s free\n", rec.Name)
				continue
			}
			fmt.Printf("  %-20s %s [%s]\n", rec.Name, rec.Owner(), strings.Join(rec.NetworkIDs(), " "))
		}
	}

	fmt.Println(strings.Repeat("=", 80))
}
