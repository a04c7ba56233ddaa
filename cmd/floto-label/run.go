package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"floto-label/internal/display"
	"floto-label/internal/logger"
	"floto-label/internal/systemd"
)

var (
	ttyPath   string
	skipUnits bool
	useStdout bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve this device's label and show it on the console",
		Long:  "Takes over the console, resolves (or binds) the device label once, and redraws it with live network status until stopped. Exits non-zero after the error hold when no label can be assigned.",
		Args:  cobra.NoArgs,
		RunE:  runAgent,
	}

	cmd.Flags().StringVar(&ttyPath, "tty", "", "console device to draw on (default from config)")
	cmd.Flags().BoolVar(&skipUnits, "skip-units", false, "do not start the console systemd units")
	cmd.Flags().BoolVar(&useStdout, "stdout", false, "draw on stdout instead of the console device")

	return cmd
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, closer, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	log := logger.WithComponent("agent")
	ctx := cmd.Context()

	if cmd.Flags().Changed("tty") {
		cfg.Console.TTY = ttyPath
	}

	if !skipUnits {
		starter := systemd.NewUnitStarter(logger.WithComponent("systemd"))
		if err := starter.Start(ctx, cfg.Console.StartUnits); err != nil {
			// the console still works without the getty handover
			log.Warn().Err(err).Strs("units", cfg.Console.StartUnits).Msg("Failed to start console units")
		}
	}

	supervisor := newSupervisorClient(cfg)
	orch := newOrchestrator(cfg, supervisor)

	record, assignErr := orch.Assignment(ctx)

	output, release, err := openConsole(cfg.Console.TTY, useStdout)
	if err != nil {
		return err
	}
	defer release.Close()

	hostname, _ := os.Hostname()
	model := display.NewModel(display.Options{
		Record:    record,
		AssignErr: assignErr,
		DeviceID:  orch.DeviceID(),
		Hostname:  hostname,
		Source:    supervisor,
		Interval:  cfg.Console.RefreshInterval,
		ErrorHold: cfg.Console.ErrorHold,
	})

	log.Info().
		Str("label", record.Name).
		Str("table", orch.TablePath()).
		Str("tty", cfg.Console.TTY).
		Msg("Starting console display")

	return display.Run(ctx, model, output)
}

func openConsole(path string, stdout bool) (io.Writer, io.Closer, error) {
	if stdout || path == "" {
		return os.Stdout, io.NopCloser(nil), nil
	}

	tty, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open console %s: %w", path, err)
	}
	return tty, tty, nil
}
