package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"floto-label/internal/config"
	"floto-label/internal/deviceinfo"
	"floto-label/internal/logger"
	"floto-label/internal/medium"
	"floto-label/internal/orchestrator"
)

var (
	configPath string
	tablePath  string
	logLevel   string
	deviceID   string
	debug      bool

	// Build information (injected at link time)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "floto-label",
		Short:         "Assign and display FLOTO device labels",
		Long:          "Binds each device to a pre-printed label from a CSV table on removable media and shows the label with live network status on the local console.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (default $FLOTO_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVarP(&tablePath, "table", "t", "", "label table path; skips medium discovery")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&deviceID, "device-id", "", "device identifier; overrides the environment")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newProvisionCmd())
	rootCmd.AddCommand(newExportCmd())

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("floto-label version %s\n", version)
			fmt.Printf("commit: %s\n", commit)
			fmt.Printf("built at: %s\n", date)
		},
	}
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges defaults, file, environment and command-line flags,
// then initialises the global logger.
func loadConfig(cmd *cobra.Command) (config.Config, io.Closer, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("table") {
		cfg.Medium.TablePath = tablePath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("device-id") {
		cfg.Device.ID = deviceID
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = debug
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}

	closer, err := logger.Init(cfg.Log)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to initialise logger: %w", err)
	}

	return cfg, closer, nil
}

func newSupervisorClient(cfg config.Config) *deviceinfo.SupervisorClient {
	return deviceinfo.NewSupervisorClient(cfg.Supervisor.Address, cfg.Supervisor.APIKey, cfg.Supervisor.Timeout)
}

func newLocator(cfg config.Config, log zerolog.Logger) *medium.Locator {
	return medium.NewLocator(medium.Config{
		Label:      cfg.Medium.Label,
		ByLabelDir: cfg.Medium.ByLabelDir,
		MountPoint: cfg.Medium.MountPoint,
		FSType:     cfg.Medium.FSType,
	}, log)
}

// newOrchestrator wires medium discovery, identity and network sources
func newOrchestrator(cfg config.Config, supervisor deviceinfo.DeviceSource) *orchestrator.Orchestrator {
	oc := orchestrator.Config{
		TableFile: cfg.Medium.TableFile,
		TablePath: cfg.Medium.TablePath,
		Identity: deviceinfo.NewIdentity(deviceinfo.IdentityConfig{
			ID:             cfg.Device.ID,
			Env:            cfg.Device.IDEnv,
			HostIDFallback: cfg.Device.HostIDFallback,
		}),
		Network: deviceinfo.NewNetworkSource(supervisor, logger.WithComponent("network")),
	}
	if cfg.UsesMedium() {
		oc.Medium = newLocator(cfg, logger.WithComponent("medium"))
	}

	return orchestrator.New(oc, logger.WithComponent("orchestrator"))
}

// resolveTablePath returns the table file, mounting the medium first
// unless an explicit path is configured.
func resolveTablePath(ctx context.Context, cfg config.Config) (string, error) {
	if !cfg.UsesMedium() {
		return cfg.Medium.TablePath, nil
	}

	mountPoint, err := newLocator(cfg, logger.WithComponent("medium")).Ensure(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(mountPoint, cfg.Medium.TableFile), nil
}
