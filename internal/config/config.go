package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"floto-label/internal/logger"
)

// Config captures the runtime settings for the label agent.
type Config struct {
	Log        logger.Config    `yaml:"log"`
	Device     DeviceConfig     `yaml:"device"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Medium     MediumConfig     `yaml:"medium"`
	Console    ConsoleConfig    `yaml:"console"`
}

// DeviceConfig controls where the device identifier comes from.
type DeviceConfig struct {
	// ID pins the identifier; normally left empty and read from IDEnv.
	ID             string `yaml:"id"`
	IDEnv          string `yaml:"idEnv"`
	HostIDFallback bool   `yaml:"hostIdFallback"`
}

// SupervisorConfig points at the Balena supervisor device API.
type SupervisorConfig struct {
	Address string        `yaml:"address"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// MediumConfig describes the removable medium holding the label table.
type MediumConfig struct {
	Label      string `yaml:"label"`
	ByLabelDir string `yaml:"byLabelDir"`
	MountPoint string `yaml:"mountPoint"`
	FSType     string `yaml:"fsType"`
	TableFile  string `yaml:"tableFile"`
	// TablePath bypasses medium discovery when set.
	TablePath string `yaml:"tablePath"`
}

// ConsoleConfig controls the status display.
type ConsoleConfig struct {
	TTY             string        `yaml:"tty"`
	StartUnits      []string      `yaml:"startUnits"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	ErrorHold       time.Duration `yaml:"errorHold"`
}

// DefaultConfig returns defaults matching a Balena device with the label
// stick formatted as RPI_LABELS.
func DefaultConfig() Config {
	return Config{
		Log: logger.Config{
			Level:  "info",
			Output: "stderr",
		},
		Device: DeviceConfig{
			IDEnv:          "BALENA_DEVICE_UUID",
			HostIDFallback: false,
		},
		Supervisor: SupervisorConfig{
			Timeout: 5 * time.Second,
		},
		Medium: MediumConfig{
			Label:      "RPI_LABELS",
			ByLabelDir: "/dev/disk/by-label",
			MountPoint: "/mnt/external",
			FSType:     "vfat",
			TableFile:  "floto_labels.csv",
		},
		Console: ConsoleConfig{
			TTY:             "/dev/tty0",
			StartUnits:      []string{"plymouth-quit.service", "getty@tty0.service"},
			RefreshInterval: 2 * time.Second,
			ErrorHold:       30 * time.Second,
		},
	}
}

// UsesMedium reports whether the table lives on discovered removable media.
func (c Config) UsesMedium() bool {
	return c.Medium.TablePath == ""
}

// Load merges defaults, the optional YAML file and environment overrides.
// An empty path falls back to FLOTO_CONFIG_FILE.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("FLOTO_CONFIG_FILE")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// env > file
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks settings shared by every command.
func (c Config) Validate() error {
	if c.UsesMedium() {
		if c.Medium.Label == "" {
			return errors.New("medium label must be set")
		}
		if c.Medium.MountPoint == "" || !filepath.IsAbs(c.Medium.MountPoint) {
			return fmt.Errorf("medium mount point must be an absolute path, got %q", c.Medium.MountPoint)
		}
		if c.Medium.TableFile == "" {
			return errors.New("medium table file must be set")
		}
	}
	if c.Supervisor.Timeout <= 0 {
		return errors.New("supervisor timeout must be positive")
	}
	if c.Console.RefreshInterval <= 0 {
		return errors.New("console refresh interval must be positive")
	}
	if c.Console.ErrorHold < 0 {
		return errors.New("console error hold must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.Log.Level, "FLOTO_LOG_LEVEL")
	setString(&cfg.Log.Output, "FLOTO_LOG_OUTPUT")
	setString(&cfg.Device.ID, "FLOTO_DEVICE_ID")
	setString(&cfg.Device.IDEnv, "FLOTO_DEVICE_ID_ENV")
	setString(&cfg.Supervisor.Address, "BALENA_SUPERVISOR_ADDRESS")
	setString(&cfg.Supervisor.APIKey, "BALENA_SUPERVISOR_API_KEY")
	setString(&cfg.Medium.Label, "FLOTO_MEDIUM_LABEL")
	setString(&cfg.Medium.MountPoint, "FLOTO_MOUNT_POINT")
	setString(&cfg.Medium.FSType, "FLOTO_MEDIUM_FSTYPE")
	setString(&cfg.Medium.TableFile, "FLOTO_TABLE_FILE")
	setString(&cfg.Medium.TablePath, "FLOTO_TABLE_PATH")
	setString(&cfg.Console.TTY, "FLOTO_TTY")

	if v := os.Getenv("FLOTO_CONSOLE_UNITS"); v != "" {
		cfg.Console.StartUnits = splitList(v)
	}
	if err := setBool(&cfg.Device.HostIDFallback, "FLOTO_HOST_ID_FALLBACK"); err != nil {
		return err
	}
	if err := setBool(&cfg.Log.Debug, "FLOTO_DEBUG"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Supervisor.Timeout, "FLOTO_SUPERVISOR_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Console.RefreshInterval, "FLOTO_REFRESH_INTERVAL"); err != nil {
		return err
	}
	return setDuration(&cfg.Console.ErrorHold, "FLOTO_ERROR_HOLD")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
