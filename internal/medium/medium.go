// Package medium locates the removable medium holding the label table and
// makes sure it is mounted at the expected mount point.
package medium

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// ErrMediumNotFound is returned when the medium is absent or cannot be mounted
var ErrMediumNotFound = errors.New("label medium not found")

// Mounter performs mount syscalls
type Mounter interface {
	Mount(source, target, fstype string) error
	Unmount(target string) error
}

// Config identifies the medium by filesystem label
type Config struct {
	Label      string
	ByLabelDir string
	MountPoint string
	FSType     string
}

// Locator finds the medium and mounts it where the label table is expected
type Locator struct {
	cfg        Config
	mounter    Mounter
	partitions func(ctx context.Context) ([]disk.PartitionStat, error)
	log        zerolog.Logger
}

// NewLocator uses the host mount table and real mount syscalls
func NewLocator(cfg Config, log zerolog.Logger) *Locator {
	return &Locator{
		cfg:     cfg,
		mounter: SystemMounter{},
		partitions: func(ctx context.Context) ([]disk.PartitionStat, error) {
			return disk.PartitionsWithContext(ctx, true)
		},
		log: log,
	}
}

// Ensure returns the mount point of the medium, mounting or remounting it
// first when needed.
func (l *Locator) Ensure(ctx context.Context) (string, error) {
	target := filepath.Clean(l.cfg.MountPoint)
	link := filepath.Join(l.cfg.ByLabelDir, l.cfg.Label)

	device, err := filepath.EvalSymlinks(link)
	if err != nil {
		return "", fmt.Errorf("%w: no device labelled %s: %w", ErrMediumNotFound, l.cfg.Label, err)
	}

	partitions, err := l.partitions(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read mount table: %w", ErrMediumNotFound, err)
	}

	// Entries are in mount order, so later layers on target hide earlier ones
	fstype := l.cfg.FSType
	var layers []disk.PartitionStat
	var elsewhere []string
	for _, p := range partitions {
		mountpoint := filepath.Clean(p.Mountpoint)
		switch {
		case mountpoint == target:
			layers = append(layers, p)
		case samePath(p.Device, device):
			if p.Fstype != "" {
				fstype = p.Fstype
			}
			elsewhere = append(elsewhere, mountpoint)
		}
	}

	ours := -1
	for i := len(layers) - 1; i >= 0; i-- {
		if samePath(layers[i].Device, device) {
			ours = i
			break
		}
	}

	if ours >= 0 {
		// pop whatever is stacked on top of the medium
		for i := len(layers) - 1; i > ours; i-- {
			if err := l.unmount(device, target, layers[i].Device); err != nil {
				return "", err
			}
		}
		l.log.Debug().Str("device", device).Str("mount_point", target).Msg("Medium already mounted")
		return target, nil
	}

	for i := len(layers) - 1; i >= 0; i-- {
		if err := l.unmount(device, target, layers[i].Device); err != nil {
			return "", err
		}
	}
	for _, mountpoint := range elsewhere {
		if err := l.unmount(device, mountpoint, device); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create mount point %s: %w", ErrMediumNotFound, target, err)
	}

	if err := l.mounter.Mount(device, target, fstype); err != nil {
		return "", fmt.Errorf("%w: failed to mount %s on %s: %w", ErrMediumNotFound, device, target, err)
	}

	l.log.Info().Str("device", device).Str("mount_point", target).Str("fstype", fstype).Msg("Mounted label medium")
	return target, nil
}

func (l *Locator) unmount(device, mountpoint, mounted string) error {
	l.log.Info().
		Str("device", device).
		Str("mount_point", mountpoint).
		Str("mounted", mounted).
		Msg("Unmounting stale mount")
	if err := l.mounter.Unmount(mountpoint); err != nil {
		return fmt.Errorf("%w: failed to unmount %s: %w", ErrMediumNotFound, mountpoint, err)
	}
	return nil
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	resolved, err := filepath.EvalSymlinks(a)
	return err == nil && resolved == b
}
