// Package orchestrator ties medium discovery, device identity and the
// label store together. It resolves the device's label once per process
// and hands the cached result to every caller afterwards.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"floto-label/internal/models"
	"floto-label/internal/store"
)

// MediumLocator returns the mount point of the label medium
type MediumLocator interface {
	Ensure(ctx context.Context) (string, error)
}

// IdentitySource supplies the device identifier
type IdentitySource interface {
	DeviceID(ctx context.Context) (string, error)
}

// NetworkSource supplies the observed hardware addresses
type NetworkSource interface {
	NetworkIDs(ctx context.Context) []string
}

// Resolver finds or binds the label for a device
type Resolver interface {
	Resolve(deviceID string, networkIDs []string) (models.Record, error)
}

// Config fixes where the table lives. With a Medium locator the table is
// TableFile under its mount point; without one TablePath is used as-is.
type Config struct {
	Medium    MediumLocator
	TableFile string
	TablePath string
	Identity  IdentitySource
	Network   NetworkSource
}

// Orchestrator memoizes one label resolution per process
type Orchestrator struct {
	cfg      Config
	newStore func(path string) Resolver
	log      zerolog.Logger

	resolved  bool
	record    models.Record
	err       error
	deviceID  string
	tablePath string
}

// New creates an orchestrator that resolves against the real CSV store
func New(cfg Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg: cfg,
		newStore: func(path string) Resolver {
			return store.New(path, store.WithLogger(log))
		},
		log: log,
	}
}

// Assignment returns the device's label record. The first call does the
// work; later calls, including after a failure, return the same result.
func (o *Orchestrator) Assignment(ctx context.Context) (models.Record, error) {
	if !o.resolved {
		o.record, o.err = o.resolve(ctx)
		o.resolved = true

		if o.err != nil {
			o.log.Error().Err(o.err).
				Str("device_id", o.deviceID).
				Str("table", o.tablePath).
				Msg("Label resolution failed")
		}
	}
	return o.record, o.err
}

// DeviceID returns the identifier used for resolution, once known
func (o *Orchestrator) DeviceID() string {
	return o.deviceID
}

// TablePath returns the table file used for resolution, once known
func (o *Orchestrator) TablePath() string {
	return o.tablePath
}

func (o *Orchestrator) resolve(ctx context.Context) (models.Record, error) {
	deviceID, err := o.cfg.Identity.DeviceID(ctx)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", store.ErrValidation, err)
	}
	o.deviceID = deviceID

	path := o.cfg.TablePath
	if o.cfg.Medium != nil {
		mountPoint, err := o.cfg.Medium.Ensure(ctx)
		if err != nil {
			return models.Record{}, err
		}
		path = filepath.Join(mountPoint, o.cfg.TableFile)
	}
	o.tablePath = path

	networkIDs := o.cfg.Network.NetworkIDs(ctx)

	rec, err := o.newStore(path).Resolve(deviceID, networkIDs)
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to resolve label for device %s in %s: %w", deviceID, path, err)
	}

	o.log.Info().
		Str("device_id", deviceID).
		Str("label", rec.Name).
		Str("table", path).
		Msg("Label assigned")

	return rec, nil
}
