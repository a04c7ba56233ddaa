package deviceinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// ErrNoDeviceID means no source produced a device identifier
var ErrNoDeviceID = errors.New("device identifier unavailable")

// IdentityConfig lists the identifier sources in priority order
type IdentityConfig struct {
	ID             string
	Env            string
	HostIDFallback bool
}

// Identity supplies the stable device identifier
type Identity struct {
	cfg    IdentityConfig
	hostID func(ctx context.Context) (string, error)
}

// NewIdentity uses gopsutil for the host id fallback
func NewIdentity(cfg IdentityConfig) *Identity {
	return &Identity{
		cfg:    cfg,
		hostID: host.HostIDWithContext,
	}
}

// DeviceID returns the pinned id, then the environment variable, then the
// host id when the fallback is enabled.
func (i *Identity) DeviceID(ctx context.Context) (string, error) {
	if id := strings.TrimSpace(i.cfg.ID); id != "" {
		return id, nil
	}

	if i.cfg.Env != "" {
		if id := strings.TrimSpace(os.Getenv(i.cfg.Env)); id != "" {
			return id, nil
		}
	}

	if i.cfg.HostIDFallback {
		id, err := i.hostID(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: host id lookup failed: %w", ErrNoDeviceID, err)
		}
		if id = strings.TrimSpace(id); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %s is not set", ErrNoDeviceID, i.cfg.Env)
}
