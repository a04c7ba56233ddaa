package deviceinfo

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/net"

	"floto-label/internal/models"
)

// DeviceSource returns a device snapshot
type DeviceSource interface {
	Device(ctx context.Context) (models.DeviceInfo, error)
}

// NetworkSource reports the hardware addresses of the device
type NetworkSource struct {
	supervisor DeviceSource
	local      func(ctx context.Context) ([]string, error)
	log        zerolog.Logger
}

// NewNetworkSource prefers supervisor-reported MACs and falls back to the
// local interfaces. supervisor may be nil.
func NewNetworkSource(supervisor DeviceSource, log zerolog.Logger) *NetworkSource {
	return &NetworkSource{
		supervisor: supervisor,
		local:      LocalMACs,
		log:        log,
	}
}

// NetworkIDs never fails; absent identifiers yield an empty list.
func (n *NetworkSource) NetworkIDs(ctx context.Context) []string {
	if n.supervisor != nil {
		info, err := n.supervisor.Device(ctx)
		if err != nil {
			n.log.Warn().Err(err).Msg("Supervisor unavailable; using local interfaces")
		} else if len(info.MACAddress) > 0 {
			return []string(info.MACAddress)
		}
	}

	macs, err := n.local(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("Failed to list network interfaces")
		return nil
	}
	if len(macs) == 0 {
		n.log.Warn().Msg("No network identifiers observed")
	}
	return macs
}

// LocalMACs lists the hardware addresses of non-loopback interfaces
func LocalMACs(ctx context.Context) ([]string, error) {
	interfaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var macs []string
	for _, iface := range interfaces {
		if iface.HardwareAddr == "" || slices.Contains(iface.Flags, "loopback") {
			continue
		}
		if !slices.Contains(macs, iface.HardwareAddr) {
			macs = append(macs, iface.HardwareAddr)
		}
	}
	return macs, nil
}
