// Package deviceinfo supplies device identity and live network facts:
// the Balena supervisor device API, the device identifier, and the local
// network interfaces as a fallback source of hardware addresses.
package deviceinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"floto-label/internal/models"
)

// ErrSupervisorUnconfigured means no supervisor address was provided
var ErrSupervisorUnconfigured = errors.New("supervisor address not configured")

// SupervisorClient queries the Balena supervisor for the device snapshot
type SupervisorClient struct {
	address  string
	apiKey   string
	client   *http.Client
	hostname func() string
}

// NewSupervisorClient creates a client for the supervisor at address
func NewSupervisorClient(address, apiKey string, timeout time.Duration) *SupervisorClient {
	return &SupervisorClient{
		address:  strings.TrimRight(address, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		hostname: hostname,
	}
}

// Device fetches GET /v1/device. Keys missing from the response decode
// to empty values.
func (c *SupervisorClient) Device(ctx context.Context) (models.DeviceInfo, error) {
	if c.address == "" {
		return models.DeviceInfo{}, ErrSupervisorUnconfigured
	}

	endpoint, err := url.Parse(c.address + "/v1/device")
	if err != nil {
		return models.DeviceInfo{}, fmt.Errorf("invalid supervisor address %q: %w", c.address, err)
	}
	query := endpoint.Query()
	query.Set("apikey", c.apiKey)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return models.DeviceInfo{}, fmt.Errorf("failed to build supervisor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.DeviceInfo{}, fmt.Errorf("failed to query supervisor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.DeviceInfo{}, fmt.Errorf("supervisor returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var info models.DeviceInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.DeviceInfo{}, fmt.Errorf("failed to decode supervisor response: %w", err)
	}
	info.Hostname = c.hostname()

	return info, nil
}

func hostname() string {
	if name := os.Getenv("HOSTNAME"); name != "" {
		return name
	}
	name, _ := os.Hostname()
	return name
}
