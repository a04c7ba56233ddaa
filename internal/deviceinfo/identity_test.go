package deviceinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceID_Priority(t *testing.T) {
	t.Setenv("TEST_DEVICE_UUID", "env-id")

	id, err := NewIdentity(IdentityConfig{ID: "pinned", Env: "TEST_DEVICE_UUID"}).DeviceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pinned", id)

	id, err = NewIdentity(IdentityConfig{Env: "TEST_DEVICE_UUID"}).DeviceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-id", id)
}

func TestDeviceID_HostFallback(t *testing.T) {
	t.Setenv("TEST_DEVICE_UUID", "")

	identity := NewIdentity(IdentityConfig{Env: "TEST_DEVICE_UUID", HostIDFallback: true})
	identity.hostID = func(context.Context) (string, error) { return "host-id", nil }

	id, err := identity.DeviceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "host-id", id)

	identity.hostID = func(context.Context) (string, error) { return "", errors.New("no machine-id") }
	_, err = identity.DeviceID(context.Background())
	assert.True(t, errors.Is(err, ErrNoDeviceID))
}

func TestDeviceID_Missing(t *testing.T) {
	t.Setenv("TEST_DEVICE_UUID", "  ")

	_, err := NewIdentity(IdentityConfig{Env: "TEST_DEVICE_UUID"}).DeviceID(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDeviceID))
	assert.Contains(t, err.Error(), "TEST_DEVICE_UUID")
}
