package display

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floto-label/internal/medium"
	"floto-label/internal/models"
	"floto-label/internal/store"
)

type stubSource struct {
	info  models.DeviceInfo
	err   error
	calls int
}

func (s *stubSource) Device(context.Context) (models.DeviceInfo, error) {
	s.calls++
	return s.info, s.err
}

func TestView_BoundRecord(t *testing.T) {
	source := &stubSource{info: models.DeviceInfo{
		IPAddress:  "10.0.0.5",
		MACAddress: models.MACList{"aa:bb"},
		Status:     "Idle",
		Commit:     "4f2a9c1",
		Hostname:   "floto-1",
	}}
	m := NewModel(Options{
		Record:   models.NewBoundRecord("FLOTO_RPI_0001", "dev-A", []string{"aa:bb"}),
		DeviceID: "dev-A",
		Source:   source,
		Interval: time.Second,
	})

	msg := m.poll()()
	require.IsType(t, deviceMsg{}, msg)

	updated, cmd := m.Update(msg)
	require.NotNil(t, cmd, "a snapshot schedules the next refresh")

	view := updated.View()
	assert.Contains(t, view, "FLOTO_RPI_0001")
	assert.Contains(t, view, "dev-A")
	assert.Contains(t, view, "10.0.0.5")
	assert.Contains(t, view, "floto-1")
	assert.Contains(t, view, "Idle")
	assert.Contains(t, view, "4f2a9c1")
	assert.Equal(t, 1, source.calls)
}

func TestView_RefreshReusesRecord(t *testing.T) {
	source := &stubSource{}
	rec := models.NewBoundRecord("FLOTO_RPI_0002", "dev-B", []string{"cc:dd"})
	var model tea.Model = NewModel(Options{Record: rec, Source: source, Interval: time.Second})

	for i := 0; i < 3; i++ {
		var cmd tea.Cmd
		model, cmd = model.Update(tickMsg(time.Now()))
		require.NotNil(t, cmd)
		model, _ = model.Update(cmd())
	}

	assert.Equal(t, 3, source.calls)
	assert.Contains(t, model.View(), "FLOTO_RPI_0002")
	assert.Contains(t, model.View(), "cc:dd")
}

func TestView_SupervisorError(t *testing.T) {
	m := NewModel(Options{
		Record:   models.NewBoundRecord("L1", "dev", nil),
		Hostname: "fallback-host",
		Source:   &stubSource{err: errors.New("connection refused")},
		Interval: time.Second,
	})

	updated, _ := m.Update(m.poll()())
	view := updated.View()
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "fallback-host")
	assert.Contains(t, view, "L1")
}

func TestView_AssignmentErrors(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{err: fmt.Errorf("%w: no device labelled RPI_LABELS", medium.ErrMediumNotFound), hint: "Insert the label medium"},
		{err: fmt.Errorf("%w: no free label", store.ErrPoolExhausted), hint: "Provision more labels"},
		{err: fmt.Errorf("%w: table empty", store.ErrStoreUnavailable), hint: "could not be read"},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			m := NewModel(Options{AssignErr: tt.err, Interval: time.Second})
			view := m.View()
			assert.Contains(t, view, "Label unavailable")
			assert.Contains(t, view, tt.err.Error())
			assert.Contains(t, view, tt.hint)
		})
	}
}

func TestUpdate_HoldExpiredQuits(t *testing.T) {
	m := NewModel(Options{AssignErr: errors.New("boom"), Interval: time.Second})

	_, cmd := m.Update(holdExpiredMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestPoll_NoSource(t *testing.T) {
	m := NewModel(Options{Interval: time.Second})
	assert.Nil(t, m.poll())
}
