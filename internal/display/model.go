// Package display renders the device label and live network status on
// the local console.
package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"floto-label/internal/medium"
	"floto-label/internal/models"
	"floto-label/internal/store"
)

// DeviceSource returns a fresh device snapshot on every call
type DeviceSource interface {
	Device(ctx context.Context) (models.DeviceInfo, error)
}

// Options configure the status model
type Options struct {
	Record models.Record
	// AssignErr is shown instead of the label; the program exits after ErrorHold.
	AssignErr error
	DeviceID  string
	Hostname  string
	Source    DeviceSource
	Interval  time.Duration
	ErrorHold time.Duration
}

type tickMsg time.Time

type deviceMsg struct {
	info models.DeviceInfo
	err  error
	at   time.Time
}

type holdExpiredMsg struct{}

// Model is the bubbletea model for the status screen. The label record is
// fixed at construction; only device snapshots change between frames.
type Model struct {
	opts    Options
	info    models.DeviceInfo
	pollErr error
	polled  time.Time
	width   int
}

// NewModel builds the status model; it polls Source every Interval
func NewModel(opts Options) Model {
	return Model{opts: opts}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.poll()}
	if m.opts.AssignErr != nil {
		cmds = append(cmds, tea.Tick(m.opts.ErrorHold, func(time.Time) tea.Msg {
			return holdExpiredMsg{}
		}))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case deviceMsg:
		m.info = msg.info
		m.pollErr = msg.err
		m.polled = msg.at
		return m, tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	case tickMsg:
		return m, m.poll()
	case holdExpiredMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) poll() tea.Cmd {
	source := m.opts.Source
	if source == nil {
		return nil
	}
	timeout := m.opts.Interval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		info, err := source.Device(ctx)
		return deviceMsg{info: info, err: err, at: time.Now()}
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 2)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(20)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("FLOTO device label"))
	b.WriteString("\n\n")

	if m.opts.AssignErr != nil {
		b.WriteString(errorStyle.Render("Label unavailable"))
		b.WriteString("\n")
		b.WriteString(m.opts.AssignErr.Error())
		b.WriteString("\n")
		if hint := errorHint(m.opts.AssignErr); hint != "" {
			b.WriteString(hintStyle.Render(hint))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(labelStyle.Render(m.opts.Record.Name))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	hostname := m.info.Hostname
	if hostname == "" {
		hostname = m.opts.Hostname
	}

	row(&b, "Device ID", m.opts.DeviceID)
	row(&b, "Hostname", hostname)
	row(&b, "Local IP address", m.info.IPAddress)
	row(&b, "MAC addresses", strings.Join(m.info.MACAddress, " "))
	if m.opts.AssignErr == nil {
		row(&b, "Bound MACs", strings.Join(m.opts.Record.NetworkIDs(), " "))
	}
	row(&b, "Status", m.info.Status)
	if m.info.OSVersion != "" {
		row(&b, "OS", m.info.OSVersion)
	}
	if m.info.Commit != "" {
		row(&b, "Release", m.info.Commit)
	}

	switch {
	case m.pollErr != nil:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Supervisor: " + m.pollErr.Error()))
		b.WriteString("\n")
	case !m.polled.IsZero():
		b.WriteString("\n")
		row(&b, "Updated", m.polled.Format("15:04:05"))
	}

	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

func row(b *strings.Builder, key, value string) {
	if value == "" {
		value = "unknown"
	}
	b.WriteString(keyStyle.Render(key))
	b.WriteString(value)
	b.WriteString("\n")
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, medium.ErrMediumNotFound):
		return "Insert the label medium; the agent restarts once it is available."
	case errors.Is(err, store.ErrPoolExhausted):
		return "No free labels remain. Provision more labels on the medium."
	case errors.Is(err, store.ErrStoreUnavailable):
		return "The label table could not be read. Check the file on the medium."
	case errors.Is(err, store.ErrValidation):
		return "The device identifier is missing."
	}
	return ""
}

// Run draws the model on output until ctx ends or the error hold expires.
// The assignment error, if any, is returned so the process exits non-zero.
func Run(ctx context.Context, model Model, output io.Writer) error {
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(output),
		tea.WithInput(nil),
	)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("console display failed: %w", err)
	}

	return model.opts.AssignErr
}
