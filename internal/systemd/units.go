// Package systemd starts the units that hand the console over to the
// agent: it quits the boot splash and makes sure a getty owns the tty.
package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/rs/zerolog"
)

// ModeReplace starts the unit and its dependencies, replacing queued
// jobs that conflict with it.
const ModeReplace = "replace"

type unitConn interface {
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	Close()
}

// UnitStarter starts systemd units over the system bus
type UnitStarter struct {
	mode    string
	connect func(ctx context.Context) (unitConn, error)
	log     zerolog.Logger
}

// NewUnitStarter connects to the system bus on each Start
func NewUnitStarter(log zerolog.Logger) *UnitStarter {
	return &UnitStarter{
		mode: ModeReplace,
		connect: func(ctx context.Context) (unitConn, error) {
			conn, err := dbus.NewSystemConnectionContext(ctx)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		log: log,
	}
}

// Start starts each unit in order and waits for its job to finish
func (s *UnitStarter) Start(ctx context.Context, units []string) error {
	if len(units) == 0 {
		return nil
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	for _, unit := range units {
		done := make(chan string, 1)
		if _, err := conn.StartUnitContext(ctx, unit, s.mode, done); err != nil {
			return fmt.Errorf("failed to start %s: %w", unit, err)
		}

		select {
		case result := <-done:
			if result != "done" {
				return fmt.Errorf("start job for %s finished with %q", unit, result)
			}
			s.log.Debug().Str("unit", unit).Msg("Started unit")
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", unit, ctx.Err())
		}
	}

	return nil
}
