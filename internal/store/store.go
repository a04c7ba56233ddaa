package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"floto-label/internal/models"
)

// Store is the label table backed by one CSV file.
// It assumes a single writer; no locking is performed.
type Store struct {
	path    string
	log     zerolog.Logger
	persist func(path string, data []byte) error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for bind and lookup events
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates a store for the table at path
func New(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		log:  zerolog.Nop(),
	}
	s.persist = s.writeFile
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) writeFile(path string, data []byte) error {
	return writeFileAtomic(path, data, s.log)
}

// Load reads the whole table. A table without records is reported as
// unavailable rather than returned empty.
func (s *Store) Load() (*Table, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrStoreUnavailable, s.path, err)
	}

	table, err := ParseTable(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed table %s: %w", ErrStoreUnavailable, s.path, err)
	}

	if len(table.Records) == 0 {
		return nil, fmt.Errorf("%w: table %s has no records", ErrStoreUnavailable, s.path)
	}

	return table, nil
}

// Resolve returns the record bound to deviceID, binding the first free
// record and persisting the table when the device has none yet. An
// existing binding is returned as-is; networkIDs are then ignored and
// nothing is written.
func (s *Store) Resolve(deviceID string, networkIDs []string) (models.Record, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return models.Record{}, fmt.Errorf("%w: device identifier is empty", ErrValidation)
	}

	table, err := s.Load()
	if err != nil {
		return models.Record{}, err
	}

	if idx := table.Find(deviceID); idx >= 0 {
		rec := table.Records[idx]
		s.log.Debug().
			Str("device_id", deviceID).
			Str("label", rec.Name).
			Int("row", idx).
			Msg("Found existing label binding")
		return rec, nil
	}

	idx := table.FirstFree()
	if idx < 0 {
		return models.Record{}, fmt.Errorf("%w: no free label in %s for device %s", ErrPoolExhausted, s.path, deviceID)
	}

	table.Records[idx] = table.Records[idx].Bind(deviceID, networkIDs)
	rec := table.Records[idx]

	data, err := table.Encode()
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to encode table %s: %w", s.path, err)
	}
	if err := s.persist(s.path, data); err != nil {
		return models.Record{}, fmt.Errorf("failed to persist binding of %s to device %s: %w", rec.Name, deviceID, err)
	}

	s.log.Info().
		Str("device_id", deviceID).
		Str("label", rec.Name).
		Strs("network_ids", rec.NetworkIDs()).
		Int("row", idx).
		Msg("Bound new label")

	return rec, nil
}

// Create writes a fresh all-free table with a header row. An existing
// file is only replaced when overwrite is set.
func (s *Store) Create(names []string, overwrite bool) error {
	if len(names) == 0 {
		return errors.New("no label names to provision")
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return errors.New("empty label name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate label name %q", name)
		}
		seen[name] = true
	}

	if !overwrite {
		if _, err := os.Stat(s.path); err == nil {
			return fmt.Errorf("label table %s already exists", s.path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", s.path, err)
		}
	}

	data, err := NewTable(names, true).Encode()
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	if err := s.persist(s.path, data); err != nil {
		return fmt.Errorf("failed to write table %s: %w", s.path, err)
	}

	s.log.Info().Str("path", s.path).Int("labels", len(names)).Msg("Provisioned label table")
	return nil
}
