package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "floto_labels.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// countingStore wraps the real persistence so tests can count rewrites
func countingStore(path string) (*Store, *int) {
	s := New(path)
	writes := 0
	s.persist = func(p string, data []byte) error {
		writes++
		return s.writeFile(p, data)
	}
	return s, &writes
}

func TestResolve_ConcreteScenario(t *testing.T) {
	path := writeTable(t, "RPI_0001,,\nRPI_0002,,\n")
	s, writes := countingStore(path)

	rec, err := s.Resolve("dev-A", []string{"aa:bb"})
	require.NoError(t, err)
	assert.Equal(t, "RPI_0001", rec.Name)
	assert.Equal(t, "dev-A", rec.Owner())
	assert.Equal(t, []string{"aa:bb"}, rec.NetworkIDs())

	rec, err = s.Resolve("dev-B", []string{"cc:dd"})
	require.NoError(t, err)
	assert.Equal(t, "RPI_0002", rec.Name)
	assert.Equal(t, "dev-B", rec.Owner())
	assert.Equal(t, []string{"cc:dd"}, rec.NetworkIDs())
	assert.Equal(t, 2, *writes)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	rec, err = s.Resolve("dev-A", []string{"ee:ff"})
	require.NoError(t, err)
	assert.Equal(t, "RPI_0001", rec.Name)
	assert.Equal(t, "dev-A", rec.Owner())
	assert.Equal(t, []string{"aa:bb"}, rec.NetworkIDs())
	assert.Equal(t, 2, *writes, "lookup of a bound device must not rewrite the table")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "RPI_0001,dev-A,aa:bb\nRPI_0002,dev-B,cc:dd\n", string(after))
}

func TestResolve_Idempotent(t *testing.T) {
	path := writeTable(t, "L1,,\nL2,,\nL3,,\n")
	s, writes := countingStore(path)

	first, err := s.Resolve("dev", []string{"aa:bb", "cc:dd"})
	require.NoError(t, err)
	require.Equal(t, 1, *writes)

	second, err := s.Resolve("dev", []string{"11:22"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, *writes)
}

func TestResolve_FirstMatchPrecedence(t *testing.T) {
	path := writeTable(t, "L1,,\nL2,,\nL3,dev-X,aa:bb\n")
	s, writes := countingStore(path)

	rec, err := s.Resolve("dev-X", []string{"cc:dd"})
	require.NoError(t, err)
	assert.Equal(t, "L3", rec.Name)
	assert.Equal(t, 0, *writes)
}

func TestResolve_FirstFreeSelection(t *testing.T) {
	path := writeTable(t, "L1,d1,m1\nL2,,\nL3,d3,m3\nL4,d4,m4\nL5,,\n")
	s, _ := countingStore(path)

	rec, err := s.Resolve("new-dev", []string{"aa:bb"})
	require.NoError(t, err)
	assert.Equal(t, "L2", rec.Name)

	table, err := s.Load()
	require.NoError(t, err)
	assert.True(t, table.Records[4].IsFree())
}

func TestResolve_PoolExhausted(t *testing.T) {
	content := "L1,d1,m1\nL2,d2,m2\n"
	path := writeTable(t, content)
	s, writes := countingStore(path)

	_, err := s.Resolve("d3", []string{"aa:bb"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPoolExhausted))
	assert.Contains(t, err.Error(), "d3")
	assert.Equal(t, 0, *writes)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(after))
}

func TestResolve_EmptyDeviceID(t *testing.T) {
	path := writeTable(t, "L1,,\n")
	s, writes := countingStore(path)

	for _, id := range []string{"", "   "} {
		_, err := s.Resolve(id, []string{"aa:bb"})
		assert.True(t, errors.Is(err, ErrValidation), "id %q: %v", id, err)
	}
	assert.Equal(t, 0, *writes)
}

func TestResolve_StoreUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing file"},
		{name: "zero rows", content: strPtr("")},
		{name: "header only", content: strPtr("labelname,uuid,mac_addr_list\n")},
		{name: "too many columns", content: strPtr("L1,,,extra\n")},
		{name: "empty label name", content: strPtr(",dev,aa:bb\n")},
		{name: "macs without owner", content: strPtr("L1,,aa:bb\n")},
		{name: "duplicate owner", content: strPtr("L1,dev,aa\nL2,dev,bb\n")},
		{name: "duplicate label", content: strPtr("L1,,\nL1,,\n")},
		{name: "bad quoting", content: strPtr("L1,\"dev,\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "floto_labels.csv")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			s, writes := countingStore(path)
			rec, err := s.Resolve("dev-A", []string{"aa:bb"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStoreUnavailable), "got %v", err)
			assert.Contains(t, err.Error(), path)
			assert.Empty(t, rec.Name)
			assert.Equal(t, 0, *writes)
		})
	}
}

func TestResolve_PersistFailureKeepsPreviousTable(t *testing.T) {
	content := "L1,,\nL2,,\n"
	path := writeTable(t, content)

	s := New(path)
	s.persist = func(string, []byte) error {
		return errors.New("disk full")
	}

	_, err := s.Resolve("dev-A", []string{"aa:bb"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(after))
}

func TestResolve_HeaderPreserved(t *testing.T) {
	path := writeTable(t, "labelname,uuid,mac_addr_list\nFLOTO_RPI_0001,,\nFLOTO_RPI_0002,,\n")
	s := New(path)

	rec, err := s.Resolve("uuid", []string{"aa:bb"})
	require.NoError(t, err)
	assert.Equal(t, "FLOTO_RPI_0001", rec.Name, "header row must never be treated as a binding")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "labelname,uuid,mac_addr_list\nFLOTO_RPI_0001,uuid,aa:bb\nFLOTO_RPI_0002,,\n", string(data))
}

func TestResolve_RoundTrip(t *testing.T) {
	path := writeTable(t, "A,,\nB,dev-1,11:11 22:22\nC,,\n\"D,x\",,\nE,dev-2,33:33\n")
	s := New(path)

	before, err := s.Load()
	require.NoError(t, err)

	_, err = s.Resolve("dev-3", []string{"44:44", "55:55"})
	require.NoError(t, err)

	after, err := s.Load()
	require.NoError(t, err)
	require.Len(t, after.Records, len(before.Records))

	for i := range before.Records {
		if i == 0 {
			assert.Equal(t, "A", after.Records[i].Name)
			assert.Equal(t, "dev-3", after.Records[i].Owner())
			assert.Equal(t, []string{"44:44", "55:55"}, after.Records[i].NetworkIDs())
			continue
		}
		assert.Equal(t, before.Records[i], after.Records[i], "row %d", i)
	}
	assert.Equal(t, "D,x", after.Records[3].Name)
}

func TestResolve_WhitespaceInNetworkID(t *testing.T) {
	path := writeTable(t, "L1,,\n")
	s := New(path)

	rec, err := s.Resolve("dev", []string{"eth0 aa:bb", "  ", "\tcc:dd\n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eth0", "aa:bb", "cc:dd"}, rec.NetworkIDs())

	table, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, rec, table.Records[0], "returned record must equal the persisted one")
}

func TestResolve_DirectorySyncFailureIsLogged(t *testing.T) {
	path := writeTable(t, "L1,,\n")

	orig := syncDir
	syncDir = func(string) error { return errors.New("sync not supported") }
	t.Cleanup(func() { syncDir = orig })

	var logs bytes.Buffer
	s := New(path, WithLogger(zerolog.New(&logs)))

	rec, err := s.Resolve("dev", []string{"aa:bb"})
	require.NoError(t, err, "the table is already renamed into place")
	assert.Equal(t, "L1", rec.Name)
	assert.Contains(t, logs.String(), "sync not supported")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "L1,dev,aa:bb\n", string(data))
}

func TestResolve_NoTemporaryFilesLeft(t *testing.T) {
	path := writeTable(t, "L1,,\n")
	s := New(path)

	_, err := s.Resolve("dev", []string{"aa:bb"})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "floto_labels.csv", entries[0].Name())
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floto_labels.csv")
	s := New(path)

	require.NoError(t, s.Create([]string{"FLOTO_RPI_0001", "FLOTO_RPI_0002"}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "labelname,uuid,mac_addr_list\nFLOTO_RPI_0001,,\nFLOTO_RPI_0002,,\n", string(data))

	err = s.Create([]string{"X"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, s.Create([]string{"X"}, true))
	table, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 1, Free: 1}, table.Stats())
}

func TestCreate_RejectsBadNames(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "floto_labels.csv"))

	assert.Error(t, s.Create(nil, false))
	assert.Error(t, s.Create([]string{"A", " "}, false))
	assert.Error(t, s.Create([]string{"A", "A"}, false))
}

func strPtr(s string) *string {
	return &s
}
