package ticketstore

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/freshservice"
	"beacon/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logger.NewLogger(io.Discard, logger.Config{Service: "test"})
	t.Cleanup(func() { _ = log.Close() })

	s, err := New(t.TempDir(), log)
	require.NoError(t, err)
	return s
}

func mustTicket(t *testing.T, raw string) *freshservice.Ticket {
	t.Helper()
	tk, err := freshservice.ParseTicket([]byte(raw))
	require.NoError(t, err)
	return tk
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := mustTicket(t, `{"id":555,"subject":"printer jam","status":2,"priority":2}`)
	require.NoError(t, s.Write(in))

	data, err := os.ReadFile(filepath.Join(s.Dir(), "555.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"id\": 555")

	tickets, corrupt, err := s.ReadAll()
	require.NoError(t, err)
	assert.Zero(t, corrupt)
	require.Len(t, tickets, 1)
	assert.EqualValues(t, 555, tickets[0].ID)
	assert.Equal(t, "printer jam", tickets[0].Subject)
}

func TestLocalIDsIgnoresStrayFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(mustTicket(t, `{"id":3,"status":2}`)))
	require.NoError(t, s.Write(mustTicket(t, `{"id":12,"status":2}`)))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "abc.txt"), []byte("x"), 0o644))

	ids, err := s.LocalIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 12}, ids)
}

func TestArchiveMovesIntoDatedFolder(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(mustTicket(t, `{"id":77,"status":2}`)))

	day := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Archive(77, day))

	_, err := os.Stat(filepath.Join(s.Dir(), "77.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.Dir(), "archive", "2025-06-15", "77.txt"))
	assert.NoError(t, err)

	// archiving a ticket that was never cached is a no-op
	assert.NoError(t, s.Archive(9999, day))
}

func TestSyncArchivesGoneAndFlagsNew(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(mustTicket(t, `{"id":1,"status":2}`)))
	require.NoError(t, s.Write(mustTicket(t, `{"id":2,"status":3}`)))

	now := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	res, err := s.Sync([]int64{2, 5}, now)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Active)
	assert.Equal(t, []int64{1}, res.Archived)
	assert.Equal(t, []int64{5}, res.New)

	ids, err := s.LocalIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestReadAllSkipsCorruptSnapshots(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(mustTicket(t, `{"id":10,"status":2}`)))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "11.txt"), []byte("{not json"), 0o644))

	tickets, corrupt, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 1, corrupt)
	require.Len(t, tickets, 1)
	assert.EqualValues(t, 10, tickets[0].ID)
}

func TestNewestSnapshot(t *testing.T) {
	s := newTestStore(t)

	newest, err := s.NewestSnapshot()
	require.NoError(t, err)
	assert.True(t, newest.IsZero())

	require.NoError(t, s.Write(mustTicket(t, `{"id":20,"status":2}`)))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir(), "20.txt"), old, old))
	require.NoError(t, s.Write(mustTicket(t, `{"id":21,"status":2}`)))

	newest, err = s.NewestSnapshot()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), newest, time.Minute)
}
