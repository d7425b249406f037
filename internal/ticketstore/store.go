// Package ticketstore persists ticket snapshots as flat JSON files so the
// dashboard can render from disk even while Freshservice is unreachable.
// Each active ticket lives at <dir>/<id>.txt; tickets that leave the active
// set move to <dir>/archive/<YYYY-MM-DD>/<id>.txt, dated by archival day.
package ticketstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"beacon/internal/freshservice"
	"beacon/pkg/logger"
)

const (
	fileExt    = ".txt"
	archiveDir = "archive"
)

// Store owns one cache directory. It is safe for a single writer (the
// poller) with any number of readers (the dashboard process).
type Store struct {
	dir string
	log *logger.Logger
}

// New creates the cache directory if needed and returns a Store over it.
func New(dir string, log *logger.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("ticketstore: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ticketstore: creating %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the cache directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10)+fileExt)
}

// LocalIDs lists the ticket ids currently cached, sorted ascending. Files
// whose names are not "<digits>.txt" are ignored.
func (s *Store) LocalIDs() ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("ticketstore: reading %s: %w", s.dir, err)
	}

	var ids []int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(e.Name(), fileExt), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Write persists the ticket's raw API payload, pretty printed, replacing any
// previous snapshot atomically via a rename.
func (s *Store) Write(t *freshservice.Ticket) error {
	if len(t.Raw) == 0 {
		return fmt.Errorf("ticketstore: ticket %d has no raw payload", t.ID)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, t.Raw, "", "    "); err != nil {
		return fmt.Errorf("ticketstore: ticket %d payload is not valid JSON: %w", t.ID, err)
	}
	pretty.WriteByte('\n')

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("ticketstore: ticket %d: %w", t.ID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ticketstore: ticket %d: %w", t.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ticketstore: ticket %d: %w", t.ID, err)
	}
	if err := os.Rename(tmpName, s.path(t.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ticketstore: ticket %d: %w", t.ID, err)
	}
	return nil
}

// Archive moves a cached ticket into the dated archive folder for now's day.
// Archiving a ticket that is not cached is not an error.
func (s *Store) Archive(id int64, now time.Time) error {
	src := s.path(id)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	day := filepath.Join(s.dir, archiveDir, now.Format("2006-01-02"))
	if err := os.MkdirAll(day, 0o755); err != nil {
		return fmt.Errorf("ticketstore: creating archive day %s: %w", day, err)
	}
	dst := filepath.Join(day, strconv.FormatInt(id, 10)+fileExt)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("ticketstore: archiving ticket %d: %w", id, err)
	}
	s.log.Info("ticket archived", map[string]interface{}{"ticket_id": id, "day": now.Format("2006-01-02")})
	return nil
}

// SyncResult summarizes one reconciliation pass.
type SyncResult struct {
	Active   int
	New      []int64
	Archived []int64
}

// Sync reconciles the cache against the active id set: ids cached but no
// longer active are archived, and ids active but not yet cached come back as
// New so the caller can fetch and Write them. Every active id is expected to
// be rewritten afterwards regardless; New only flags first appearances.
func (s *Store) Sync(active []int64, now time.Time) (SyncResult, error) {
	local, err := s.LocalIDs()
	if err != nil {
		return SyncResult{}, err
	}

	activeSet := make(map[int64]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}
	localSet := make(map[int64]bool, len(local))
	for _, id := range local {
		localSet[id] = true
	}

	res := SyncResult{Active: len(active)}
	for _, id := range local {
		if !activeSet[id] {
			if err := s.Archive(id, now); err != nil {
				return res, err
			}
			res.Archived = append(res.Archived, id)
		}
	}
	for _, id := range active {
		if !localSet[id] {
			res.New = append(res.New, id)
		}
	}
	return res, nil
}

// ReadAll loads every cached snapshot. Snapshots that fail to parse are
// skipped and counted so callers can surface cache corruption without one
// bad file blanking the whole dashboard.
func (s *Store) ReadAll() ([]*freshservice.Ticket, int, error) {
	ids, err := s.LocalIDs()
	if err != nil {
		return nil, 0, err
	}

	tickets := make([]*freshservice.Ticket, 0, len(ids))
	corrupt := 0
	for _, id := range ids {
		data, err := os.ReadFile(s.path(id))
		if err != nil {
			// archived or deleted between the listing and the read
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, corrupt, fmt.Errorf("ticketstore: reading ticket %d: %w", id, err)
		}
		t, err := freshservice.ParseTicket(data)
		if err != nil {
			corrupt++
			s.log.Warn("skipping unreadable ticket snapshot", map[string]interface{}{
				"ticket_id": id, "error": err.Error(),
			})
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, corrupt, nil
}

// NewestSnapshot returns the most recent modification time across cached
// snapshots, or the zero time when the cache is empty. The health endpoint
// uses it to judge poller freshness.
func (s *Store) NewestSnapshot() (time.Time, error) {
	ids, err := s.LocalIDs()
	if err != nil {
		return time.Time{}, err
	}
	var newest time.Time
	for _, id := range ids {
		info, err := os.Stat(s.path(id))
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest, nil
}
