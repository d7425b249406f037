package directory

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/pkg/logger"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log := logger.NewLogger(io.Discard, logger.Config{Service: "test"})
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func idPtr(v int64) *int64 { return &v }

func TestMappingFileParsing(t *testing.T) {
	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.txt")
	require.NoError(t, os.WriteFile(agents, []byte(
		"1001: Ada Lovelace\n"+
			"\n"+
			"bad line without separator\n"+
			"notanid: Grace Hopper\n"+
			"1002:  Alan Turing \n"), 0o644))

	d := New(Config{AgentsFile: agents}, testLog(t))
	d.Refresh(context.Background())

	assert.Equal(t, "Ada Lovelace", d.AgentName(idPtr(1001)))
	assert.Equal(t, "Alan Turing", d.AgentName(idPtr(1002)))
	assert.Equal(t, "Agent ID: 9999", d.AgentName(idPtr(9999)))
	assert.Equal(t, "Unassigned", d.AgentName(nil))
}

func TestRequesterFallbacks(t *testing.T) {
	d := New(Config{}, testLog(t))
	d.Refresh(context.Background())

	assert.Equal(t, "N/A", d.RequesterName(nil))
	assert.Equal(t, "Req. ID: 42", d.RequesterName(idPtr(42)))
}

type staticSource struct {
	agents map[int64]string
	err    error
}

func (s staticSource) Agents(ctx context.Context) (map[int64]string, error) {
	return s.agents, s.err
}

func TestSourceOverridesFileNames(t *testing.T) {
	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.txt")
	require.NoError(t, os.WriteFile(agents, []byte("1001: Stale Name\n1002: Kept Name\n"), 0o644))

	d := New(Config{
		AgentsFile: agents,
		Source:     staticSource{agents: map[int64]string{1001: "Fresh Name"}},
	}, testLog(t))
	d.Refresh(context.Background())

	assert.Equal(t, "Fresh Name", d.AgentName(idPtr(1001)))
	assert.Equal(t, "Kept Name", d.AgentName(idPtr(1002)))
}

func TestSourceFailureFallsBackToFiles(t *testing.T) {
	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.txt")
	require.NoError(t, os.WriteFile(agents, []byte("7: File Name\n"), 0o644))

	d := New(Config{
		AgentsFile: agents,
		Source:     staticSource{err: errors.New("upstream down")},
	}, testLog(t))
	d.Refresh(context.Background())

	assert.Equal(t, "File Name", d.AgentName(idPtr(7)))
}

func TestEnsureLoadedIsLazy(t *testing.T) {
	d := New(Config{Source: staticSource{agents: map[int64]string{1: "A"}}}, testLog(t))

	assert.Equal(t, "Agent ID: 1", d.AgentName(idPtr(1)))
	d.EnsureLoaded(context.Background())
	assert.Equal(t, "A", d.AgentName(idPtr(1)))

	assert.Len(t, d.Agents(), 1)
}
