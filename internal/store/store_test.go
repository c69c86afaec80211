package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.CreateRun("run-1"))

	run, err := s.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", run["status"])
	assert.NotContains(t, run, "finishedAt")

	require.NoError(t, s.UpdateRunStatus("run-1", "running"))
	run, err = s.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "running", run["status"])

	require.NoError(t, s.FinishRun("run-1", "completed"))
	run, err = s.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run["status"])
	assert.Contains(t, run, "finishedAt")
}

func TestGetRunUnknownID(t *testing.T) {
	s := openStore(t)

	_, err := s.GetRun("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.CreateRun("run-a"))
	require.NoError(t, s.CreateRun("run-b"))

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0]["id"].(string), runs[1]["id"].(string)}
	assert.ElementsMatch(t, []string{"run-a", "run-b"}, ids)
}

func TestSaveSource(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.CreateRun("run-1"))
	require.NoError(t, s.SaveSource("run-1", "SHOP-1", "/in/stock_SHOP-1.csv", "merged", "/in/out.csv"))
	require.NoError(t, s.SaveSource("run-1", "SHOP-2", "/in/stock_SHOP-2.csv", "skipped", ""))

	run, err := s.GetRun("run-1")
	require.NoError(t, err)

	sources := run["sources"].([]map[string]interface{})
	require.Len(t, sources, 2)
	assert.Equal(t, "SHOP-1", sources[0]["name"])
	assert.Equal(t, "merged", sources[0]["status"])
	assert.Equal(t, "/in/out.csv", sources[0]["outputPath"])
	assert.Equal(t, "skipped", sources[1]["status"])
}

func TestSaveEvent(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.CreateRun("run-1"))
	require.NoError(t, s.SaveEvent("run-1", "warn", "discover", "no files matched"))
	require.NoError(t, s.SaveEvent("run-1", "info", "merge", "merged 2 sources"))

	events, err := s.ListEvents("run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "warn", events[0]["level"])
	assert.Equal(t, "discover", events[0]["stage"])
	assert.Equal(t, "merge", events[1]["stage"])

	other, err := s.ListEvents("run-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
