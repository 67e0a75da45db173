package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/femtoscopy/internal/db"
	"github.com/banshee-data/femtoscopy/internal/femto/hist"
	"github.com/banshee-data/femtoscopy/internal/fsutil"
	"github.com/banshee-data/femtoscopy/internal/monitoring"
)

func TestParseKind(t *testing.T) {
	k, err := parseKind("qside")
	require.NoError(t, err)
	assert.Equal(t, hist.QSide, k)

	_, err = parseKind("qt")
	assert.Error(t, err)
}

func TestPrintRuns(t *testing.T) {
	monitoring.SetLogger(nil)
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := db.NewDB(path)
	require.NoError(t, err)
	id, err := store.CreateRun("{}", "events.jsonl")
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(id, db.RunSummary{EventsSeen: 3, EventsAccepted: 2}))
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, path))
	out := buf.String()
	assert.Contains(t, out, id)
	assert.Contains(t, out, "finished")
	assert.Contains(t, out, "events=3 accepted=2")
	assert.Contains(t, out, "events.jsonl")

	assert.Error(t, printRuns(&buf, ""))
}

func TestWriteHTML(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, writeHTML(mem, "report.html", nil))
	b, err := mem.ReadFile("report.html")
	require.NoError(t, err)
	assert.Contains(t, string(b), "Correlation functions")

	assert.Error(t, writeHTML(mem, "missing/report.html", nil))
}

func TestOpenInput(t *testing.T) {
	_, _, err := openInput(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
