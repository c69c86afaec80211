package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"csv-stock-merge/internal/config"
	"csv-stock-merge/internal/notify"
	"csv-stock-merge/internal/store"
)

type testRig struct {
	cfg  *config.Config
	runs *store.Store

	mu    sync.Mutex
	texts []string
}

func (r *testRig) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.texts...)
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	rig := &testRig{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseForm()
		rig.mu.Lock()
		rig.texts = append(rig.texts, req.Form.Get("text"))
		rig.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	t.Cleanup(ts.Close)

	dataDir := t.TempDir()
	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(templateDir, "merged.csv"),
		[]byte("Packing.Barcode;Наименование;Packing.Колво;Packing.МестоХранения\n"),
		0o644))

	rig.cfg = &config.Config{
		CSV: config.CSVConfig{
			Separator:         ";",
			PathDirectory:     dataDir,
			TemplateDirectory: templateDir,
			FilePattern:       `stock_(.+)\.csv`,
			FileNameForDTA:    "merged.csv",
		},
		Datas:      config.DatasConfig{MaxWidth: 200, DecimalPlaces: 2, NameOfProductType: "Ткань"},
		Inactivity: config.InactivityConfig{LimitHours: 24},
		Telegram: config.TelegramConfig{
			Token:        "test-token",
			ChatID:       "42",
			MaxMsgLength: 4096,
			LineHeight:   3,
			APIURL:       ts.URL,
		},
	}

	runs, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { runs.Close() })
	rig.runs = runs
	return rig
}

func (r *testRig) newOrchestrator() *Orchestrator {
	log := zap.NewNop().Sugar()
	messenger := notify.New(r.cfg.Telegram, log)
	return NewOrchestrator(r.cfg, log, messenger, r.runs)
}

func (r *testRig) writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(r.cfg.CSV.PathDirectory, "stock_"+name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (r *testRig) lastRun(t *testing.T) map[string]interface{} {
	t.Helper()
	listed, err := r.runs.ListRuns()
	require.NoError(t, err)
	require.NotEmpty(t, listed)
	run, err := r.runs.GetRun(listed[0]["id"].(string))
	require.NoError(t, err)
	return run
}

func TestRun(t *testing.T) {
	t.Run("full run writes one output per source", func(t *testing.T) {
		rig := newTestRig(t)
		rig.writeSource(t, "A", "Packing.Barcode;Packing.Колво;Packing.МестоХранения\n1001;3;ShelfA\n")
		rig.writeSource(t, "B", "Packing.Barcode;Packing.Колво;Packing.МестоХранения\n1001;4;ShelfB\n")

		require.NoError(t, rig.newOrchestrator().Run(context.Background()))

		// Both sources live in one directory, so the second write overwrote
		// the first. The surviving file carries the last source's storage.
		data, err := os.ReadFile(filepath.Join(rig.cfg.CSV.PathDirectory, "merged.csv"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "Packing.Barcode;Наименование;Packing.Колво;Packing.МестоХранения", lines[0])
		assert.Equal(t, "1001;Ткань;7.00;ShelfB", lines[1])

		run := rig.lastRun(t)
		assert.Equal(t, "completed", run["status"])
		sources := run["sources"].([]map[string]interface{})
		require.Len(t, sources, 2)
		assert.Equal(t, "merged", sources[0]["status"])
		assert.Equal(t, "merged", sources[1]["status"])

		sent := rig.sent()
		require.NotEmpty(t, sent)
		summary := sent[len(sent)-1]
		assert.Contains(t, summary, "CSV files merged completed successfully")
		assert.Contains(t, summary, "stock_A.csv")
		assert.Contains(t, summary, "stock_B.csv")
	})

	t.Run("separate directories keep separate outputs", func(t *testing.T) {
		rig := newTestRig(t)
		dirA := filepath.Join(rig.cfg.CSV.PathDirectory, "a")
		dirB := filepath.Join(rig.cfg.CSV.PathDirectory, "b")
		require.NoError(t, os.Mkdir(dirA, 0o755))
		require.NoError(t, os.Mkdir(dirB, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dirA, "stock_A.csv"),
			[]byte("Packing.Barcode;Packing.Колво;Packing.МестоХранения\n1001;3;ShelfA\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dirB, "stock_B.csv"),
			[]byte("Packing.Barcode;Packing.Колво;Packing.МестоХранения\n1001;4;ShelfB\n"), 0o644))

		require.NoError(t, rig.newOrchestrator().Run(context.Background()))

		dataA, err := os.ReadFile(filepath.Join(dirA, "merged.csv"))
		require.NoError(t, err)
		dataB, err := os.ReadFile(filepath.Join(dirB, "merged.csv"))
		require.NoError(t, err)
		assert.Contains(t, string(dataA), "1001;Ткань;7.00;ShelfA")
		assert.Contains(t, string(dataB), "1001;Ткань;7.00;ShelfB")
	})

	t.Run("no matching files ends the run without outputs", func(t *testing.T) {
		rig := newTestRig(t)

		require.NoError(t, rig.newOrchestrator().Run(context.Background()))

		assert.Equal(t, "no_data", rig.lastRun(t)["status"])
		assert.Empty(t, rig.sent())
		_, err := os.Stat(filepath.Join(rig.cfg.CSV.PathDirectory, "merged.csv"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("empty source files end the run without outputs", func(t *testing.T) {
		rig := newTestRig(t)
		rig.writeSource(t, "A", "")

		require.NoError(t, rig.newOrchestrator().Run(context.Background()))

		assert.Equal(t, "no_data", rig.lastRun(t)["status"])
		_, err := os.Stat(filepath.Join(rig.cfg.CSV.PathDirectory, "merged.csv"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("bad file pattern fails the run", func(t *testing.T) {
		rig := newTestRig(t)
		rig.cfg.CSV.FilePattern = `stock_.+\.csv`

		err := rig.newOrchestrator().Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, "failed", rig.lastRun(t)["status"])
	})

	t.Run("stale source file triggers an alert but still merges", func(t *testing.T) {
		rig := newTestRig(t)
		path := rig.writeSource(t, "A", "Packing.Barcode;Packing.Колво;Packing.МестоХранения\n1001;3;ShelfA\n")
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(path, old, old))

		require.NoError(t, rig.newOrchestrator().Run(context.Background()))

		assert.Equal(t, "completed", rig.lastRun(t)["status"])
		var alert string
		for _, text := range rig.sent() {
			if strings.Contains(text, "has not been modified") {
				alert = text
			}
		}
		require.NotEmpty(t, alert)
		assert.Contains(t, alert, "🟥")
	})
}
