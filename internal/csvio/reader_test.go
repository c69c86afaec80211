package csvio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRead(t *testing.T) {
	r := NewReader(";", zap.NewNop().Sugar())

	t.Run("basic file", func(t *testing.T) {
		path := writeFile(t, "a.csv", "Packing.Barcode;Packing.Колво\n1001;3\n1002;4\n")
		table := r.Read(path)
		require.NotNil(t, table)
		assert.Equal(t, []string{"Packing.Barcode", "Packing.Колво"}, table.Columns)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "1001", table.Rows[0]["Packing.Barcode"])
		assert.Equal(t, "4", table.Rows[1]["Packing.Колво"])
	})

	t.Run("whitespace and trailing separator normalize away", func(t *testing.T) {
		messy := writeFile(t, "messy.csv", "A;B;\n  1 ;  x  ;\n 2;y;\n")
		clean := writeFile(t, "clean.csv", "A;B\n1;x\n2;y\n")

		got := r.Read(messy)
		want := r.Read(clean)
		require.NotNil(t, got)
		require.NotNil(t, want)
		assert.Equal(t, want.Columns, got.Columns)
		assert.Equal(t, want.Rows, got.Rows)
	})

	t.Run("blank header cells are dropped without shifting data", func(t *testing.T) {
		path := writeFile(t, "blank.csv", "A;;B\n1;2\n")
		table := r.Read(path)
		require.NotNil(t, table)
		assert.Equal(t, []string{"A", "B"}, table.Columns)
		assert.Equal(t, Row{"A": "1", "B": "2"}, table.Rows[0])
	})

	t.Run("empty cells stay null", func(t *testing.T) {
		path := writeFile(t, "nulls.csv", "A;B;C\n1;;3\n")
		table := r.Read(path)
		require.NotNil(t, table)
		_, ok := table.Rows[0]["B"]
		assert.False(t, ok)
	})

	t.Run("short rows leave trailing cells null", func(t *testing.T) {
		path := writeFile(t, "short.csv", "A;B;C\n1;2\n")
		table := r.Read(path)
		require.NotNil(t, table)
		assert.Equal(t, Row{"A": "1", "B": "2"}, table.Rows[0])
	})

	t.Run("missing file is no data", func(t *testing.T) {
		assert.Nil(t, r.Read(filepath.Join(t.TempDir(), "absent.csv")))
	})

	t.Run("empty file is no data", func(t *testing.T) {
		assert.Nil(t, r.Read(writeFile(t, "empty.csv", "")))
	})
}

func TestLoadHeaderTemplate(t *testing.T) {
	r := NewReader(";", zap.NewNop().Sugar())

	t.Run("first line only", func(t *testing.T) {
		path := writeFile(t, "template.csv", "A;B;C;\nignored;line\n")
		assert.Equal(t, []string{"A", "B", "C"}, r.LoadHeaderTemplate(path))
	})

	t.Run("missing template", func(t *testing.T) {
		assert.Nil(t, r.LoadHeaderTemplate(filepath.Join(t.TempDir(), "absent.csv")))
	})
}

func TestWriteRoundTrip(t *testing.T) {
	log := zap.NewNop().Sugar()
	r := NewReader(";", log)
	w := NewWriter(";", log)

	table := NewTable([]string{"A", "B"})
	table.Rows = []Row{{"A": "1", "B": "x"}, {"A": "2"}}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, w.Write(table, path))

	got := r.Read(path)
	require.NotNil(t, got)
	assert.Equal(t, table.Columns, got.Columns)
	assert.Equal(t, "x", got.Rows[0]["B"])
	// Null cells serialize as empty fields and read back as null.
	_, ok := got.Rows[1]["B"]
	assert.False(t, ok)
}
