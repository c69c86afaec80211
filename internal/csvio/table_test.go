package csvio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableColumns(t *testing.T) {
	table := NewTable([]string{"A", "B"})
	table.Rows = []Row{{"A": "1", "B": "2"}}

	t.Run("add is idempotent", func(t *testing.T) {
		table.AddColumn("C")
		table.AddColumn("C")
		assert.Equal(t, []string{"A", "B", "C"}, table.Columns)
	})

	t.Run("rename keeps position and moves cells", func(t *testing.T) {
		table.RenameColumn("B", "B2")
		assert.Equal(t, []string{"A", "B2", "C"}, table.Columns)
		assert.Equal(t, "2", table.Rows[0]["B2"])
		_, ok := table.Rows[0]["B"]
		assert.False(t, ok)
	})

	t.Run("drop removes cells", func(t *testing.T) {
		table.DropColumn("B2")
		assert.Equal(t, []string{"A", "C"}, table.Columns)
		_, ok := table.Rows[0]["B2"]
		assert.False(t, ok)
	})
}

func TestClone(t *testing.T) {
	table := NewTable([]string{"A"})
	table.Rows = []Row{{"A": "1"}}

	dup := table.Clone()
	dup.Rows[0]["A"] = "changed"
	dup.AddColumn("B")

	assert.Equal(t, "1", table.Rows[0]["A"])
	assert.Equal(t, []string{"A"}, table.Columns)
}

func TestReindex(t *testing.T) {
	table := NewTable([]string{"A", "B", "C"})
	table.Rows = []Row{{"A": "1", "B": "2", "C": "3"}}

	out := table.Reindex([]string{"C", "A", "Missing"})

	assert.Equal(t, []string{"C", "A", "Missing"}, out.Columns)
	// Extra columns are dropped, template columns absent from the data
	// become empty.
	assert.Equal(t, Row{"C": "3", "A": "1", "Missing": ""}, out.Rows[0])
}
