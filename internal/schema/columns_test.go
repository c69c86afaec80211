package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageColumnFor(t *testing.T) {
	assert.Equal(t, "Storage_SHOP-1", StorageColumnFor("SHOP-1"))
	assert.True(t, IsStorageColumn(StorageColumnFor("A")))
}

func TestIsStorageColumn(t *testing.T) {
	assert.True(t, IsStorageColumn("Storage_Main"))
	assert.False(t, IsStorageColumn("Packing.МестоХранения"))
	assert.False(t, IsStorageColumn("Stor"))
	assert.False(t, IsStorageColumn(""))
}

func TestColumnClasses(t *testing.T) {
	assert.ElementsMatch(t, []string{Quantity, FreeBalance}, SumColumns())

	for _, c := range SumColumns() {
		assert.True(t, IsSumColumn(c))
		assert.NotContains(t, FirstColumns(), c)
	}
	assert.False(t, IsSumColumn(Barcode))

	// Storage-place is source-local and transient; it never participates in
	// aggregation directly.
	assert.NotContains(t, FirstColumns(), StoragePlace)
}
