// Package schema is the central registry of the semantic column names used by
// the merge pipeline. The column set is closed except for the Storage_<source>
// family, which is derived from the source name at merge time.
package schema

// Packing columns carry the per-product attributes of a row.
const (
	Barcode      = "Packing.Barcode"
	Width        = "Packing.Ширина"
	Quantity     = "Packing.Колво"
	FreeBalance  = "Packing.СвободныйОстаток"
	Compound     = "Packing.Состав"
	StoragePlace = "Packing.МестоХранения"
)

// Description columns hold free-text fields that the extractors fall back to.
const (
	Name                  = "Наименование"
	Description           = "Description"
	AdditionalDescription = "AdditionalDescription"
)

// SourceFile marks every merged row with the short name of its origin file.
const SourceFile = "Source_File"

// storagePrefix is the reserved prefix of the per-source storage columns
// created during merge and dissolved again during redistribution.
const storagePrefix = "Storage_"

// StorageColumnFor derives the storage column name for a source. The same
// derivation is used to create the column during merge and to look it up
// during redistribution.
func StorageColumnFor(sourceName string) string {
	return storagePrefix + sourceName
}

// IsStorageColumn reports whether name belongs to the Storage_<source> family.
func IsStorageColumn(name string) bool {
	return len(name) >= len(storagePrefix) && name[:len(storagePrefix)] == storagePrefix
}

// SumColumns returns the columns aggregated by exact decimal summation.
func SumColumns() []string {
	return []string{Quantity, FreeBalance}
}

// FirstColumns returns the columns aggregated by taking the first value
// encountered within a group.
func FirstColumns() []string {
	return []string{
		Barcode,
		Width,
		Compound,
		Name,
		Description,
		AdditionalDescription,
		SourceFile,
	}
}

// IsSumColumn reports whether name is aggregated by summation.
func IsSumColumn(name string) bool {
	for _, c := range SumColumns() {
		if c == name {
			return true
		}
	}
	return false
}
