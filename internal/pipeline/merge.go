// Package pipeline contains the merge-aggregate-redistribute core: concurrent
// source reads, the merged working set, group-by-barcode aggregation and the
// per-source output fan-out.
package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"csv-stock-merge/internal/config"
	"csv-stock-merge/internal/csvio"
	"csv-stock-merge/internal/extract"
	"csv-stock-merge/internal/fileman"
	"csv-stock-merge/internal/schema"
)

// Engine merges the source files into one grouped table.
type Engine struct {
	reader   *csvio.Reader
	width    *extract.WidthExtractor
	compound extract.CompoundExtractor
	datas    config.DatasConfig
	log      *zap.SugaredLogger
}

// NewEngine builds the merge engine.
func NewEngine(reader *csvio.Reader, width *extract.WidthExtractor, datas config.DatasConfig, log *zap.SugaredLogger) *Engine {
	return &Engine{reader: reader, width: width, datas: datas, log: log}
}

// MergeSources reads every source concurrently, tags and concatenates the
// surviving tables, derives width and compound, and aggregates by barcode.
// A nil result means no source yielded data; the caller treats that as
// "nothing to merge this run", not as an error.
func (e *Engine) MergeSources(ctx context.Context, sources []fileman.Source) *csvio.Table {
	// Fan-out reads; results land at their fan-out index so the merged row
	// order follows source discovery order, not completion order.
	tables := make([]*csvio.Table, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			tables[i] = e.reader.Read(src.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Warnf("Source reads interrupted: %v", err)
	}

	combined := e.concat(sources, tables)
	if combined == nil {
		e.log.Warn("No valid tables to merge.")
		return nil
	}
	e.log.Info("Successfully merged tables.")

	e.overrideProductName(combined)
	backfillStorage(combined)

	e.extractWidths(ctx, combined)
	e.extractCompounds(combined)

	return e.groupByBarcode(combined)
}

// concat tags each surviving table with its source name and storage column,
// then concatenates them row-wise. Returns nil when nothing survived.
func (e *Engine) concat(sources []fileman.Source, tables []*csvio.Table) *csvio.Table {
	combined := csvio.NewTable(nil)
	survived := false

	for i, t := range tables {
		if t == nil {
			continue
		}
		survived = true
		name := sources[i].Name
		storageCol := schema.StorageColumnFor(name)

		t.AddColumn(schema.SourceFile)
		t.AddColumn(storageCol)
		for _, row := range t.Rows {
			row[schema.SourceFile] = name
			if v, ok := row[schema.StoragePlace]; ok {
				row[storageCol] = v
			} else {
				row[storageCol] = ""
			}
		}
		t.DropColumn(schema.StoragePlace)

		for _, c := range t.Columns {
			combined.AddColumn(c)
		}
		combined.Rows = append(combined.Rows, t.Rows...)
	}

	if !survived {
		return nil
	}
	return combined
}

// overrideProductName forces every row's product name to the configured
// value. The override is all-or-nothing; either way a warning records what
// happened to the column.
func (e *Engine) overrideProductName(t *csvio.Table) {
	const prefix = `The value of the cells in the "Наименование" column has`
	if e.datas.NameOfProductType != "" {
		t.AddColumn(schema.Name)
		for _, row := range t.Rows {
			row[schema.Name] = e.datas.NameOfProductType
		}
		e.log.Warnf("%s been replaced with %q", prefix, e.datas.NameOfProductType)
	} else {
		e.log.Warnf(`%s not been changed, the "DATAS_NAME_OF_PRODUCT_TYPE" setting is empty.`, prefix)
	}
}

// backfillStorage replaces null cells of every storage column with the empty
// string, so later concatenation never sees missing values.
func backfillStorage(t *csvio.Table) {
	for _, c := range t.Columns {
		if !schema.IsStorageColumn(c) {
			continue
		}
		for _, row := range t.Rows {
			if _, ok := row[c]; !ok {
				row[c] = ""
			}
		}
	}
}

// extractWidths rewrites the width column from the width extractor. The column
// is declared up front so derived values survive grouping even when no source
// file carried a width header. The out-of-range notifications are queued
// concurrently and awaited together before grouping starts.
func (e *Engine) extractWidths(ctx context.Context, t *csvio.Table) {
	t.AddColumn(schema.Width)
	var g errgroup.Group
	for _, row := range t.Rows {
		if v, ok := e.width.Extract(ctx, row, &g); ok {
			row[schema.Width] = strconv.FormatFloat(v, 'f', -1, 64)
		} else {
			delete(row, schema.Width)
		}
	}
	// Width extraction itself is synchronous; only the alerts run
	// concurrently, and all of them are flushed before grouping.
	_ = g.Wait()
}

func (e *Engine) extractCompounds(t *csvio.Table) {
	t.AddColumn(schema.Compound)
	for _, row := range t.Rows {
		if v, ok := e.compound.Extract(row); ok {
			row[schema.Compound] = v
		} else {
			delete(row, schema.Compound)
		}
	}
}

// group accumulates one barcode's aggregation state.
type group struct {
	first   csvio.Row
	sums    map[string]decimal.Decimal
	storage map[string][]string
}

// groupByBarcode collapses the combined table to one row per barcode:
// quantity and free balance are exact decimal sums rounded half-up once at
// the end; storage columns comma-join their non-empty values in encounter
// order; every other column keeps the first value seen in the group.
func (e *Engine) groupByBarcode(t *csvio.Table) *csvio.Table {
	groups := make(map[string]*group)
	var order []string

	for _, row := range t.Rows {
		key := row[schema.Barcode]
		grp, ok := groups[key]
		if !ok {
			grp = &group{
				first:   make(csvio.Row),
				sums:    make(map[string]decimal.Decimal),
				storage: make(map[string][]string),
			}
			groups[key] = grp
			order = append(order, key)
		}

		for _, c := range t.Columns {
			switch {
			case schema.IsSumColumn(c):
				cell, ok := row[c]
				if !ok || cell == "" {
					continue
				}
				d, err := decimal.NewFromString(cell)
				if err != nil {
					e.log.Warnf("Skipping non-numeric %s value %q for barcode %s", c, cell, key)
					continue
				}
				grp.sums[c] = grp.sums[c].Add(d)
			case schema.IsStorageColumn(c):
				if v := row[c]; v != "" {
					grp.storage[c] = append(grp.storage[c], v)
				}
			default:
				if _, seen := grp.first[c]; seen {
					continue
				}
				if v, ok := row[c]; ok {
					grp.first[c] = v
				}
			}
		}
	}

	grouped := csvio.NewTable(t.Columns)
	places := int32(e.datas.DecimalPlaces)
	for _, key := range order {
		grp := groups[key]
		row := grp.first
		for _, c := range t.Columns {
			switch {
			case schema.IsSumColumn(c):
				// StringFixed rounds half away from zero, which for these
				// non-negative quantities is round-half-up.
				row[c] = grp.sums[c].StringFixed(places)
			case schema.IsStorageColumn(c):
				row[c] = strings.Join(grp.storage[c], ", ")
			}
		}
		grouped.Rows = append(grouped.Rows, row)
	}
	return grouped
}
