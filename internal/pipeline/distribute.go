package pipeline

import (
	"path/filepath"

	"go.uber.org/zap"

	"csv-stock-merge/internal/config"
	"csv-stock-merge/internal/csvio"
	"csv-stock-merge/internal/fileman"
	"csv-stock-merge/internal/schema"
)

// Distributor derives one output file per source from the grouped table,
// restoring that source's storage column and discarding the others.
type Distributor struct {
	writer *csvio.Writer
	files  *fileman.Manager
	csv    config.CSVConfig
	log    *zap.SugaredLogger
}

// NewDistributor builds the redistribution writer.
func NewDistributor(writer *csvio.Writer, files *fileman.Manager, csv config.CSVConfig, log *zap.SugaredLogger) *Distributor {
	return &Distributor{writer: writer, files: files, csv: csv, log: log}
}

// Distribute writes the per-source view of grouped next to the source's own
// file. It returns the output path and whether anything was written; a
// missing storage column or unconfigured output name skips the source with a
// warning instead of failing the run.
func (d *Distributor) Distribute(grouped *csvio.Table, src fileman.Source, template []string) (string, bool) {
	storageCol := schema.StorageColumnFor(src.Name)
	if !grouped.HasColumn(storageCol) {
		d.log.Warnf("Missing expected column %s for file %s.", storageCol, src.Name)
		return "", false
	}

	current := grouped.Clone()
	current.RenameColumn(storageCol, schema.StoragePlace)
	for _, c := range append([]string(nil), current.Columns...) {
		if schema.IsStorageColumn(c) {
			current.DropColumn(c)
		}
	}
	if len(template) > 0 {
		current = current.Reindex(template)
	}

	fileName := d.outputFileName()
	if fileName == "" {
		d.log.Warnf(`Both "CSV_FILE_NAME" and "CSV_FILE_NAME_FOR_DTA" are empty for file %s.`, src.Name)
		return "", false
	}

	outputPath := filepath.Join(filepath.Dir(src.Path), fileName)
	if err := d.writer.Write(current, outputPath); err != nil {
		d.log.Errorf("Failed to save merged file for %s: %v", src.Name, err)
		return "", false
	}
	d.log.Infof("Saved merged file to %s", outputPath)

	if d.csv.FileNameForChecker != "" {
		checkerPath := filepath.Join(filepath.Dir(src.Path), d.csv.FileNameForChecker)
		d.files.CopyFile(outputPath, checkerPath)
	}
	return outputPath, true
}

// outputFileName resolves the configured output name: the primary name wins,
// the DTA name is the fallback.
func (d *Distributor) outputFileName() string {
	if d.csv.FileName != "" {
		return d.csv.FileName
	}
	return d.csv.FileNameForDTA
}
