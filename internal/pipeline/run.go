package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"csv-stock-merge/internal/config"
	"csv-stock-merge/internal/csvio"
	"csv-stock-merge/internal/extract"
	"csv-stock-merge/internal/fileman"
	"csv-stock-merge/internal/notify"
	"csv-stock-merge/internal/store"
)

// Orchestrator sequences one merge run: template load, discovery, merge,
// per-source redistribution, staleness telemetry and the final notification.
type Orchestrator struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	notifier *notify.Messenger
	files    *fileman.Manager
	reader   *csvio.Reader
	engine   *Engine
	dist     *Distributor
	runs     *store.Store
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(cfg *config.Config, log *zap.SugaredLogger, notifier *notify.Messenger, runs *store.Store) *Orchestrator {
	files := fileman.New(log)
	reader := csvio.NewReader(cfg.CSV.Separator, log)
	writer := csvio.NewWriter(cfg.CSV.Separator, log)
	width := extract.NewWidthExtractor(cfg.Datas.MaxWidth, notifier, log)

	return &Orchestrator{
		cfg:      cfg,
		log:      log,
		notifier: notifier,
		files:    files,
		reader:   reader,
		engine:   NewEngine(reader, width, cfg.Datas, log),
		dist:     NewDistributor(writer, files, cfg.CSV, log),
		runs:     runs,
	}
}

// Run executes one full merge run. The documented failure paths (no sources,
// no readable data, per-source skips, notification loss) never surface as an
// error; they are logged, recorded in the run store and end the run early.
func (o *Orchestrator) Run(ctx context.Context) error {
	runID := uuid.New().String()
	o.log.Infof("Run Script! (run %s)", runID)

	o.recordErr(o.runs.CreateRun(runID))
	o.recordErr(o.runs.UpdateRunStatus(runID, "running"))

	templatePath := filepath.Join(o.cfg.CSV.TemplateDirectory, o.cfg.CSV.FileNameForDTA)
	template := o.reader.LoadHeaderTemplate(templatePath)

	sources, err := o.files.FindMatchingFiles(o.cfg.CSV.PathDirectory, o.cfg.CSV.FilePattern)
	if err != nil {
		o.event(runID, "error", "discovery", err.Error())
		o.recordErr(o.runs.FinishRun(runID, "failed"))
		return fmt.Errorf("source discovery failed: %w", err)
	}
	o.log.Infof("Found %d files matching the pattern.", len(sources))

	if len(sources) == 0 {
		o.log.Warn("No files found matching the pattern.")
		o.event(runID, "warning", "discovery", "no files found matching the pattern")
		o.recordErr(o.runs.FinishRun(runID, "no_data"))
		return nil
	}

	merged := o.engine.MergeSources(ctx, sources)
	o.notifier.Flush(ctx)

	if merged == nil {
		o.log.Warn("No data to save after merging.")
		o.event(runID, "warning", "merge", "no data to save after merging")
		o.recordErr(o.runs.FinishRun(runID, "no_data"))
		return nil
	}
	o.event(runID, "info", "merge", fmt.Sprintf("merged %d sources into %d grouped rows", len(sources), len(merged.Rows)))

	for _, src := range sources {
		o.checkStaleness(ctx, src)

		outputPath, ok := o.dist.Distribute(merged, src, template)
		status := "merged"
		if !ok {
			status = "skipped"
		}
		o.recordErr(o.runs.SaveSource(runID, src.Name, src.Path, status, outputPath))
	}

	o.notifier.Flush(ctx)
	o.notifier.AddMessage(ctx, summaryMessage(sources))
	o.notifier.Flush(ctx)

	o.recordErr(o.runs.FinishRun(runID, "completed"))
	o.log.Info("Finished Script!")
	return nil
}

// checkStaleness logs the source file's modification age and queues an alert
// when the file exceeded the inactivity window. Advisory only; the source
// still participates in the run.
func (o *Orchestrator) checkStaleness(ctx context.Context, src fileman.Source) {
	st, err := o.files.CheckFileModification(src.Path, o.cfg.Inactivity.LimitHours)
	if err != nil {
		o.log.Errorf("Staleness check failed for %q: %v", src.Path, err)
		return
	}
	plain := strings.NewReplacer("\n", " ", "*", "", "`", "").Replace(st.Message)
	if st.Stale {
		o.log.Warn(plain)
		o.notifier.AddMessage(ctx, "🟥️ "+st.Message)
	} else {
		o.log.Info(plain)
	}
}

func summaryMessage(sources []fileman.Source) string {
	lines := make([]string, len(sources))
	for i, src := range sources {
		lines[i] = fmt.Sprintf("%s: %s", src.Name, src.Path)
	}
	return fmt.Sprintf("*CSV files merged completed successfully.*\n\nFiles:```\n%s```",
		strings.Join(lines, "\n"))
}

func (o *Orchestrator) event(runID, level, stage, message string) {
	o.recordErr(o.runs.SaveEvent(runID, level, stage, message))
}

// recordErr logs run-store failures without letting them affect the run.
func (o *Orchestrator) recordErr(err error) {
	if err != nil {
		o.log.Errorf("Run store update failed: %v", err)
	}
}
