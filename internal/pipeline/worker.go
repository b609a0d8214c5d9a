package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gafniasaf/bookgen/internal/config"
	"github.com/gafniasaf/bookgen/internal/engine"
	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/report"
	"github.com/gafniasaf/bookgen/internal/textutil"
)

// Worker processes a single document job.
type Worker struct {
	engine *engine.Engine
	cfg    config.Config
	log    *slog.Logger
}

func NewWorker(eng *engine.Engine, cfg config.Config, log *slog.Logger) *Worker {
	return &Worker{
		engine: eng,
		cfg:    cfg,
		log:    log,
	}
}

// Process opens the uploaded document, runs the pipeline and, when the
// format can be written, saves the normalized document.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Open
	job.SetStatus(StatusOpening, "opening")
	doc, err := w.engine.Load(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("open failed", "error", err)
		job.AddError(fmt.Sprintf("open: %s", err))
		job.SetStatus(StatusFailed, "opening")
		return
	}
	job.releaseFileData()
	job.SetContentHash(doc.Checksum)

	// Phase 2: Normalize and scan
	job.SetStatus(StatusNormalizing, "normalizing")
	opts := Options{
		StartAnchor: w.cfg.StartAnchor,
		EndAnchor:   w.cfg.EndAnchor,
		Passes:      w.cfg.PassOptions(),
		ReportDir:   w.cfg.ReportDir,
		RunID:       job.ID,
		OnPass:      job.RecordPass,
	}
	if job.StartAnchor != "" {
		opts.StartAnchor = job.StartAnchor
	}
	if job.EndAnchor != "" {
		opts.EndAnchor = job.EndAnchor
	}
	runner, err := NewRunner(doc, DefaultPasses(), opts, log)
	if err != nil {
		log.Error("runner setup failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "normalizing")
		return
	}
	job.SetPassesTotal(len(runner.Passes()))

	reportPath, runErr := runner.Execute(ctx)

	// Phase 3: Save the normalized document. QA failures still save so the
	// result can be inspected.
	var outputPath string
	if (runErr == nil || errors.Is(runErr, ErrQAFailed)) && doc.Modified() && engine.CanSave(job.Filename) {
		outputPath, err = w.save(doc, job)
		if err != nil {
			log.Error("save failed", "error", err)
			job.AddError(fmt.Sprintf("save: %s", err))
		}
	}
	job.SetResult(reportPath, outputPath)

	switch {
	case errors.Is(runErr, ErrQAFailed):
		log.Warn("QA failed", "error", runErr)
		job.SetStatus(StatusQAFailed, "done")
	case runErr != nil:
		log.Error("run failed", "error", runErr)
		job.AddError(runErr.Error())
		job.SetStatus(StatusFailed, "done")
	case runner.Report().Outcome() == report.Issues:
		job.SetStatus(StatusIssues, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

func (w *Worker) save(doc *layout.Document, job *Job) (string, error) {
	if w.cfg.OutputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(w.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.cfg.OutputDir, job.ID+"-"+textutil.SanitizeFilename(job.Filename))
	if err := w.engine.SaveAs(doc, path); err != nil {
		return "", err
	}
	return path, nil
}
