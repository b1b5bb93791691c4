package rendering

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/job-autopilot/internal/types"
)

// BatchRenderer renders a batch of tailored resumes to PDF files using one
// shared engine instance. Per-document failures are isolated; an engine
// startup failure degrades the whole batch to "no artifacts" instead of
// failing the caller, since rendering is a value-add rather than a blocking
// pipeline requirement.
type BatchRenderer struct {
	newEngine EngineFactory
	outputDir string
	now       func() time.Time
}

// NewBatchRenderer creates a renderer writing artifacts into outputDir.
func NewBatchRenderer(factory EngineFactory, outputDir string) *BatchRenderer {
	return &BatchRenderer{
		newEngine: factory,
		outputDir: outputDir,
		now:       time.Now,
	}
}

// RenderBatch renders each CVResult that carries a tailored CV, setting
// DocumentPath/HasDocument in place on success. It always returns one entry
// per input and never aborts early.
func (b *BatchRenderer) RenderBatch(ctx context.Context, owner string, results []types.CVResult, jobs map[string]types.JobCandidate) []types.CVResult {
	if len(results) == 0 {
		return results
	}

	engine, err := b.newEngine(ctx)
	if err != nil {
		log.Printf("[render] engine startup failed, batch degrades to no artifacts: %v", err)
		return results
	}
	defer engine.Close()

	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		log.Printf("[render] cannot create output dir %s: %v", b.outputDir, err)
		return results
	}

	rendered := 0
	for i := range results {
		result := &results[i]
		if result.CV == nil || result.Error != "" {
			continue
		}

		company := result.JobID
		if job, ok := jobs[result.JobID]; ok {
			company = job.Company
		}

		path, err := b.renderOne(ctx, engine, owner, company+"_"+result.JobID, result.CV)
		if err != nil {
			log.Printf("[render] document failed for job %s: %v", result.JobID, err)
			continue
		}

		result.DocumentPath = path
		result.HasDocument = true
		rendered++
	}

	log.Printf("[render] batch complete: %d of %d documents rendered", rendered, len(results))
	return results
}

// renderOne renders a single resume and writes it to disk.
func (b *BatchRenderer) renderOne(ctx context.Context, engine Engine, owner, company string, cv *types.TailoredCV) (string, error) {
	html, err := RenderHTML(cv)
	if err != nil {
		return "", err
	}

	pdf, err := engine.RenderPDF(ctx, html)
	if err != nil {
		return "", err
	}

	path := filepath.Join(b.outputDir, DocumentFilename(owner, company, b.now()))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", &RenderError{Message: "failed to write pdf", Cause: err}
	}
	return path, nil
}
