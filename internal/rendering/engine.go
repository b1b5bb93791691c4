package rendering

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Engine renders HTML to a PDF artifact. One engine instance is shared
// across a whole batch because startup is expensive; renders against a
// single engine are sequential, never concurrent.
type Engine interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
	Close()
}

// EngineFactory starts an engine. The batch renderer calls it once per batch
// so an engine startup failure degrades the batch instead of aborting it.
type EngineFactory func(ctx context.Context) (Engine, error)

// renderTimeout bounds a single document render.
const renderTimeout = 60 * time.Second

// ChromeEngine implements Engine on a headless Chrome instance kept alive
// for the duration of a batch.
type ChromeEngine struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// NewChromeEngine starts a headless Chrome and verifies it is usable.
// Requires Chrome/Chromium on the system; CHROME_PATH overrides discovery.
func NewChromeEngine(ctx context.Context) (Engine, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p := os.Getenv("CHROME_PATH"); p != "" {
		opts = append(opts, chromedp.ExecPath(p))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	engine := &ChromeEngine{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}

	// Force the browser process to start now so startup failures surface
	// here rather than on the first document.
	startCtx, cancel := context.WithTimeout(browserCtx, renderTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		engine.Close()
		return nil, &EngineError{Message: "failed to start headless browser", Cause: err}
	}

	log.Printf("[BROWSER] Headless browser started for batch rendering")
	return engine, nil
}

// RenderPDF prints one HTML document to an A4 PDF using the shared browser.
func (e *ChromeEngine) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "autopilot-render-")
	if err != nil {
		return nil, &RenderError{Message: "failed to create temp dir", Cause: err}
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := tmpDir + "/resume.html"
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return nil, &RenderError{Message: "failed to write html", Cause: err}
	}

	renderCtx, cancel := context.WithTimeout(e.browserCtx, renderTimeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		renderCtx, cancel = context.WithDeadline(e.browserCtx, deadline)
		defer cancel()
	}

	var pdfBuf []byte
	err = chromedp.Run(renderCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm in inches.
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, &RenderError{Message: "browser print failed", Cause: err}
	}

	return pdfBuf, nil
}

// Close tears down the browser and its allocator. Safe to call after a
// partial batch failure; resources are released either way.
func (e *ChromeEngine) Close() {
	for _, cancel := range e.cancels {
		cancel()
	}
}
