// Package split separates multi-page PDFs into single-page files and drives
// per-page case-study ingestion from a page descriptor table.
package split

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/config"
)

// ErrNoSplitter reports that no splitting backend is installed. Fatal for a
// split-ingest run.
var ErrNoSplitter = eris.New("split: no splitting backend available")

// Splitter splits a PDF into one file per page and returns a map from
// 1-based page number to the produced file path.
type Splitter interface {
	Split(ctx context.Context, pdfPath, destDir string) (map[int]string, error)
}

// Backend is a single external splitting tool.
type Backend interface {
	Name() string
	Available() bool
	SplitPages(ctx context.Context, pdfPath, destDir string) error
}

// Chain picks the first available backend. Backend order is fixed:
// pdfseparate, then mutool, then qpdf.
type Chain struct {
	backends []Backend
	timeout  time.Duration
}

// NewChain builds the splitting chain from config.
func NewChain(cfg config.SplitConfig) *Chain {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Chain{
		backends: []Backend{
			NewPdfSeparate(cfg.PdfSeparatePath),
			NewMutoolSplit(cfg.MutoolPath),
			NewQpdf(cfg.QpdfPath),
		},
		timeout: timeout,
	}
}

// newChainWithBackends is the test seam.
func newChainWithBackends(backends []Backend, timeout time.Duration) *Chain {
	return &Chain{backends: backends, timeout: timeout}
}

// Probe reports whether any backend is available.
func (c *Chain) Probe() error {
	for _, b := range c.backends {
		if b.Available() {
			return nil
		}
	}
	return ErrNoSplitter
}

var pageFileRe = regexp.MustCompile(`^page-(\d+)\.pdf$`)

// Split runs the first available backend and scans destDir for the page
// files it produced.
func (c *Chain) Split(ctx context.Context, pdfPath, destDir string) (map[int]string, error) {
	var backend Backend
	for _, b := range c.backends {
		if b.Available() {
			backend = b
			break
		}
	}
	if backend == nil {
		return nil, ErrNoSplitter
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "split: create dest dir %s", destDir)
	}

	splitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	zap.L().Debug("splitting pdf",
		zap.String("backend", backend.Name()),
		zap.String("pdf", pdfPath),
	)
	if err := backend.SplitPages(splitCtx, pdfPath, destDir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return nil, eris.Wrapf(err, "split: read dest dir %s", destDir)
	}

	pages := make(map[int]string)
	for _, e := range entries {
		m := pageFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		pages[n] = filepath.Join(destDir, e.Name())
	}
	if len(pages) == 0 {
		return nil, eris.Errorf("split: %s produced no pages for %s", backend.Name(), pdfPath)
	}
	return pages, nil
}
