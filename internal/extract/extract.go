// Package extract converts PDF files into raw text via a prioritized chain
// of external backends.
package extract

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/config"
	"github.com/atlas-creative/content-engine/pkg/jina"
)

// ErrNoText reports that every backend failed or produced insufficient text.
// Callers treat it as a per-document failure, not a batch abort.
var ErrNoText = eris.New("extract: no backend produced usable text")

// ErrNoBackend reports that no extraction backend is available at all.
// This is fatal for a batch run.
var ErrNoBackend = eris.New("extract: no extraction backend available")

// Backend extracts text from a single PDF.
type Backend interface {
	Name() string
	Available() bool
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// Chain tries each backend in priority order and returns the first result
// that meets the minimum-content threshold within the time and size budget.
type Chain struct {
	backends  []Backend
	timeout   time.Duration
	maxOutput int
	minChars  int

	cacheHit bool
	mu       sync.Mutex
	cached   Backend
}

// NewChain builds the extraction chain from config. Backend order is fixed:
// pdftotext, then mutool, then the Jina reader when a key is configured.
func NewChain(cfg config.ExtractConfig, jinaClient jina.Client) *Chain {
	backends := []Backend{
		NewPdfToText(cfg.PdfToTextPath),
		NewMutool(cfg.MutoolPath),
	}
	if jinaClient != nil {
		backends = append(backends, NewJinaReader(jinaClient))
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxOutput := cfg.MaxOutputMB * 1024 * 1024
	if maxOutput <= 0 {
		maxOutput = 10 * 1024 * 1024
	}
	minChars := cfg.MinTextChars
	if minChars <= 0 {
		minChars = 100
	}

	return &Chain{
		backends:  backends,
		timeout:   timeout,
		maxOutput: maxOutput,
		minChars:  minChars,
		cacheHit:  cfg.CacheBackend,
	}
}

// newChainWithBackends is the test seam.
func newChainWithBackends(backends []Backend, timeout time.Duration, maxOutput, minChars int, cache bool) *Chain {
	return &Chain{backends: backends, timeout: timeout, maxOutput: maxOutput, minChars: minChars, cacheHit: cache}
}

// Probe reports whether any backend is available. Commands use it to fail
// fast before starting a batch.
func (c *Chain) Probe() error {
	for _, b := range c.backends {
		if b.Available() {
			return nil
		}
	}
	return ErrNoBackend
}

// ExtractText runs the backend chain for one PDF.
func (c *Chain) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	if cached := c.cachedBackend(); cached != nil {
		text, err := c.attempt(ctx, cached, pdfPath)
		if err == nil {
			return text, nil
		}
		zap.L().Warn("cached extraction backend failed, re-probing chain",
			zap.String("backend", cached.Name()),
			zap.Error(err),
		)
		c.setCached(nil)
	}

	for _, b := range c.backends {
		if !b.Available() {
			continue
		}
		text, err := c.attempt(ctx, b, pdfPath)
		if err != nil {
			zap.L().Debug("extraction backend failed",
				zap.String("backend", b.Name()),
				zap.String("pdf", pdfPath),
				zap.Error(err),
			)
			continue
		}
		if c.cacheHit {
			c.setCached(b)
		}
		return text, nil
	}

	return "", ErrNoText
}

func (c *Chain) attempt(ctx context.Context, b Backend, pdfPath string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := b.ExtractText(attemptCtx, pdfPath)
	if err != nil {
		return "", err
	}
	if len(text) > c.maxOutput {
		return "", eris.Errorf("extract: %s output %d bytes exceeds ceiling %d", b.Name(), len(text), c.maxOutput)
	}
	if len(strings.TrimSpace(text)) < c.minChars {
		return "", eris.Errorf("extract: %s produced %d chars, below minimum %d", b.Name(), len(strings.TrimSpace(text)), c.minChars)
	}
	return text, nil
}

func (c *Chain) cachedBackend() Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cached
}

func (c *Chain) setCached(b Backend) {
	c.mu.Lock()
	c.cached = b
	c.mu.Unlock()
}
