package split

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"

	"github.com/rotisserie/eris"
)

func runSplitCmd(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "split: %s failed: %s", name, stderr.String())
	}
	return nil
}

// PdfSeparate splits PDFs using the poppler pdfseparate CLI tool.
type PdfSeparate struct {
	binPath string
}

// NewPdfSeparate creates a PdfSeparate backend. If binPath is empty,
// "pdfseparate" is used.
func NewPdfSeparate(binPath string) *PdfSeparate {
	if binPath == "" {
		binPath = "pdfseparate"
	}
	return &PdfSeparate{binPath: binPath}
}

func (p *PdfSeparate) Name() string { return "pdfseparate" }

func (p *PdfSeparate) Available() bool {
	_, err := exec.LookPath(p.binPath)
	return err == nil
}

func (p *PdfSeparate) SplitPages(ctx context.Context, pdfPath, destDir string) error {
	pattern := filepath.Join(destDir, "page-%d.pdf")
	return runSplitCmd(ctx, p.binPath, pdfPath, pattern)
}

// MutoolSplit splits PDFs using mupdf's mutool convert.
type MutoolSplit struct {
	binPath string
}

// NewMutoolSplit creates a MutoolSplit backend. If binPath is empty,
// "mutool" is used.
func NewMutoolSplit(binPath string) *MutoolSplit {
	if binPath == "" {
		binPath = "mutool"
	}
	return &MutoolSplit{binPath: binPath}
}

func (m *MutoolSplit) Name() string { return "mutool" }

func (m *MutoolSplit) Available() bool {
	_, err := exec.LookPath(m.binPath)
	return err == nil
}

func (m *MutoolSplit) SplitPages(ctx context.Context, pdfPath, destDir string) error {
	pattern := filepath.Join(destDir, "page-%d.pdf")
	return runSplitCmd(ctx, m.binPath, "convert", "-o", pattern, pdfPath)
}

// Qpdf splits PDFs using the qpdf CLI tool.
type Qpdf struct {
	binPath string
}

// NewQpdf creates a Qpdf backend. If binPath is empty, "qpdf" is used.
func NewQpdf(binPath string) *Qpdf {
	if binPath == "" {
		binPath = "qpdf"
	}
	return &Qpdf{binPath: binPath}
}

func (q *Qpdf) Name() string { return "qpdf" }

func (q *Qpdf) Available() bool {
	_, err := exec.LookPath(q.binPath)
	return err == nil
}

func (q *Qpdf) SplitPages(ctx context.Context, pdfPath, destDir string) error {
	pattern := filepath.Join(destDir, "page-%d.pdf")
	return runSplitCmd(ctx, q.binPath, "--split-pages=1", pdfPath, pattern)
}
