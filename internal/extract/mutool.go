package extract

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Mutool extracts text from PDFs using the mupdf mutool CLI tool.
type Mutool struct {
	binPath string
}

// NewMutool creates a Mutool backend. If binPath is empty, "mutool" is used.
func NewMutool(binPath string) *Mutool {
	if binPath == "" {
		binPath = "mutool"
	}
	return &Mutool{binPath: binPath}
}

func (m *Mutool) Name() string { return "mutool" }

func (m *Mutool) Available() bool {
	_, err := exec.LookPath(m.binPath)
	return err == nil
}

// ExtractText runs mutool draw in text mode and returns stdout.
func (m *Mutool) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, m.binPath, "draw", "-F", "text", "-o", "-", pdfPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "extract: mutool failed for %s: %s", pdfPath, stderr.String())
	}

	return stdout.String(), nil
}
