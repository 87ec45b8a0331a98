package extract

import (
	"context"

	"github.com/atlas-creative/content-engine/pkg/jina"
)

// JinaReader extracts text by sending the PDF through the Jina Reader API.
// It sits last in the chain as the remote fallback when no local tool works.
type JinaReader struct {
	client jina.Client
}

// NewJinaReader creates a JinaReader backend.
func NewJinaReader(client jina.Client) *JinaReader {
	return &JinaReader{client: client}
}

func (j *JinaReader) Name() string { return "jina-reader" }

// Available is always true when a client is configured; failures surface
// per-call and fall through like any other backend.
func (j *JinaReader) Available() bool { return j.client != nil }

func (j *JinaReader) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	return j.client.ReadFile(ctx, pdfPath)
}
