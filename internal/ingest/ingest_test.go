package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-creative/content-engine/internal/config"
	"github.com/atlas-creative/content-engine/internal/model"
	"github.com/atlas-creative/content-engine/internal/store"
)

type fakeExtractor struct {
	text     string
	err      error
	probeErr error
	calls    int
}

func (f *fakeExtractor) Probe() error { return f.probeErr }

func (f *fakeExtractor) ExtractText(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1, 0}
	}
	return out, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		ChunkMaxChars:   1500,
		ChunkMinChars:   50,
		DocDelayMillis:  1,
		EmbedInputChars: 8000,
	}
}

const sampleText = `ACME REBRAND CASE STUDY

We partnered with Acme to rebuild their brand identity from the ground up,
starting with positioning workshops and ending with a full visual language.

The result was a 40% lift in qualified pipeline within two quarters, driven
by clearer messaging and a website that finally matched the product.`

func TestIngestFileCreatesDocumentAndChunks(t *testing.T) {
	s := newTestStore(t)
	ext := &fakeExtractor{text: sampleText}
	emb := &fakeEmbedder{}
	ix := New(s, ext, emb, testIngestConfig())

	res, err := ix.IngestFile(context.Background(), "/in/Acme_Rebrand_Case_Study.pdf")
	require.NoError(t, err)
	assert.False(t, res.AlreadyExists)
	assert.Equal(t, "acme-rebrand-case-study", res.Slug)
	assert.Greater(t, res.ChunksWritten, 0)
	assert.Equal(t, res.ChunksWritten, emb.calls)

	doc, err := s.GetDocumentBySlug(context.Background(), res.Slug)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, model.DocTypeArticle, doc.DocType)
	assert.Equal(t, "Acme Rebrand Case Study", doc.Title)
	assert.Contains(t, doc.Summary, "We partnered with Acme")
}

func TestIngestFileIdempotent(t *testing.T) {
	s := newTestStore(t)
	ext := &fakeExtractor{text: sampleText}
	ix := New(s, ext, &fakeEmbedder{}, testIngestConfig())

	first, err := ix.IngestFile(context.Background(), "/in/Acme_Rebrand.pdf")
	require.NoError(t, err)
	require.False(t, first.AlreadyExists)

	extractCallsAfterFirst := ext.calls
	second, err := ix.IngestFile(context.Background(), "/in/Acme_Rebrand.pdf")
	require.NoError(t, err)
	assert.True(t, second.AlreadyExists)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, 0, second.ChunksWritten)
	// Existing slug short-circuits before extraction.
	assert.Equal(t, extractCallsAfterFirst, ext.calls)
}

func TestIngestFileExtractionFailure(t *testing.T) {
	s := newTestStore(t)
	ext := &fakeExtractor{err: eris.New("boom")}
	ix := New(s, ext, &fakeEmbedder{}, testIngestConfig())

	_, err := ix.IngestFile(context.Background(), "/in/broken.pdf")
	require.Error(t, err)

	doc, err := s.GetDocumentBySlug(context.Background(), "broken")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestIngestFileEmbedFailureKeepsDocument(t *testing.T) {
	s := newTestStore(t)
	ix := New(s, &fakeExtractor{text: sampleText}, &fakeEmbedder{err: eris.New("api down")}, testIngestConfig())

	res, err := ix.IngestFile(context.Background(), "/in/Acme_Rebrand.pdf")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ChunksWritten)

	doc, err := s.GetDocumentBySlug(context.Background(), res.Slug)
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestIngestPageUsesCuratedMetadata(t *testing.T) {
	s := newTestStore(t)
	ix := New(s, &fakeExtractor{text: sampleText}, &fakeEmbedder{}, testIngestConfig())

	res, err := ix.IngestPage(context.Background(), "/pages/page-03.pdf", PageMeta{
		Client:       "CrowdStrike",
		Title:        "Marketecture & Product Portfolio",
		Capabilities: []string{"product-marketing"},
		Industries:   []string{"cybersecurity"},
	})
	require.NoError(t, err)
	assert.Equal(t, "crowdstrike-marketecture-product-portfolio", res.Slug)

	doc, err := s.GetDocumentBySlug(context.Background(), res.Slug)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, model.DocTypeCaseStudy, doc.DocType)
	assert.Equal(t, "CrowdStrike", doc.ClientName)
	assert.Equal(t, []string{"product-marketing"}, doc.CapabilityTags)
	assert.Equal(t, []string{"cybersecurity"}, doc.IndustryTags)
}

func TestIngestPageSlugCapped(t *testing.T) {
	s := newTestStore(t)
	ix := New(s, &fakeExtractor{text: sampleText}, &fakeEmbedder{}, testIngestConfig())

	res, err := ix.IngestPage(context.Background(), "/pages/page-01.pdf", PageMeta{
		Client: "A Very Long Client Name Incorporated Holdings International",
		Title:  "An Equally Long Title About Brand Strategy And Positioning Workshops",
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Slug), 80)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.pdf", "two.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}

	s := newTestStore(t)
	ix := New(s, &fakeExtractor{text: sampleText}, &fakeEmbedder{}, testIngestConfig())

	summary, err := ix.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	// Both PDFs normalize to the same extracted text but different slugs.
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	// Re-running the same directory skips everything.
	summary, err = ix.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Ingested)
	assert.Equal(t, 2, summary.Skipped)
}

func TestIngestDirectoryProbeFailureAborts(t *testing.T) {
	s := newTestStore(t)
	ix := New(s, &fakeExtractor{probeErr: eris.New("no backends")}, &fakeEmbedder{}, testIngestConfig())

	_, err := ix.IngestDirectory(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestIngestDirectoryToleratesPerFileFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scanned.pdf"), []byte("%PDF-1.4"), 0o644))

	s := newTestStore(t)
	ix := New(s, &fakeExtractor{err: eris.New("image only")}, &fakeEmbedder{}, testIngestConfig())

	summary, err := ix.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Ingested)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcd", 2))
	assert.Equal(t, "abcd", truncate("abcd", 0))
	assert.Equal(t, strings.Repeat("x", 5), truncate(strings.Repeat("x", 9), 5))
}
