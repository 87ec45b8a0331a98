// Package ingest turns PDF files into indexed documents: extraction,
// normalization, classification, chunking, embedding, and persistence.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atlas-creative/content-engine/internal/chunker"
	"github.com/atlas-creative/content-engine/internal/classify"
	"github.com/atlas-creative/content-engine/internal/config"
	"github.com/atlas-creative/content-engine/internal/extract"
	"github.com/atlas-creative/content-engine/internal/model"
	"github.com/atlas-creative/content-engine/internal/normalize"
	"github.com/atlas-creative/content-engine/internal/store"
)

// Extractor produces raw text from a PDF. Satisfied by extract.Chain.
type Extractor interface {
	Probe() error
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// Embedder turns passages into vectors. Satisfied by jina.Client.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// PageMeta carries curated metadata for a single split page. It bypasses the
// filename heuristics: the caller already knows the client and title.
type PageMeta struct {
	Client       string
	Title        string
	Capabilities []string
	Industries   []string
}

// Result reports the outcome of ingesting one file.
type Result struct {
	Slug          string
	DocumentID    string
	ChunksWritten int
	AlreadyExists bool
}

// BatchSummary tallies a directory run.
type BatchSummary struct {
	Ingested int
	Skipped  int
	Failed   int
}

// Indexer ingests files into the store.
type Indexer struct {
	store     store.Store
	extractor Extractor
	embedder  Embedder
	cfg       config.IngestConfig
}

// New constructs an Indexer.
func New(st store.Store, extractor Extractor, embedder Embedder, cfg config.IngestConfig) *Indexer {
	return &Indexer{store: st, extractor: extractor, embedder: embedder, cfg: cfg}
}

// IngestFile ingests a standalone PDF as an article-type document. The slug
// derived from the filename is the idempotency key: an existing slug makes
// the whole call a no-op.
func (ix *Indexer) IngestFile(ctx context.Context, pdfPath string) (*Result, error) {
	filename := filepath.Base(pdfPath)
	title := classify.TitleFromFilename(filename)
	slug := classify.Slugify(title, classify.SlugMaxLen)

	existing, err := ix.store.GetDocumentBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		zap.L().Info("document already indexed, skipping",
			zap.String("slug", slug),
			zap.String("file", filename),
		)
		return &Result{Slug: slug, DocumentID: existing.ID, AlreadyExists: true}, nil
	}

	content, err := ix.extractAndNormalize(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	topics := classify.Topics(content, filename)
	doc := &model.Document{
		Title:      title,
		Slug:       slug,
		DocType:    model.DocTypeArticle,
		Summary:    classify.Summary(content),
		SourceFile: filename,
	}
	return ix.persist(ctx, doc, topics, content)
}

// IngestPage ingests a split case-study page with curated metadata. Slugs
// combine client and title so the same title can recur across clients.
func (ix *Indexer) IngestPage(ctx context.Context, pdfPath string, meta PageMeta) (*Result, error) {
	slug := classify.Slugify(meta.Client+" "+meta.Title, classify.ClientSlugMaxLen)

	existing, err := ix.store.GetDocumentBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		zap.L().Info("case study already indexed, skipping",
			zap.String("slug", slug),
			zap.String("client", meta.Client),
		)
		return &Result{Slug: slug, DocumentID: existing.ID, AlreadyExists: true}, nil
	}

	content, err := ix.extractAndNormalize(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Title:          meta.Title,
		Slug:           slug,
		DocType:        model.DocTypeCaseStudy,
		Summary:        classify.Summary(content),
		ClientName:     meta.Client,
		SourceFile:     filepath.Base(pdfPath),
		CapabilityTags: meta.Capabilities,
		IndustryTags:   meta.Industries,
	}
	return ix.persist(ctx, doc, []string{"case-study"}, content)
}

// IngestDirectory ingests every PDF in dir, paced to avoid hammering the
// embeddings API. Per-file failures are tallied, not fatal; an empty backend
// chain aborts before any work starts.
func (ix *Indexer) IngestDirectory(ctx context.Context, dir string) (*BatchSummary, error) {
	if err := ix.extractor.Probe(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read directory %s", dir)
	}

	var pdfs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		pdfs = append(pdfs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(pdfs)

	delay := time.Duration(ix.cfg.DocDelayMillis) * time.Millisecond
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)

	summary := &BatchSummary{}
	for _, path := range pdfs {
		if err := limiter.Wait(ctx); err != nil {
			return summary, eris.Wrap(err, "ingest: batch interrupted")
		}

		res, err := ix.IngestFile(ctx, path)
		if err != nil {
			summary.Failed++
			zap.L().Warn("failed to ingest file",
				zap.String("file", filepath.Base(path)),
				zap.Error(err),
			)
			continue
		}
		if res.AlreadyExists {
			summary.Skipped++
			continue
		}
		summary.Ingested++
		zap.L().Info("ingested document",
			zap.String("slug", res.Slug),
			zap.Int("chunks", res.ChunksWritten),
		)
	}

	zap.L().Info("batch complete",
		zap.Int("ingested", summary.Ingested),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (ix *Indexer) extractAndNormalize(ctx context.Context, pdfPath string) (string, error) {
	raw, err := ix.extractor.ExtractText(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	return normalize.Text(raw), nil
}

// persist writes the document, its topic links, and its embedded chunks.
// A chunk whose embedding or insert fails is skipped with a warning; the
// document itself stays indexed.
func (ix *Indexer) persist(ctx context.Context, doc *model.Document, topicSlugs []string, content string) (*Result, error) {
	if err := ix.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	for _, slug := range topicSlugs {
		topic, err := ix.store.EnsureTopic(ctx, classify.TopicName(slug), slug)
		if err != nil {
			return nil, err
		}
		if err := ix.store.LinkDocumentTopic(ctx, doc.ID, topic.ID); err != nil {
			return nil, err
		}
	}

	result := &Result{Slug: doc.Slug, DocumentID: doc.ID}
	for _, ch := range chunker.Split(content, ix.cfg.ChunkMaxChars, ix.cfg.ChunkMinChars) {
		vectors, err := ix.embedder.Embed(ctx, []string{truncate(ch.Text, ix.cfg.EmbedInputChars)})
		if err != nil {
			zap.L().Warn("failed to embed chunk",
				zap.String("slug", doc.Slug),
				zap.Int("chunk", ch.Index),
				zap.Error(err),
			)
			continue
		}

		chunk := &model.ContentChunk{
			DocumentID: doc.ID,
			Content:    ch.Text,
			ChunkIndex: ch.Index,
			ChunkType:  model.ChunkTypeText,
			Embedding:  vectors[0],
		}
		if err := ix.store.CreateChunk(ctx, chunk); err != nil {
			zap.L().Warn("failed to store chunk",
				zap.String("slug", doc.Slug),
				zap.Int("chunk", ch.Index),
				zap.Error(err),
			)
			continue
		}
		result.ChunksWritten++
	}
	return result, nil
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

var _ Extractor = (*extract.Chain)(nil)
