// Package store persists documents, topics, chunks, and visual assets, and
// serves similarity search over chunk embeddings.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/atlas-creative/content-engine/internal/config"
	"github.com/atlas-creative/content-engine/internal/model"
)

// ChunkFilter restricts search to documents matching every provided tag set.
// Filters are conjunctive; an empty slice means "no constraint".
type ChunkFilter struct {
	Capabilities []string
	Industries   []string
}

// ScoredChunk is a chunk with its similarity score, best match first.
type ScoredChunk struct {
	Chunk model.ContentChunk
	Score float64
}

// Store defines the persistence interface for the content pipeline.
type Store interface {
	// Documents
	GetDocumentBySlug(ctx context.Context, slug string) (*model.Document, error)
	CreateDocument(ctx context.Context, doc *model.Document) error
	UpdateDocumentPDFURL(ctx context.Context, docID, pdfURL string) error
	ListCaseStudies(ctx context.Context) ([]model.Document, error)

	// Topics
	EnsureTopic(ctx context.Context, name, slug string) (*model.Topic, error)
	LinkDocumentTopic(ctx context.Context, docID, topicID string) error

	// Chunks and assets
	CreateChunk(ctx context.Context, chunk *model.ContentChunk) error
	CreateVisualAsset(ctx context.Context, asset *model.VisualAsset) error

	// Retrieval. SearchChunks returns at most limit chunks ranked by cosine
	// similarity to the query embedding, restricted by the filter.
	// SearchAssets returns at most limit assets, preferring assets owned by
	// rankedDocIDs in the given order, then other filter-matching documents.
	SearchChunks(ctx context.Context, embedding []float32, filter ChunkFilter, limit int) ([]ScoredChunk, error)
	SearchAssets(ctx context.Context, rankedDocIDs []string, filter ChunkFilter, limit int) ([]model.VisualAsset, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New constructs a Store from config.
func New(ctx context.Context, cfg config.StoreConfig, dimension int) (Store, error) {
	switch cfg.Driver {
	case "postgres", "":
		return NewPostgres(ctx, cfg.DatabaseURL, dimension)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
