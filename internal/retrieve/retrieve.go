// Package retrieve assembles a bounded context bundle of relevant chunks and
// visual assets for a query.
package retrieve

import (
	"context"

	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/config"
	"github.com/atlas-creative/content-engine/internal/model"
	"github.com/atlas-creative/content-engine/internal/store"
)

// Embedder turns a query into a vector. Satisfied by jina.Client.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Filters restrict retrieval to documents overlapping each provided tag set.
type Filters struct {
	Capabilities []string `json:"capabilities,omitempty"`
	Industries   []string `json:"industries,omitempty"`
}

// Bundle is the retrieved context: ranked chunks and the assets of their
// owning documents. Empty slices are a valid outcome.
type Bundle struct {
	Chunks []store.ScoredChunk
	Assets []model.VisualAsset
}

// Retriever answers queries against the chunk index.
type Retriever struct {
	store    store.Store
	embedder Embedder
	cfg      config.RetrievalConfig
	maxInput int
}

// New constructs a Retriever. embedInputChars caps the query text sent to
// the embeddings API.
func New(st store.Store, embedder Embedder, cfg config.RetrievalConfig, embedInputChars int) *Retriever {
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = 8
	}
	if cfg.MaxAssets <= 0 {
		cfg.MaxAssets = 4
	}
	if embedInputChars <= 0 {
		embedInputChars = 8000
	}
	return &Retriever{store: st, embedder: embedder, cfg: cfg, maxInput: embedInputChars}
}

// Retrieve embeds the query and returns at most maxChunks chunks and
// maxAssets assets. Zero or negative maxima fall back to configured defaults.
func (r *Retriever) Retrieve(ctx context.Context, query string, f Filters, maxChunks, maxAssets int) (*Bundle, error) {
	if maxChunks <= 0 {
		maxChunks = r.cfg.MaxChunks
	}
	if maxAssets <= 0 {
		maxAssets = r.cfg.MaxAssets
	}

	input := query
	if len(input) > r.maxInput {
		input = input[:r.maxInput]
	}
	vectors, err := r.embedder.Embed(ctx, []string{input})
	if err != nil {
		return nil, err
	}

	filter := store.ChunkFilter{Capabilities: f.Capabilities, Industries: f.Industries}
	chunks, err := r.store.SearchChunks(ctx, vectors[0], filter, maxChunks)
	if err != nil {
		return nil, err
	}

	assets, err := r.store.SearchAssets(ctx, rankedDocIDs(chunks), filter, maxAssets)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("retrieved context bundle",
		zap.Int("chunks", len(chunks)),
		zap.Int("assets", len(assets)),
	)
	return &Bundle{Chunks: chunks, Assets: assets}, nil
}

// rankedDocIDs returns the unique owning document IDs in chunk rank order.
func rankedDocIDs(chunks []store.ScoredChunk) []string {
	seen := make(map[string]bool, len(chunks))
	var ids []string
	for _, sc := range chunks {
		if seen[sc.Chunk.DocumentID] {
			continue
		}
		seen[sc.Chunk.DocumentID] = true
		ids = append(ids, sc.Chunk.DocumentID)
	}
	return ids
}
