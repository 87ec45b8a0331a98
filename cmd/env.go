package main

import (
	"context"

	"github.com/atlas-creative/content-engine/internal/extract"
	"github.com/atlas-creative/content-engine/internal/ingest"
	"github.com/atlas-creative/content-engine/internal/store"
	"github.com/atlas-creative/content-engine/pkg/jina"
)

// env holds the shared clients the commands build their pipelines from.
type env struct {
	store store.Store
	jina  jina.Client
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := store.New(ctx, cfg.Store, cfg.Jina.Dimension)
	if err != nil {
		return nil, err
	}
	return &env{store: st, jina: newJinaClient()}, nil
}

func (e *env) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

func newJinaClient() jina.Client {
	return jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithReadBaseURL(cfg.Jina.ReadBaseURL),
		jina.WithModel(cfg.Jina.Model),
		jina.WithDimensions(cfg.Jina.Dimension),
	)
}

func newIndexer(e *env) *ingest.Indexer {
	chain := extract.NewChain(cfg.Extract, e.jina)
	return ingest.New(e.store, chain, e.jina, cfg.Ingest)
}
