package split

import (
	"context"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/ingest"
	"github.com/atlas-creative/content-engine/internal/model"
)

// PageIngestor ingests a single split page. Satisfied by ingest.Indexer.
type PageIngestor interface {
	IngestPage(ctx context.Context, pdfPath string, meta ingest.PageMeta) (*ingest.Result, error)
}

// Summary tallies a split-ingest run. MissingPages lists descriptor rows
// whose page number the splitter never produced.
type Summary struct {
	Ingested     int
	Skipped      int
	Failed       int
	MissingPages []int
}

// SplitIngest splits pdfPath into pages and ingests each descriptor row as a
// case study. Splitting failures are fatal; per-page failures are tallied.
func SplitIngest(ctx context.Context, sp Splitter, ing PageIngestor, pdfPath string, specs []model.PageSpec) (*Summary, error) {
	destDir, err := os.MkdirTemp("", "split-pages-*")
	if err != nil {
		return nil, eris.Wrap(err, "split: create temp dir")
	}
	defer os.RemoveAll(destDir)

	pages, err := sp.Split(ctx, pdfPath, destDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, spec := range specs {
		pagePath, ok := pages[spec.Page]
		if !ok {
			summary.MissingPages = append(summary.MissingPages, spec.Page)
			zap.L().Warn("descriptor page not produced by splitter",
				zap.Int("page", spec.Page),
				zap.String("client", spec.Client),
			)
			continue
		}

		res, err := ing.IngestPage(ctx, pagePath, ingest.PageMeta{
			Client:       spec.Client,
			Title:        spec.Title,
			Capabilities: spec.Capabilities,
			Industries:   spec.Industries,
		})
		if err != nil {
			summary.Failed++
			zap.L().Warn("failed to ingest page",
				zap.Int("page", spec.Page),
				zap.String("client", spec.Client),
				zap.Error(err),
			)
			continue
		}
		if res.AlreadyExists {
			summary.Skipped++
			continue
		}
		summary.Ingested++
		zap.L().Info("ingested case study page",
			zap.Int("page", spec.Page),
			zap.String("slug", res.Slug),
			zap.Int("chunks", res.ChunksWritten),
		)
	}

	sort.Ints(summary.MissingPages)
	return summary, nil
}
