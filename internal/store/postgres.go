package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/atlas-creative/content-engine/internal/model"
)

// Pool abstracts pgxpool.Pool so tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool against Postgres + pgvector.
type PostgresStore struct {
	pool      Pool
	dimension int
	closeFn   func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, dimension int) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	if dimension <= 0 {
		dimension = 1024
	}
	return &PostgresStore{pool: pool, dimension: dimension, closeFn: pool.Close}, nil
}

const postgresMigrationTmpl = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	slug            TEXT NOT NULL UNIQUE,
	doc_type        TEXT NOT NULL,
	summary         TEXT,
	client_name     TEXT,
	source_file     TEXT,
	pdf_url         TEXT,
	capability_tags TEXT[],
	industry_tags   TEXT[],
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS topics (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS document_topics (
	document_id TEXT NOT NULL REFERENCES documents(id),
	topic_id    TEXT NOT NULL REFERENCES topics(id),
	PRIMARY KEY (document_id, topic_id)
);

CREATE TABLE IF NOT EXISTS content_chunks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	content     TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	chunk_type  TEXT NOT NULL DEFAULT 'text',
	embedding   vector(%d)
);

CREATE TABLE IF NOT EXISTS visual_assets (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	url         TEXT NOT NULL,
	caption     TEXT,
	asset_type  TEXT
);

CREATE INDEX IF NOT EXISTS idx_documents_slug ON documents(slug);
CREATE INDEX IF NOT EXISTS idx_documents_doc_type ON documents(doc_type);
CREATE INDEX IF NOT EXISTS idx_content_chunks_document_id ON content_chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_visual_assets_document_id ON visual_assets(document_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(postgresMigrationTmpl, s.dimension))
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) GetDocumentBySlug(ctx context.Context, slug string) (*model.Document, error) {
	var d model.Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, slug, doc_type, COALESCE(summary, ''), COALESCE(client_name, ''),
		        COALESCE(source_file, ''), COALESCE(pdf_url, ''), capability_tags, industry_tags, created_at
		 FROM documents WHERE slug = $1`,
		slug,
	).Scan(&d.ID, &d.Title, &d.Slug, &d.DocType, &d.Summary, &d.ClientName,
		&d.SourceFile, &d.PDFURL, &d.CapabilityTags, &d.IndustryTags, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get document by slug %s", slug)
	}
	return &d, nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents
		 (id, title, slug, doc_type, summary, client_name, source_file, pdf_url, capability_tags, industry_tags, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		doc.ID, doc.Title, doc.Slug, string(doc.DocType), doc.Summary, doc.ClientName,
		doc.SourceFile, doc.PDFURL, doc.CapabilityTags, doc.IndustryTags, doc.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert document %s", doc.Slug)
}

func (s *PostgresStore) UpdateDocumentPDFURL(ctx context.Context, docID, pdfURL string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET pdf_url = $1 WHERE id = $2`,
		pdfURL, docID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update pdf url %s", docID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", docID)
	}
	return nil
}

func (s *PostgresStore) ListCaseStudies(ctx context.Context) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, slug, doc_type, COALESCE(summary, ''), COALESCE(client_name, ''),
		        COALESCE(source_file, ''), COALESCE(pdf_url, ''), capability_tags, industry_tags, created_at
		 FROM documents WHERE doc_type = $1 ORDER BY created_at DESC`,
		string(model.DocTypeCaseStudy),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list case studies")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Slug, &d.DocType, &d.Summary, &d.ClientName,
			&d.SourceFile, &d.PDFURL, &d.CapabilityTags, &d.IndustryTags, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan case study")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list case studies iterate")
}

func (s *PostgresStore) EnsureTopic(ctx context.Context, name, slug string) (*model.Topic, error) {
	var t model.Topic
	// DO UPDATE is a no-op write that makes RETURNING yield the existing row.
	err := s.pool.QueryRow(ctx,
		`INSERT INTO topics (id, name, slug) VALUES ($1, $2, $3)
		 ON CONFLICT (slug) DO UPDATE SET name = topics.name
		 RETURNING id, name, slug`,
		uuid.New().String(), name, slug,
	).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: ensure topic %s", slug)
	}
	return &t, nil
}

func (s *PostgresStore) LinkDocumentTopic(ctx context.Context, docID, topicID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO document_topics (document_id, topic_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		docID, topicID,
	)
	return eris.Wrapf(err, "postgres: link document %s topic %s", docID, topicID)
}

func (s *PostgresStore) CreateChunk(ctx context.Context, chunk *model.ContentChunk) error {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	if chunk.ChunkType == "" {
		chunk.ChunkType = model.ChunkTypeText
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO content_chunks (id, document_id, content, chunk_index, chunk_type, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6::vector)`,
		chunk.ID, chunk.DocumentID, chunk.Content, chunk.ChunkIndex, chunk.ChunkType, encodeVector(chunk.Embedding),
	)
	return eris.Wrapf(err, "postgres: insert chunk %d for document %s", chunk.ChunkIndex, chunk.DocumentID)
}

func (s *PostgresStore) CreateVisualAsset(ctx context.Context, asset *model.VisualAsset) error {
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO visual_assets (id, document_id, url, caption, asset_type) VALUES ($1, $2, $3, $4, $5)`,
		asset.ID, asset.DocumentID, asset.URL, asset.Caption, asset.AssetType,
	)
	return eris.Wrapf(err, "postgres: insert visual asset for document %s", asset.DocumentID)
}

func (s *PostgresStore) SearchChunks(ctx context.Context, embedding []float32, filter ChunkFilter, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT c.id, c.document_id, c.content, c.chunk_index, c.chunk_type,
	                 1 - (c.embedding <=> $1::vector) AS score
	          FROM content_chunks c
	          JOIN documents d ON d.id = c.document_id
	          WHERE c.embedding IS NOT NULL`
	args := []any{encodeVector(embedding)}
	argIdx := 2

	if len(filter.Capabilities) > 0 {
		query += fmt.Sprintf(` AND d.capability_tags && $%d`, argIdx)
		args = append(args, filter.Capabilities)
		argIdx++
	}
	if len(filter.Industries) > 0 {
		query += fmt.Sprintf(` AND d.industry_tags && $%d`, argIdx)
		args = append(args, filter.Industries)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY c.embedding <=> $1::vector LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search chunks")
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var sc ScoredChunk
		if err := rows.Scan(&sc.Chunk.ID, &sc.Chunk.DocumentID, &sc.Chunk.Content,
			&sc.Chunk.ChunkIndex, &sc.Chunk.ChunkType, &sc.Score); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chunk")
		}
		results = append(results, sc)
	}
	return results, eris.Wrap(rows.Err(), "postgres: search chunks iterate")
}

func (s *PostgresStore) SearchAssets(ctx context.Context, rankedDocIDs []string, filter ChunkFilter, limit int) ([]model.VisualAsset, error) {
	if limit <= 0 {
		return nil, nil
	}

	var assets []model.VisualAsset

	if len(rankedDocIDs) > 0 {
		rows, err := s.pool.Query(ctx,
			`SELECT a.id, a.document_id, a.url, COALESCE(a.caption, ''), COALESCE(a.asset_type, '')
			 FROM visual_assets a
			 JOIN unnest($1::text[]) WITH ORDINALITY AS r(doc_id, rank) ON a.document_id = r.doc_id
			 ORDER BY r.rank
			 LIMIT $2`,
			rankedDocIDs, limit,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: search ranked assets")
		}
		defer rows.Close()

		for rows.Next() {
			var a model.VisualAsset
			if err := rows.Scan(&a.ID, &a.DocumentID, &a.URL, &a.Caption, &a.AssetType); err != nil {
				return nil, eris.Wrap(err, "postgres: scan asset")
			}
			assets = append(assets, a)
		}
		if err := rows.Err(); err != nil {
			return nil, eris.Wrap(err, "postgres: search ranked assets iterate")
		}
		if len(assets) >= limit {
			return assets[:limit], nil
		}
	}

	// Fill remaining slots from any other filter-matching documents.
	query := `SELECT a.id, a.document_id, a.url, COALESCE(a.caption, ''), COALESCE(a.asset_type, '')
	          FROM visual_assets a
	          JOIN documents d ON d.id = a.document_id
	          WHERE true`
	args := []any{}
	argIdx := 1

	if len(rankedDocIDs) > 0 {
		query += fmt.Sprintf(` AND a.document_id != ALL($%d::text[])`, argIdx)
		args = append(args, rankedDocIDs)
		argIdx++
	}
	if len(filter.Capabilities) > 0 {
		query += fmt.Sprintf(` AND d.capability_tags && $%d`, argIdx)
		args = append(args, filter.Capabilities)
		argIdx++
	}
	if len(filter.Industries) > 0 {
		query += fmt.Sprintf(` AND d.industry_tags && $%d`, argIdx)
		args = append(args, filter.Industries)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY d.created_at DESC LIMIT $%d`, argIdx)
	args = append(args, limit-len(assets))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search assets")
	}
	defer rows.Close()

	for rows.Next() {
		var a model.VisualAsset
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.URL, &a.Caption, &a.AssetType); err != nil {
			return nil, eris.Wrap(err, "postgres: scan asset")
		}
		assets = append(assets, a)
	}
	return assets, eris.Wrap(rows.Err(), "postgres: search assets iterate")
}
