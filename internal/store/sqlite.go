package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/atlas-creative/content-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Embeddings are
// stored as JSON and similarity is ranked in Go, which is fine at the scale
// of a local or development index.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	slug            TEXT NOT NULL UNIQUE,
	doc_type        TEXT NOT NULL,
	summary         TEXT NOT NULL DEFAULT '',
	client_name     TEXT NOT NULL DEFAULT '',
	source_file     TEXT NOT NULL DEFAULT '',
	pdf_url         TEXT NOT NULL DEFAULT '',
	capability_tags TEXT NOT NULL DEFAULT '[]',
	industry_tags   TEXT NOT NULL DEFAULT '[]',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
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
	embedding   TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS visual_assets (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	url         TEXT NOT NULL,
	caption     TEXT NOT NULL DEFAULT '',
	asset_type  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_slug ON documents(slug);
CREATE INDEX IF NOT EXISTS idx_documents_doc_type ON documents(doc_type);
CREATE INDEX IF NOT EXISTS idx_content_chunks_document_id ON content_chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_visual_assets_document_id ON visual_assets(document_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func unmarshalTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || len(tags) == 0 {
		return nil
	}
	return tags
}

func (s *SQLiteStore) GetDocumentBySlug(ctx context.Context, slug string) (*model.Document, error) {
	var d model.Document
	var capTags, indTags string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, slug, doc_type, summary, client_name, source_file, pdf_url,
		        capability_tags, industry_tags, created_at
		 FROM documents WHERE slug = ?`,
		slug,
	).Scan(&d.ID, &d.Title, &d.Slug, &d.DocType, &d.Summary, &d.ClientName,
		&d.SourceFile, &d.PDFURL, &capTags, &indTags, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get document by slug %s", slug)
	}
	d.CapabilityTags = unmarshalTags(capTags)
	d.IndustryTags = unmarshalTags(indTags)
	return &d, nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents
		 (id, title, slug, doc_type, summary, client_name, source_file, pdf_url, capability_tags, industry_tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Slug, string(doc.DocType), doc.Summary, doc.ClientName,
		doc.SourceFile, doc.PDFURL, marshalTags(doc.CapabilityTags), marshalTags(doc.IndustryTags), doc.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert document %s", doc.Slug)
}

func (s *SQLiteStore) UpdateDocumentPDFURL(ctx context.Context, docID, pdfURL string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET pdf_url = ? WHERE id = ?`,
		pdfURL, docID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update pdf url %s", docID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("document not found: %s", docID)
	}
	return nil
}

func (s *SQLiteStore) ListCaseStudies(ctx context.Context) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, slug, doc_type, summary, client_name, source_file, pdf_url,
		        capability_tags, industry_tags, created_at
		 FROM documents WHERE doc_type = ? ORDER BY created_at DESC`,
		string(model.DocTypeCaseStudy),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list case studies")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var capTags, indTags string
		if err := rows.Scan(&d.ID, &d.Title, &d.Slug, &d.DocType, &d.Summary, &d.ClientName,
			&d.SourceFile, &d.PDFURL, &capTags, &indTags, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan case study")
		}
		d.CapabilityTags = unmarshalTags(capTags)
		d.IndustryTags = unmarshalTags(indTags)
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list case studies iterate")
}

func (s *SQLiteStore) EnsureTopic(ctx context.Context, name, slug string) (*model.Topic, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (id, name, slug) VALUES (?, ?, ?) ON CONFLICT (slug) DO NOTHING`,
		uuid.New().String(), name, slug,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: ensure topic %s", slug)
	}

	var t model.Topic
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM topics WHERE slug = ?`, slug,
	).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get topic %s", slug)
	}
	return &t, nil
}

func (s *SQLiteStore) LinkDocumentTopic(ctx context.Context, docID, topicID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_topics (document_id, topic_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		docID, topicID,
	)
	return eris.Wrapf(err, "sqlite: link document %s topic %s", docID, topicID)
}

func (s *SQLiteStore) CreateChunk(ctx context.Context, chunk *model.ContentChunk) error {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	if chunk.ChunkType == "" {
		chunk.ChunkType = model.ChunkTypeText
	}

	emb, err := json.Marshal(chunk.Embedding)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal embedding")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO content_chunks (id, document_id, content, chunk_index, chunk_type, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.DocumentID, chunk.Content, chunk.ChunkIndex, chunk.ChunkType, string(emb),
	)
	return eris.Wrapf(err, "sqlite: insert chunk %d for document %s", chunk.ChunkIndex, chunk.DocumentID)
}

func (s *SQLiteStore) CreateVisualAsset(ctx context.Context, asset *model.VisualAsset) error {
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visual_assets (id, document_id, url, caption, asset_type) VALUES (?, ?, ?, ?, ?)`,
		asset.ID, asset.DocumentID, asset.URL, asset.Caption, asset.AssetType,
	)
	return eris.Wrapf(err, "sqlite: insert visual asset for document %s", asset.DocumentID)
}

func (s *SQLiteStore) SearchChunks(ctx context.Context, embedding []float32, filter ChunkFilter, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, c.content, c.chunk_index, c.chunk_type, c.embedding,
		        d.capability_tags, d.industry_tags
		 FROM content_chunks c
		 JOIN documents d ON d.id = c.document_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search chunks")
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var sc ScoredChunk
		var embJSON, capTags, indTags string
		if err := rows.Scan(&sc.Chunk.ID, &sc.Chunk.DocumentID, &sc.Chunk.Content,
			&sc.Chunk.ChunkIndex, &sc.Chunk.ChunkType, &embJSON, &capTags, &indTags); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan chunk")
		}
		if !tagsOverlap(unmarshalTags(capTags), filter.Capabilities) {
			continue
		}
		if !tagsOverlap(unmarshalTags(indTags), filter.Industries) {
			continue
		}

		var emb []float32
		if err := json.Unmarshal([]byte(embJSON), &emb); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal embedding")
		}
		sc.Score = cosineSimilarity(embedding, emb)
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: search chunks iterate")
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *SQLiteStore) SearchAssets(ctx context.Context, rankedDocIDs []string, filter ChunkFilter, limit int) ([]model.VisualAsset, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.document_id, a.url, a.caption, a.asset_type,
		        d.capability_tags, d.industry_tags, d.created_at
		 FROM visual_assets a
		 JOIN documents d ON d.id = a.document_id
		 ORDER BY d.created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search assets")
	}
	defer rows.Close()

	type candidate struct {
		asset model.VisualAsset
		caps  []string
		inds  []string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var capTags, indTags string
		var createdAt time.Time
		if err := rows.Scan(&c.asset.ID, &c.asset.DocumentID, &c.asset.URL, &c.asset.Caption,
			&c.asset.AssetType, &capTags, &indTags, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan asset")
		}
		c.caps = unmarshalTags(capTags)
		c.inds = unmarshalTags(indTags)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: search assets iterate")
	}

	rank := make(map[string]int, len(rankedDocIDs))
	for i, id := range rankedDocIDs {
		rank[id] = i
	}

	var ranked, rest []model.VisualAsset
	for _, c := range candidates {
		if _, ok := rank[c.asset.DocumentID]; ok {
			ranked = append(ranked, c.asset)
			continue
		}
		if tagsOverlap(c.caps, filter.Capabilities) && tagsOverlap(c.inds, filter.Industries) {
			rest = append(rest, c.asset)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return rank[ranked[i].DocumentID] < rank[ranked[j].DocumentID]
	})

	out := append(ranked, rest...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
