// Package model defines the core data types shared across the ingestion
// and retrieval pipeline.
package model

import "time"

// DocType classifies a document by its editorial kind.
type DocType string

const (
	DocTypeArticle   DocType = "article"
	DocTypeCaseStudy DocType = "case_study"
)

// Document is a unit of ingested content. The slug is the idempotency key:
// a document with an existing slug is never re-created.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	DocType        DocType   `json:"doc_type"`
	Summary        string    `json:"summary,omitempty"`
	ClientName     string    `json:"client_name,omitempty"`
	SourceFile     string    `json:"source_file,omitempty"`
	PDFURL         string    `json:"pdf_url,omitempty"`
	CapabilityTags []string  `json:"capability_tags,omitempty"`
	IndustryTags   []string  `json:"industry_tags,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// VisualAsset is an image or figure associated with a document. The pipeline
// treats it as an opaque, rankable unit owned by the retrieval store.
type VisualAsset struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
	Caption    string `json:"caption,omitempty"`
	AssetType  string `json:"asset_type,omitempty"`
}
