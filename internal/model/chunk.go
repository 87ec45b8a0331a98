package model

// ChunkTypeText is the only chunk type produced by the text pipeline.
const ChunkTypeText = "text"

// ContentChunk is an ordered passage of a document's normalized text.
// ChunkIndex is assigned before sub-minimum fragments are dropped, so stored
// indices may have gaps; order remains significant.
type ContentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	ChunkType  string    `json:"chunk_type"`
	Embedding  []float32 `json:"-"`
}
