// Package document holds the types shared by ingestion, chunking, indexing
// and retrieval: chunk metadata, chunks, retrieved matches, and the
// Title/Source URL/Content header convention used by corpus files.
package document

import "unicode/utf8"

// Metadata travels with every chunk into the index and back out with every match.
type Metadata struct {
	Category     string `json:"category"`
	Filename     string `json:"filename"`
	Source       string `json:"source"`
	Title        string `json:"title,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
	TotalChunks  int    `json:"total_chunks"`
	OriginalSize int    `json:"original_size"`
}

// Chunk is a bounded unit of document text. Size is measured in characters.
type Chunk struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Size     int      `json:"size"`
}

// NewChunk builds a chunk with Size derived from content.
func NewChunk(content string, meta Metadata) Chunk {
	return Chunk{
		Content:  content,
		Metadata: meta,
		Size:     utf8.RuneCountInString(content),
	}
}

// Match is a chunk returned by the vector index together with its similarity.
// Higher scores are more relevant.
type Match struct {
	Score    float32  `json:"score"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}
