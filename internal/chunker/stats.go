package chunker

import "github.com/Yates-Labs/beacon/internal/document"

// Stats summarises chunk sizes for a document or a whole corpus.
type Stats struct {
	Total       int     `json:"total_chunks"`
	AverageSize float64 `json:"average_size"`
	MinSize     int     `json:"min_size"`
	MaxSize     int     `json:"max_size"`
	// BelowMin counts chunks smaller than MinChunkSize.
	BelowMin int `json:"below_min"`
}

// Stats reports size statistics for chunks. An empty slice gives zero values.
func (c *Chunker) Stats(chunks []document.Chunk) Stats {
	if len(chunks) == 0 {
		return Stats{}
	}

	s := Stats{
		Total:   len(chunks),
		MinSize: chunks[0].Size,
		MaxSize: chunks[0].Size,
	}
	sum := 0
	for _, ch := range chunks {
		sum += ch.Size
		if ch.Size < s.MinSize {
			s.MinSize = ch.Size
		}
		if ch.Size > s.MaxSize {
			s.MaxSize = ch.Size
		}
		if ch.Size < c.cfg.MinChunkSize {
			s.BelowMin++
		}
	}
	s.AverageSize = float64(sum) / float64(len(chunks))
	return s
}
