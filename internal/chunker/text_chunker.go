package chunker

import (
	"strings"

	"docqa/internal/domain"
)

// TextChunker splits text records into fixed-size overlapping character
// chunks. Image records pass through untouched, and chunks never cross
// record boundaries, so content from different origins or pages is never
// merged.
type TextChunker struct {
	size    int
	overlap int
}

func NewTextChunker(size, overlap int) *TextChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &TextChunker{size: size, overlap: overlap}
}

// Split breaks one record into chunks of at most size characters, each
// consecutive pair sharing exactly overlap characters (except possibly the
// last chunk, which may be shorter).
func (c *TextChunker) Split(record domain.Record) []domain.Record {
	if record.Kind != domain.KindText {
		return []domain.Record{record}
	}
	runes := []rune(strings.TrimSpace(record.Content))
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var chunks []domain.Record
	for start := 0; ; start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := record
		chunk.Content = string(runes[start:end])
		chunks = append(chunks, chunk)
		if end == len(runes) {
			break
		}
	}
	return chunks
}
