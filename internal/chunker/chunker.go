// Package chunker splits normalized content into bounded-size passages.
package chunker

import "strings"

const (
	// DefaultMaxChars caps a packed chunk's length.
	DefaultMaxChars = 1500
	// DefaultMinChars is the minimum viable chunk length; shorter fragments
	// are dropped rather than embedded.
	DefaultMinChars = 50
)

// Chunk is a packed passage with its pre-drop sequence index.
type Chunk struct {
	Index int
	Text  string
}

// Split packs paragraphs greedily into chunks of at most maxChars, joining
// paragraphs with a blank line. Indices are assigned before sub-minimum
// chunks are dropped, so the returned sequence may have gaps.
func Split(content string, maxChars, minChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}

	var packed []string
	var current strings.Builder

	for _, para := range strings.Split(content, "\n\n") {
		p := strings.TrimSpace(para)
		if p == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(p) > maxChars {
			packed = append(packed, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		packed = append(packed, current.String())
	}

	chunks := make([]Chunk, 0, len(packed))
	for i, text := range packed {
		if len(strings.TrimSpace(text)) < minChars {
			continue
		}
		chunks = append(chunks, Chunk{Index: i, Text: text})
	}
	return chunks
}
