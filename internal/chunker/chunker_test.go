package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(n int) string {
	return strings.Repeat("a", n)
}

func TestSplitPacksParagraphs(t *testing.T) {
	content := para(400) + "\n\n" + para(400) + "\n\n" + para(400)
	chunks := Split(content, 1500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 400*3+4, len(chunks[0].Text))
}

func TestSplitClosesAtBoundary(t *testing.T) {
	content := para(900) + "\n\n" + para(900)
	chunks := Split(content, 1500, 50)
	require.Len(t, chunks, 2)
	assert.Equal(t, para(900), chunks[0].Text)
	assert.Equal(t, para(900), chunks[1].Text)
}

func TestSplitOversizeParagraphKept(t *testing.T) {
	// A single paragraph over the cap still becomes its own chunk;
	// the cap only prevents packing a second paragraph on top.
	content := para(2000)
	chunks := Split(content, 1500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2000, len(chunks[0].Text))
}

func TestSplitDropsSubMinimumWithGap(t *testing.T) {
	content := para(1490) + "\n\n" + "tiny" + "\n\n" + para(1499)
	chunks := Split(content, 1500, 50)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 2, chunks[1].Index) // index 1 dropped, gap preserved
}

func TestSplitReconstruction(t *testing.T) {
	paras := []string{para(600), para(700), para(650), para(500), para(90)}
	content := strings.Join(paras, "\n\n")

	chunks := Split(content, 1500, 50)
	var rebuilt []string
	for _, c := range chunks {
		rebuilt = append(rebuilt, c.Text)
	}
	assert.Equal(t, content, strings.Join(rebuilt, "\n\n"))
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, Split("", 1500, 50))
	assert.Empty(t, Split("\n\n\n\n", 1500, 50))
}

func TestSplitDefaults(t *testing.T) {
	chunks := Split(para(60), 0, 0)
	require.Len(t, chunks, 1)
}
