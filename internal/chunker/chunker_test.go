package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(0, 0)
	assert.Error(t, err)

	_, err = New(100, 100)
	assert.Error(t, err, "overlap equal to size must be rejected")

	_, err = New(100, 150)
	assert.Error(t, err, "overlap larger than size must be rejected")

	_, err = New(100, -1)
	assert.Error(t, err)

	c, err := New(400, 50)
	require.NoError(t, err)
	assert.Equal(t, 400, c.Size)
}

func TestSplitEmptyText(t *testing.T) {
	c, _ := New(400, 50)
	assert.Empty(t, c.Split(""))
}

func TestSplitShortText(t *testing.T) {
	c, _ := New(400, 50)
	chunks := c.Split("short resume text")

	require.Len(t, chunks, 1)
	assert.Equal(t, "short resume text", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 17, chunks[0].CharEnd)
}

func TestSplitDeterminism(t *testing.T) {
	c, _ := New(40, 10)
	text := strings.Repeat("the quick brown fox jumps over the dog ", 30)

	first := c.Split(text)
	for i := 0; i < 5; i++ {
		again := c.Split(text)
		require.Equal(t, first, again, "boundaries must be identical on every call")
	}
}

func TestSplitOverlapInvariant(t *testing.T) {
	c, _ := New(40, 10)
	text := strings.Repeat("abcdefghij", 25)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 2)

	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i].Content[len(chunks[i].Content)-c.Overlap:]
		head := chunks[i+1].Content[:c.Overlap]
		assert.Equal(t, tail, head, "chunks %d and %d must overlap by exactly %d chars", i, i+1, c.Overlap)
	}
}

func TestSplitCoverage(t *testing.T) {
	c, _ := New(37, 9)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	// Deduplicating the overlapped regions must reconstruct the input exactly.
	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for _, ch := range chunks[1:] {
		b.WriteString(ch.Content[c.Overlap:])
	}
	assert.Equal(t, text, b.String())

	// Offsets must agree with the content.
	for _, ch := range chunks {
		assert.Equal(t, text[ch.CharStart:ch.CharEnd], ch.Content)
	}
	assert.Equal(t, len(text), chunks[len(chunks)-1].CharEnd)
}

func TestSplitIndexesAreSequential(t *testing.T) {
	c, _ := New(50, 5)
	chunks := c.Split(strings.Repeat("x", 500))
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestSplitNeverBreaksMultiByteRunes(t *testing.T) {
	c, _ := New(5, 1)
	text := strings.Repeat("é", 10)

	// step 4, so windows [0,5) [4,9) [8,10) in runes.
	chunks := c.Split(text)
	require.Len(t, chunks, 3)

	runes := []rune(text)
	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Content), "chunk %d must be valid UTF-8", i)
		assert.Equal(t, string(runes[ch.CharStart:ch.CharEnd]), ch.Content)
	}
	assert.Equal(t, "ééééé", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].CharStart)
	assert.Equal(t, 5, chunks[0].CharEnd)

	// Deduplicating the overlapped regions reconstructs the input, same as
	// for ASCII text.
	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for _, ch := range chunks[1:] {
		b.WriteString(string([]rune(ch.Content)[c.Overlap:]))
	}
	assert.Equal(t, text, b.String())
}

func TestSplitMixedWidthText(t *testing.T) {
	c, _ := New(8, 2)
	text := "résumé 简历 ملف doc"

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	runes := []rune(text)
	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Content), "chunk %d must be valid UTF-8", i)
		assert.Equal(t, string(runes[ch.CharStart:ch.CharEnd]), ch.Content)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Content), c.Size)
	}
	assert.Equal(t, len(runes), chunks[len(chunks)-1].CharEnd)
}

func TestSplitFinalChunkKeptShort(t *testing.T) {
	c, _ := New(100, 20)
	// step 80, so 3 windows over 210 chars: [0,100) [80,180) [160,210)
	chunks := c.Split(strings.Repeat("y", 210))
	require.Len(t, chunks, 3)
	assert.Equal(t, 50, len(chunks[2].Content))
	assert.Equal(t, 160, chunks[2].CharStart)
	assert.Equal(t, 210, chunks[2].CharEnd)
}
