package chunker

import "fmt"

// Chunk is a contiguous slice of extracted text, not yet embedded.
// CharStart/CharEnd are rune offsets into the original text.
type Chunk struct {
	Index     int
	Content   string
	CharStart int
	CharEnd   int
}

// Chunker splits text into fixed-size windows overlapping by exactly Overlap
// characters. Boundaries are deterministic for a given (text, size, overlap).
type Chunker struct {
	Size    int
	Overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got size=%d overlap=%d", size, overlap)
	}
	return &Chunker{Size: size, Overlap: overlap}, nil
}

// Split windows the text. Empty input yields zero chunks; text shorter than the
// window yields exactly one chunk spanning the whole text. The final chunk may
// be shorter than Size and is kept as-is.
//
// Size and Overlap count runes, not bytes, so a window boundary never lands
// inside a multi-byte character and every chunk is valid UTF-8.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.Size - c.Overlap
	chunks := make([]Chunk, 0, (len(runes)+step-1)/step)

	for start := 0; start < len(runes); start += step {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Content:   string(runes[start:end]),
			CharStart: start,
			CharEnd:   end,
		})
		if end == len(runes) {
			break
		}
	}

	return chunks
}
