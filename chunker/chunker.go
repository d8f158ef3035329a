package chunker

import "strings"

const (
	// DefaultChunkSize is the window width in whitespace-tokenized words.
	DefaultChunkSize = 1000
	// DefaultOverlap is how many words consecutive windows share.
	DefaultOverlap = 200
)

// Chunk is one window over the word sequence of a text, carrying its
// half-open word range [Start, End).
type Chunk struct {
	Text  string
	Start int
	End   int
	Size  int
}

// Chunker splits text into overlapping word-bounded windows. Splitting is
// a pure function of (text, chunk size, overlap).
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a Chunker. Overlap is capped at half the chunk size so the
// window always moves forward.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap > chunkSize/2 {
		overlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split slides a chunkSize-word window over text, stepping back by the
// overlap between windows. Forward progress is forced when the overlap
// would stall the cursor. Empty input yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []Chunk
	position := 0
	for position < len(words) {
		end := position + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Text:  strings.Join(words[position:end], " "),
			Start: position,
			End:   end,
			Size:  end - position,
		})

		position = end - c.overlap
		if position >= len(words)-c.overlap {
			break
		}
		if position <= chunks[len(chunks)-1].Start {
			position = chunks[len(chunks)-1].Start + 1
		}
	}
	return chunks
}
