package tts

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxChunkSize is the largest input, in characters, one speech request accepts.
const MaxChunkSize = 4096

// chunkDelimiters are tried in order; the first one present in the window wins.
var chunkDelimiters = []string{". ", "? ", "! ", "\n"}

// Chunk is one API-sized piece of the input.
type Chunk struct {
	Index int
	Text  string
}

// SplitText lazily splits text into chunks of at most MaxChunkSize
// characters. Each chunk ends right after the last sentence delimiter inside
// its window, or is cut hard at MaxChunkSize when there is none. The chunk
// texts concatenate back to text exactly. Ranging the sequence again
// re-runs the split.
func SplitText(text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		rest := text
		for i := 0; rest != ""; i++ {
			cut := nextCut(rest)
			if !yield(Chunk{Index: i, Text: rest[:cut]}) {
				return
			}
			rest = rest[cut:]
		}
	}
}

// Chunks collects SplitText into a slice.
func Chunks(text string) []Chunk {
	return slices.Collect(SplitText(text))
}

// nextCut returns the byte length of the next chunk of s.
func nextCut(s string) int {
	end, ok := runeOffset(s, MaxChunkSize)
	if !ok {
		return len(s)
	}

	window := s[:end]
	for _, d := range chunkDelimiters {
		if i := strings.LastIndex(window, d); i >= 0 {
			return i + len(d)
		}
	}
	return end
}

// runeOffset returns the byte offset just past the first n characters of s,
// and false when s has n characters or fewer.
func runeOffset(s string, n int) (int, bool) {
	offset := 0
	for count := 0; count < n; count++ {
		if offset >= len(s) {
			return len(s), false
		}
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	if offset >= len(s) {
		return len(s), false
	}
	return offset, true
}
