package chunking

import "strings"

// separators are tried in order of preference when a piece of text is
// longer than the chunk size: paragraph break, line break, sentence
// end, word boundary. A piece with none of them gets cut mid-word.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter cuts page text into overlapping chunks, preferring natural
// boundaries over hard cuts.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	pieces := s.split([]rune(text), 0)
	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

func (s *Splitter) split(runes []rune, sepIdx int) []string {
	if len(runes) <= s.ChunkSize {
		if len(runes) == 0 {
			return nil
		}
		return []string{string(runes)}
	}
	if sepIdx >= len(separators) {
		return s.hardCut(runes)
	}

	parts := splitKeepSep(string(runes), separators[sepIdx])
	if len(parts) == 1 {
		// Separator absent, fall through to the next one.
		return s.split(runes, sepIdx+1)
	}

	out := make([]string, 0, len(parts))
	var window []rune
	for _, part := range parts {
		partRunes := []rune(part)
		if len(partRunes) > s.ChunkSize {
			if len(window) > 0 {
				out = append(out, string(window))
			}
			// No carry across an oversized part: gluing the previous
			// window's tail onto whatever follows the recursion would
			// join text that is not adjacent in the source.
			window = nil
			out = append(out, s.split(partRunes, sepIdx+1)...)
			continue
		}
		if len(window)+len(partRunes) > s.ChunkSize {
			out = append(out, string(window))
			window = s.carryOverlap(window)
			if len(window)+len(partRunes) > s.ChunkSize {
				// The overlap tail plus this part would exceed the
				// chunk size; the part wins, the tail is dropped.
				window = nil
			}
		}
		window = append(window, partRunes...)
	}
	if len(window) > 0 {
		out = append(out, string(window))
	}
	return out
}

// carryOverlap returns the tail of the emitted window that seeds the
// next one, so adjacent chunks share up to Overlap runes of context.
func (s *Splitter) carryOverlap(window []rune) []rune {
	if s.Overlap == 0 || len(window) == 0 {
		return nil
	}
	start := len(window) - s.Overlap
	if start < 0 {
		start = 0
	}
	tail := make([]rune, len(window)-start)
	copy(tail, window[start:])
	return tail
}

func (s *Splitter) hardCut(runes []rune) []string {
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}
	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitKeepSep splits text on sep, keeping the separator attached to
// the preceding part so no characters are lost.
func splitKeepSep(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
