package domain

// Chunk is a bounded text window cut from a source document. Identity
// for deduplication is exact text equality: two chunks carrying the same
// text are the same candidate regardless of which retriever surfaced
// them.
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
}

// ScoredChunk pairs a candidate with its cross-encoder relevance score.
// It lives only for the duration of one query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

type Answer struct {
	Text    string  `json:"text"`
	Sources []Chunk `json:"sources"`
}

// DedupeChunks unions retrieval result sequences in the order given and
// drops every chunk whose exact text was already seen. The first
// occurrence wins, so callers pass the dense results ahead of the sparse
// ones.
func DedupeChunks(lists ...[]Chunk) []Chunk {
	seen := make(map[string]struct{})
	out := make([]Chunk, 0)
	for _, list := range lists {
		for _, chunk := range list {
			if _, ok := seen[chunk.Text]; ok {
				continue
			}
			seen[chunk.Text] = struct{}{}
			out = append(out, chunk)
		}
	}
	return out
}
