package bm25

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/precisionrag/backend/internal/core/domain"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

type posting struct {
	Doc int32
	TF  int32
}

// snapshot is one immutable build of the inverted index. Fields are
// exported for gob.
type snapshot struct {
	Chunks   []domain.Chunk
	Postings map[string][]posting
	DocLens  []int32
	AvgLen   float64
}

func buildSnapshot(chunks []domain.Chunk) *snapshot {
	snap := &snapshot{
		Chunks:   chunks,
		Postings: make(map[string][]posting, 1024),
		DocLens:  make([]int32, len(chunks)),
	}

	var totalLen int64
	for docIdx, chunk := range chunks {
		tokens := tokenize(chunk.Text)
		snap.DocLens[docIdx] = int32(len(tokens))
		totalLen += int64(len(tokens))

		termFreq := make(map[string]int32, len(tokens))
		for _, token := range tokens {
			termFreq[token]++
		}
		for term, tf := range termFreq {
			snap.Postings[term] = append(snap.Postings[term], posting{Doc: int32(docIdx), TF: tf})
		}
	}
	if len(chunks) > 0 {
		snap.AvgLen = float64(totalLen) / float64(len(chunks))
	}
	return snap
}

// search scores every chunk containing at least one query term and
// returns the k best, ties broken by build order.
func (s *snapshot) search(query string, k int) []domain.Chunk {
	if k <= 0 || len(s.Chunks) == 0 {
		return []domain.Chunk{}
	}

	scores := make(map[int32]float64, 64)
	n := float64(len(s.Chunks))
	for _, term := range uniqueTokens(tokenize(query)) {
		postings, ok := s.Postings[term]
		if !ok {
			continue
		}
		df := float64(len(postings))
		idf := math.Log(1.0 + (n-df+0.5)/(df+0.5))
		for _, p := range postings {
			tf := float64(p.TF)
			norm := 1.0 - bm25B + bm25B*float64(s.DocLens[p.Doc])/s.AvgLen
			scores[p.Doc] += idf * tf * (bm25K1 + 1.0) / (tf + bm25K1*norm)
		}
	}
	if len(scores) == 0 {
		return []domain.Chunk{}
	}

	type hit struct {
		doc   int32
		score float64
	}
	hits := make([]hit, 0, len(scores))
	for doc, score := range scores {
		hits = append(hits, hit{doc: doc, score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].doc < hits[j].doc
	})

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]domain.Chunk, 0, k)
	for _, h := range hits[:k] {
		out = append(out, s.Chunks[h.doc])
	}
	return out
}

func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
