package bm25

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/precisionrag/backend/internal/core/domain"
)

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{Text: "Paris is the capital of France.", Source: "geo.pdf", Page: 1},
		{Text: "Berlin is the capital of Germany.", Source: "geo.pdf", Page: 2},
		{Text: "The Seine flows through Paris toward the sea.", Source: "rivers.txt", Page: 1},
		{Text: "Quantum entanglement links particle states.", Source: "physics.txt", Page: 1},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "bm25.gob"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return st
}

func TestSearchBeforeFirstRebuildIsUnavailable(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Search(context.Background(), "paris", 5)
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable kind, got %v", err)
	}
}

func TestSearchRanksMatchingChunks(t *testing.T) {
	st := newTestStore(t)
	if err := st.ReplaceAll(context.Background(), testChunks()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	hits, err := st.Search(context.Background(), "capital of Paris", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) < 2 {
		t.Fatalf("expected at least 2 hits, got %d", len(hits))
	}
	if hits[0].Text != "Paris is the capital of France." {
		t.Fatalf("expected chunk matching both terms first, got %q", hits[0].Text)
	}
}

func TestSearchNoMatches(t *testing.T) {
	st := newTestStore(t)
	if err := st.ReplaceAll(context.Background(), testChunks()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	hits, err := st.Search(context.Background(), "zzzunknownterm", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %v", hits)
	}
}

func TestSearchRespectsK(t *testing.T) {
	st := newTestStore(t)
	if err := st.ReplaceAll(context.Background(), testChunks()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	hits, err := st.Search(context.Background(), "the capital", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestReplaceAllEmptyClearsIndex(t *testing.T) {
	st := newTestStore(t)
	if err := st.ReplaceAll(context.Background(), testChunks()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if err := st.ReplaceAll(context.Background(), nil); err != nil {
		t.Fatalf("ReplaceAll(nil) error = %v", err)
	}

	hits, err := st.Search(context.Background(), "paris", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("cleared index must return no hits, got %v", hits)
	}
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bm25.gob")

	st, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := st.ReplaceAll(context.Background(), testChunks()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() after restart error = %v", err)
	}
	hits, err := reopened.Search(context.Background(), "entanglement", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "physics.txt" {
		t.Fatalf("expected persisted chunk back, got %v", hits)
	}
}

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	tokens := tokenize("Paris-2024: l'étape finale!")
	want := []string{"paris", "2024", "l", "étape", "finale"}
	if len(tokens) != len(want) {
		t.Fatalf("tokenize() = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("tokenize() = %v, want %v", tokens, want)
		}
	}
}
