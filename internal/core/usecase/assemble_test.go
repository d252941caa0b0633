package usecase

import (
	"testing"

	"github.com/precisionrag/backend/internal/core/domain"
)

func TestAssembleContextJoinsWithBlankLine(t *testing.T) {
	window := []domain.Chunk{
		{Text: "Paris is the capital of France.", Source: "geo.pdf", Page: 1},
		{Text: "France borders Spain.", Source: "geo.pdf", Page: 2},
	}

	got := AssembleContext(window)
	want := "Paris is the capital of France.\n\nFrance borders Spain."
	if got != want {
		t.Fatalf("assembled context = %q, want %q", got, want)
	}
}

func TestAssembleContextIsIdempotent(t *testing.T) {
	window := []domain.Chunk{
		{Text: "first passage"},
		{Text: "second passage"},
		{Text: "third passage"},
	}

	first := AssembleContext(window)
	second := AssembleContext(window)
	if first != second {
		t.Fatalf("assembly not idempotent:\nfirst=%q\nsecond=%q", first, second)
	}
}

func TestAssembleContextEmptyWindow(t *testing.T) {
	if got := AssembleContext(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}
