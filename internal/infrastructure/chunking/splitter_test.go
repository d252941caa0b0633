package chunking

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("short paragraph")
	if len(chunks) != 1 || chunks[0] != "short paragraph" {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)
	if chunks := s.Split("   "); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank text, got %v", chunks)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("a", 60)
	para2 := strings.Repeat("b", 60)
	s := NewSplitter(80, 0)

	chunks := s.Split(para1 + "\n\n" + para2)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != para1 || chunks[1] != para2 {
		t.Fatalf("expected clean paragraph split, got %v", chunks)
	}
}

func TestSplitFallsBackToSentences(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one closes."
	s := NewSplitter(30, 0)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected sentence-level split, got %v", chunks)
	}
	for _, chunk := range chunks {
		if len([]rune(chunk)) > 30 {
			t.Fatalf("chunk exceeds size: %q", chunk)
		}
	}
	if !strings.HasPrefix(chunks[0], "First sentence here.") {
		t.Fatalf("unexpected first chunk: %q", chunks[0])
	}
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 2500)
	s := NewSplitter(1000, 200)

	chunks := s.Split(text)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks for 2500 runes at step 800, got %d", len(chunks))
	}
	for i, chunk := range chunks[:2] {
		if len(chunk) != 1000 {
			t.Fatalf("chunk %d length = %d, want 1000", i, len(chunk))
		}
	}
}

func TestSplitNoContentLost(t *testing.T) {
	text := "Intro paragraph with context.\n\n" +
		strings.Repeat("Sentence about the corpus. ", 20) +
		"\nFinal line."
	s := NewSplitter(120, 20)

	chunks := s.Split(text)
	joined := strings.Join(chunks, " ")
	for _, word := range []string{"Intro", "corpus", "Final"} {
		if !strings.Contains(joined, word) {
			t.Fatalf("word %q lost during split", word)
		}
	}
	for _, chunk := range chunks {
		if len([]rune(chunk)) > 120 {
			t.Fatalf("chunk exceeds size: %d runes", len([]rune(chunk)))
		}
	}
}

func TestSplitOverlapCarriesTail(t *testing.T) {
	sentences := make([]string, 10)
	for i := range sentences {
		sentences[i] = strings.Repeat(string(rune('a'+i)), 20) + "."
	}
	text := strings.Join(sentences, " ")
	s := NewSplitter(60, 20)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	// Each chunk after the first starts with text already seen at the
	// end of its predecessor.
	for i := 1; i < len(chunks); i++ {
		head := []rune(chunks[i])
		if len(head) > 10 {
			head = head[:10]
		}
		if !strings.Contains(chunks[i-1], strings.TrimSpace(string(head))) {
			t.Fatalf("chunk %d does not overlap predecessor:\nprev=%q\ncurr=%q", i, chunks[i-1], chunks[i])
		}
	}
}

func TestSplitDropsOverlapTailThatWouldOverflow(t *testing.T) {
	para1 := strings.Repeat("a", 900)
	para2 := strings.Repeat("b", 900)
	s := NewSplitter(1000, 200)

	chunks := s.Split(para1 + "\n\n" + para2)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 1000 {
			t.Fatalf("chunk %d has %d runes, exceeds chunk size", i, n)
		}
	}
	if strings.Contains(chunks[1], "a") {
		t.Fatalf("second chunk carries overflowing tail: %q", chunks[1][:40])
	}
}

func TestSplitNoCarryAcrossOversizedPart(t *testing.T) {
	text := strings.Repeat("a", 80) + "\n\n" + strings.Repeat("b", 500) + "\n\n" + strings.Repeat("c", 30)
	s := NewSplitter(100, 20)

	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %v", chunks)
	}
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 100 {
			t.Fatalf("chunk %d has %d runes, exceeds chunk size", i, n)
		}
	}
	// The chunk holding the third paragraph must not be glued to the
	// first paragraph's tail: that text is not adjacent in the source.
	last := chunks[len(chunks)-1]
	if strings.Contains(last, "a") || strings.Contains(last, "b") {
		t.Fatalf("final chunk joins non-adjacent text: %q", last)
	}
	if last != strings.Repeat("c", 30) {
		t.Fatalf("final chunk = %q, want third paragraph alone", last)
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != 1000 || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: size=%d overlap=%d", s.ChunkSize, s.Overlap)
	}
	s = NewSplitter(100, 150)
	if s.Overlap != 25 {
		t.Fatalf("oversized overlap must clamp, got %d", s.Overlap)
	}
}
