package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/precisionrag/backend/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, nil)
}

func TestEmbedBatchesLargeInput(t *testing.T) {
	var batches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&batches, 1)

		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		vectors := make([][]float32, len(req.Input))
		for i := range vectors {
			vectors[i] = []float32{0.1, 0.2}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", testExecutor()), 0)
	texts := make([]string, 150)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}

	vectors, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 150 {
		t.Fatalf("expected 150 vectors, got %d", len(vectors))
	}
	if got := atomic.LoadInt32(&batches); got != 3 {
		t.Fatalf("expected 3 batches of 64, got %d", got)
	}
}

func TestEmbedQueryReturnsFirstVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embeddings":[[0.5,0.6,0.7]]}`)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", testExecutor()), 0)
	vector, err := embedder.EmbedQuery(context.Background(), "question")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.5 {
		t.Fatalf("unexpected vector: %v", vector)
	}
}

func TestGeneratorCompleteTrimsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"response":"  Paris is the capital.\n"}`)
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "llama3", "nomic-embed-text", testExecutor()))
	answer, err := generator.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "Paris is the capital." {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestCompleteRetriesRetryableStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"response":"ok"}`)
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "llama3", "nomic-embed-text", testExecutor()))
	answer, err := generator.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if answer != "ok" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected retry after 503, got %d calls", got)
	}
}

func TestCompleteDoesNotRetryBadRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "llama3", "nomic-embed-text", testExecutor()))
	if _, err := generator.Complete(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected single attempt on 400, got %d", got)
	}
}
