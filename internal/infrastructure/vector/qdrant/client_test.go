package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/precisionrag/backend/internal/core/domain"
)

// fakeQdrant emulates the subset of the HTTP API ReplaceAll touches:
// collection create/delete, point upsert, alias listing and swapping.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]int
	upserts     map[string]int
	aliasTarget string
	swapCalls   int
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{
		collections: make(map[string]int),
		upserts:     make(map[string]int),
	}
}

func (f *fakeQdrant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/aliases":
			aliases := make([]map[string]string, 0, 1)
			if f.aliasTarget != "" {
				aliases = append(aliases, map[string]string{
					"alias_name":      "chunks",
					"collection_name": f.aliasTarget,
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"aliases": aliases},
			})

		case r.Method == http.MethodPost && r.URL.Path == "/collections/aliases":
			var req struct {
				Actions []map[string]map[string]string `json:"actions"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.swapCalls++
			for _, action := range req.Actions {
				if del, ok := action["delete_alias"]; ok && del["alias_name"] == "chunks" {
					f.aliasTarget = ""
				}
				if create, ok := action["create_alias"]; ok {
					f.aliasTarget = create["collection_name"]
				}
			}
			fmt.Fprint(w, `{"result":true}`)

		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/points"):
			collection := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/collections/"), "/points")
			var req struct {
				Points []json.RawMessage `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.upserts[collection] += len(req.Points)
			fmt.Fprint(w, `{"status":"ok"}`)

		case r.Method == http.MethodPut:
			collection := strings.TrimPrefix(r.URL.Path, "/collections/")
			var req struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.collections[collection] = req.Vectors.Size
			w.WriteHeader(http.StatusCreated)

		case r.Method == http.MethodDelete:
			collection := strings.TrimPrefix(r.URL.Path, "/collections/")
			delete(f.collections, collection)
			fmt.Fprint(w, `{"result":true}`)

		default:
			http.NotFound(w, r)
		}
	})
}

func TestReplaceAllBuildsAndSwaps(t *testing.T) {
	fake := newFakeQdrant()
	fake.collections["chunks_old"] = 2
	fake.aliasTarget = "chunks_old"
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0)
	chunks := []domain.Chunk{
		{Text: "a", Source: "a.txt", Page: 1},
		{Text: "b", Source: "a.txt", Page: 2},
	}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.ReplaceAll(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.aliasTarget == "" || fake.aliasTarget == "chunks_old" {
		t.Fatalf("alias not repointed, still %q", fake.aliasTarget)
	}
	if fake.upserts[fake.aliasTarget] != 2 {
		t.Fatalf("expected 2 points in new collection, got %d", fake.upserts[fake.aliasTarget])
	}
	if fake.collections[fake.aliasTarget] != 2 {
		t.Fatalf("expected vector size 2, got %d", fake.collections[fake.aliasTarget])
	}
	if _, ok := fake.collections["chunks_old"]; ok {
		t.Fatalf("old collection must be dropped after swap")
	}
	if fake.swapCalls != 1 {
		t.Fatalf("expected one atomic alias swap, got %d", fake.swapCalls)
	}
}

func TestReplaceAllEmptyCorpusUsesFallbackSize(t *testing.T) {
	fake := newFakeQdrant()
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.URL, "chunks", 384)
	if err := client.ReplaceAll(context.Background(), nil, nil); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.aliasTarget == "" {
		t.Fatalf("alias must point at the empty collection")
	}
	if fake.collections[fake.aliasTarget] != 384 {
		t.Fatalf("expected fallback vector size 384, got %d", fake.collections[fake.aliasTarget])
	}
}

func TestReplaceAllMismatchedInput(t *testing.T) {
	client := NewClient("http://unused", "chunks", 0)
	err := client.ReplaceAll(context.Background(), []domain.Chunk{{Text: "a"}}, nil)
	if err == nil {
		t.Fatalf("expected error on chunks/vectors mismatch")
	}
}

func TestSearchParsesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"result":[
			{"score":0.92,"payload":{"text":"Paris is the capital.","source":"geo.pdf","page":3}},
			{"score":0.41,"payload":{"text":"The Seine.","source":"rivers.txt","page":1}}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0)
	hits, err := client.Search(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Text != "Paris is the capital." || hits[0].Source != "geo.pdf" || hits[0].Page != 3 {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
}

func TestSearchMissingAliasIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0)
	_, err := client.Search(context.Background(), []float32{0.1}, 5)
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable kind, got %v", err)
	}
}

func TestReplaceAllCleansUpOnUpsertFailure(t *testing.T) {
	fake := newFakeQdrant()
	var deleted []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/points") {
			http.Error(w, "storage full", http.StatusInternalServerError)
			return
		}
		if r.Method == http.MethodDelete {
			mu.Lock()
			deleted = append(deleted, strings.TrimPrefix(r.URL.Path, "/collections/"))
			mu.Unlock()
		}
		fake.handler().ServeHTTP(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0)
	err := client.ReplaceAll(context.Background(), []domain.Chunk{{Text: "a"}}, [][]float32{{0.1}})
	if err == nil {
		t.Fatalf("expected error")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(deleted) != 1 {
		t.Fatalf("abandoned collection must be dropped, deletions: %v", deleted)
	}
}
