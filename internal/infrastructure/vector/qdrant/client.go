package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/precisionrag/backend/internal/core/domain"
)

const upsertBatchSize = 128

// Client talks to Qdrant over its HTTP API. Searches go through a
// collection alias; rebuilds load a brand-new collection and repoint
// the alias in one request, so queries either see the old index or the
// new one, never a partial state.
type Client struct {
	baseURL    string
	alias      string
	vectorSize int
	httpClient *http.Client
}

// NewClient configures access to the collection behind alias.
// vectorSize is the fallback dimension used when a rebuild carries no
// vectors at all (empty corpus).
func NewClient(baseURL, alias string, vectorSize int) *Client {
	if vectorSize <= 0 {
		vectorSize = 768
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		alias:      alias,
		vectorSize: vectorSize,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) ReplaceAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	dim := c.vectorSize
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	collection := fmt.Sprintf("%s_%d", c.alias, time.Now().UnixNano())
	if err := c.createCollection(ctx, collection, dim); err != nil {
		return err
	}

	if err := c.upsertAll(ctx, collection, chunks, vectors); err != nil {
		c.dropCollection(ctx, collection)
		return err
	}

	previous, err := c.aliasedCollections(ctx)
	if err != nil {
		c.dropCollection(ctx, collection)
		return err
	}
	if err := c.swapAlias(ctx, collection, previous); err != nil {
		c.dropCollection(ctx, collection)
		return err
	}

	// Old generations are unreachable once the alias moved; removal is
	// best-effort cleanup.
	for _, old := range previous {
		c.dropCollection(ctx, old)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, queryVector []float32, k int) ([]domain.Chunk, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.alias)
	resp, err := c.do(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "qdrant search", fmt.Errorf("alias %s not found", c.alias))
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.Chunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.Chunk{
			Text:   payloadString(r.Payload, "text"),
			Source: payloadString(r.Payload, "source"),
			Page:   payloadInt(r.Payload, "page"),
		})
	}
	return out, nil
}

func (c *Client) createCollection(ctx context.Context, collection string, dim int) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, collection)
	resp, err := c.do(ctx, http.MethodPut, url, reqBody)
	if err != nil {
		return fmt.Errorf("qdrant create collection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant create collection status: %s: %s", resp.Status, readErrorBody(resp.Body))
	}
	return nil
}

func (c *Client) upsertAll(ctx context.Context, collection string, chunks []domain.Chunk, vectors [][]float32) error {
	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, point{
				ID:     uuid.NewString(),
				Vector: vectors[i],
				Payload: map[string]any{
					"text":   chunks[i].Text,
					"source": chunks[i].Source,
					"page":   chunks[i].Page,
				},
			})
		}

		url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, collection)
		resp, err := c.do(ctx, http.MethodPut, url, map[string]any{"points": points})
		if err != nil {
			return fmt.Errorf("qdrant upsert request: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("qdrant upsert status: %s", resp.Status)
		}
	}
	return nil
}

// aliasedCollections returns the physical collections currently behind
// the alias. Usually zero or one, but a crashed swap can leave more.
func (c *Client) aliasedCollections(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/aliases", c.baseURL)
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("qdrant list aliases request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant list aliases status: %s", resp.Status)
	}

	var aliasResp struct {
		Result struct {
			Aliases []struct {
				AliasName      string `json:"alias_name"`
				CollectionName string `json:"collection_name"`
			} `json:"aliases"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&aliasResp); err != nil {
		return nil, fmt.Errorf("decode aliases response: %w", err)
	}

	var out []string
	for _, a := range aliasResp.Result.Aliases {
		if a.AliasName == c.alias {
			out = append(out, a.CollectionName)
		}
	}
	return out, nil
}

func (c *Client) swapAlias(ctx context.Context, collection string, previous []string) error {
	actions := make([]map[string]any, 0, len(previous)+1)
	for range previous {
		actions = append(actions, map[string]any{
			"delete_alias": map[string]any{"alias_name": c.alias},
		})
	}
	actions = append(actions, map[string]any{
		"create_alias": map[string]any{
			"alias_name":      c.alias,
			"collection_name": collection,
		},
	})

	url := fmt.Sprintf("%s/collections/aliases", c.baseURL)
	resp, err := c.do(ctx, http.MethodPost, url, map[string]any{"actions": actions})
	if err != nil {
		return fmt.Errorf("qdrant alias swap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant alias swap status: %s: %s", resp.Status, readErrorBody(resp.Body))
	}
	return nil
}

func (c *Client) dropCollection(ctx context.Context, collection string) {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, collection)
	resp, err := c.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func readErrorBody(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(raw))
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}
