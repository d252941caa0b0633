package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/precisionrag/backend/internal/core/domain"
	"github.com/precisionrag/backend/internal/core/ports"
)

const defaultContextWindowSize = 3

// RerankUseCase scores the candidate pool against the query with a
// cross-encoder and keeps the top K chunks. This is the only stage that
// ranks: the pool arrives rank-agnostic and leaves as the final context
// window.
type RerankUseCase struct {
	encoder ports.CrossEncoder
	topK    int
}

func NewRerankUseCase(encoder ports.CrossEncoder, topK int) *RerankUseCase {
	if topK <= 0 {
		topK = defaultContextWindowSize
	}
	return &RerankUseCase{encoder: encoder, topK: topK}
}

// Rerank returns at most K chunks ordered by descending cross-encoder
// score. Ties keep their pool order (stable sort). An empty pool short
// circuits without invoking the model.
func (uc *RerankUseCase) Rerank(ctx context.Context, query string, pool []domain.Chunk) ([]domain.Chunk, error) {
	if len(pool) == 0 {
		return []domain.Chunk{}, nil
	}

	texts := make([]string, len(pool))
	for i, chunk := range pool {
		texts[i] = chunk.Text
	}

	scores, err := uc.encoder.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder score: %w", err)
	}
	if len(scores) != len(pool) {
		return nil, fmt.Errorf("cross-encoder score: %d scores for %d candidates", len(scores), len(pool))
	}

	scored := make([]domain.ScoredChunk, len(pool))
	for i := range pool {
		scored[i] = domain.ScoredChunk{Chunk: pool[i], Score: scores[i]}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	limit := uc.topK
	if limit > len(scored) {
		limit = len(scored)
	}
	window := make([]domain.Chunk, 0, limit)
	for _, s := range scored[:limit] {
		window = append(window, s.Chunk)
	}
	return window, nil
}
