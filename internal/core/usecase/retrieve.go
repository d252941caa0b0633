package usecase

import (
	"context"
	"sync"

	"github.com/precisionrag/backend/internal/core/domain"
	"github.com/precisionrag/backend/internal/core/ports"
)

const defaultRetrieveTopN = 5

// HybridRetrieveUseCase unions dense vector search and sparse BM25
// search into one deduplicated candidate pool. It does no ranking of
// its own: both result lists are treated as recall sources and the
// cross-encoder downstream is the only arbiter of relevance.
type HybridRetrieveUseCase struct {
	embedder ports.Embedder
	dense    ports.DenseIndex
	sparse   ports.SparseIndex
	topN     int
}

func NewHybridRetrieveUseCase(
	embedder ports.Embedder,
	dense ports.DenseIndex,
	sparse ports.SparseIndex,
	topN int,
) *HybridRetrieveUseCase {
	if topN <= 0 {
		topN = defaultRetrieveTopN
	}
	return &HybridRetrieveUseCase{
		embedder: embedder,
		dense:    dense,
		sparse:   sparse,
		topN:     topN,
	}
}

// Retrieve returns the deduplicated union of both top-N lookups, dense
// results first. Either side failing fails the whole call as kind
// domain.ErrIndexUnavailable; there is no degraded single-source mode.
func (uc *HybridRetrieveUseCase) Retrieve(ctx context.Context, query string) ([]domain.Chunk, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "embed query", err)
	}

	var (
		wg                    sync.WaitGroup
		denseHits, sparseHits []domain.Chunk
		denseErr, sparseErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseHits, denseErr = uc.dense.Search(ctx, queryVector, uc.topN)
	}()
	go func() {
		defer wg.Done()
		sparseHits, sparseErr = uc.sparse.Search(ctx, query, uc.topN)
	}()
	wg.Wait()

	if denseErr != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "dense search", denseErr)
	}
	if sparseErr != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "sparse search", sparseErr)
	}

	return domain.DedupeChunks(denseHits, sparseHits), nil
}
