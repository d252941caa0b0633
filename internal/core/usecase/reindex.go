package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/precisionrag/backend/internal/core/domain"
	"github.com/precisionrag/backend/internal/core/ports"
)

// ReindexUseCase rebuilds both indexes from the corpus directory in one
// exclusive batch run. Runs are single-flight: a trigger while a
// rebuild is in progress is rejected, never queued behind it.
type ReindexUseCase struct {
	runs     ports.IngestionRunRepository
	queue    ports.MessageQueue
	loader   ports.CorpusLoader
	chunker  ports.Chunker
	embedder ports.Embedder
	dense    ports.DenseIndex
	sparse   ports.SparseIndex
	logger   *slog.Logger

	mu sync.Mutex
}

func NewReindexUseCase(
	runs ports.IngestionRunRepository,
	queue ports.MessageQueue,
	loader ports.CorpusLoader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	dense ports.DenseIndex,
	sparse ports.SparseIndex,
	logger *slog.Logger,
) *ReindexUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReindexUseCase{
		runs:     runs,
		queue:    queue,
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		dense:    dense,
		sparse:   sparse,
		logger:   logger,
	}
}

// TriggerReindex records a new run and hands it to the worker through
// the queue. Without a queue the rebuild runs inline before returning.
func (uc *ReindexUseCase) TriggerReindex(ctx context.Context) (string, error) {
	run := &domain.IngestionRun{
		ID:        uuid.NewString(),
		Status:    domain.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := uc.runs.Create(ctx, run); err != nil {
		return "", fmt.Errorf("create ingestion run: %w", err)
	}

	if uc.queue != nil {
		if err := uc.queue.PublishReindexRequested(ctx, run.ID); err != nil {
			uc.finishRun(ctx, run.ID, domain.RunFailed, 0, 0, err.Error())
			return "", fmt.Errorf("publish reindex trigger: %w", err)
		}
		return run.ID, nil
	}

	return run.ID, uc.Rebuild(ctx, run.ID)
}

// Rebuild executes one full rebuild run: load, chunk, embed, and swap
// both indexes. An empty corpus is a degenerate success that leaves
// both indexes cleared.
func (uc *ReindexUseCase) Rebuild(ctx context.Context, runID string) error {
	if !uc.mu.TryLock() {
		err := domain.WrapError(domain.ErrIngestionBusy, "rebuild", errors.New("another run is in flight"))
		uc.finishRun(ctx, runID, domain.RunFailed, 0, 0, err.Error())
		return err
	}
	defer uc.mu.Unlock()

	docs, chunks, err := uc.buildChunks(ctx)
	if err != nil {
		uc.finishRun(ctx, runID, domain.RunFailed, 0, 0, err.Error())
		return err
	}

	if len(chunks) == 0 {
		// Degenerate-but-successful run: no documents or no chunks.
		// Both indexes end up cleared, matching the corpus.
		uc.logger.Warn("reindex found nothing to index", "run_id", runID, "documents", len(docs))
		if err := uc.replaceIndexes(ctx, nil, nil); err != nil {
			uc.finishRun(ctx, runID, domain.RunFailed, len(docs), 0, err.Error())
			return err
		}
		uc.finishRun(ctx, runID, domain.RunSucceeded, len(docs), 0, "")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		err = fmt.Errorf("embed chunks: %w", err)
		uc.finishRun(ctx, runID, domain.RunFailed, len(docs), len(chunks), err.Error())
		return err
	}
	if len(vectors) != len(chunks) {
		err = fmt.Errorf("embed chunks: vectors/chunks mismatch: %d/%d", len(vectors), len(chunks))
		uc.finishRun(ctx, runID, domain.RunFailed, len(docs), len(chunks), err.Error())
		return err
	}

	if err := uc.replaceIndexes(ctx, chunks, vectors); err != nil {
		uc.finishRun(ctx, runID, domain.RunFailed, len(docs), len(chunks), err.Error())
		return err
	}

	uc.logger.Info("reindex finished",
		"run_id", runID,
		"documents", len(docs),
		"chunks", len(chunks),
	)
	uc.finishRun(ctx, runID, domain.RunSucceeded, len(docs), len(chunks), "")
	return nil
}

func (uc *ReindexUseCase) buildChunks(ctx context.Context) ([]ports.SourceDocument, []domain.Chunk, error) {
	docs, err := uc.loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}

	chunks := make([]domain.Chunk, 0, 128)
	for _, doc := range docs {
		for pageIdx, page := range doc.Pages {
			for _, text := range uc.chunker.Split(page) {
				chunks = append(chunks, domain.Chunk{
					Text:   text,
					Source: doc.Source,
					Page:   pageIdx + 1,
				})
			}
		}
	}
	return docs, chunks, nil
}

func (uc *ReindexUseCase) replaceIndexes(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := uc.dense.ReplaceAll(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("rebuild dense index: %w", err)
	}
	if err := uc.sparse.ReplaceAll(ctx, chunks); err != nil {
		return fmt.Errorf("rebuild sparse index: %w", err)
	}
	return nil
}

func (uc *ReindexUseCase) finishRun(ctx context.Context, runID string, status domain.IngestionRunStatus, documents, chunks int, errMessage string) {
	if err := uc.runs.Finish(ctx, runID, status, documents, chunks, errMessage); err != nil {
		uc.logger.Error("finish ingestion run", "run_id", runID, "error", err)
	}
}
