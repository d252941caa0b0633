package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/precisionrag/backend/internal/config"
	"github.com/precisionrag/backend/internal/core/ports"
	"github.com/precisionrag/backend/internal/core/usecase"
	"github.com/precisionrag/backend/internal/infrastructure/chunking"
	"github.com/precisionrag/backend/internal/infrastructure/extractor"
	"github.com/precisionrag/backend/internal/infrastructure/llm/ollama"
	"github.com/precisionrag/backend/internal/infrastructure/llm/openaichat"
	"github.com/precisionrag/backend/internal/infrastructure/queue/nats"
	"github.com/precisionrag/backend/internal/infrastructure/repository/postgres"
	"github.com/precisionrag/backend/internal/infrastructure/rerank"
	"github.com/precisionrag/backend/internal/infrastructure/resilience"
	"github.com/precisionrag/backend/internal/infrastructure/sparse/bm25"
	"github.com/precisionrag/backend/internal/infrastructure/storage/localfs"
	"github.com/precisionrag/backend/internal/infrastructure/vector/qdrant"
)

// App wires the full dependency graph once for both binaries. The api
// binary serves the HTTP surface; the worker consumes reindex triggers
// and runs rebuilds. Both share the same composition so inline mode
// (queue disabled) behaves identically to queued mode.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository

	UploadUC  ports.DocumentIngestor
	ChatUC    ports.ChatService
	ReindexUC *usecase.ReindexUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resCfg := resilience.DefaultConfig()
	resCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	exec := resilience.NewExecutor(resCfg, logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	runRepo := postgres.NewIngestionRunRepository(db)

	corpusStorage, err := localfs.New(cfg.CorpusDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init corpus storage: %w", err)
	}

	bm25Store, err := bm25.NewStore(cfg.BM25IndexPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open bm25 index: %w", err)
	}

	var (
		queue     ports.MessageQueue
		natsQueue *nats.Queue
	)
	if cfg.NATSEnabled {
		natsQueue, err = nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: exec,
			Logger:             logger,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		queue = natsQueue
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, exec)
	embedder := ollama.NewEmbedder(ollamaClient, cfg.EmbedBatchesPerSecond)
	generator := ollama.NewGenerator(ollamaClient)

	denseIndex := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantAlias, cfg.QdrantVectorSize)
	encoder := rerank.New(cfg.RerankURL, exec)
	backends := openaichat.NewFactory(generator, cfg.GroqAPIKey)

	loader := extractor.NewLoader(cfg.CorpusDir, logger)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	uploadUC := usecase.NewUploadDocumentUseCase(docRepo, corpusStorage)
	retrieveUC := usecase.NewHybridRetrieveUseCase(embedder, denseIndex, bm25Store, cfg.RetrievalTopN)
	rerankUC := usecase.NewRerankUseCase(encoder, cfg.RerankTopK)
	chatUC := usecase.NewChatUseCase(retrieveUC, rerankUC, backends)
	reindexUC := usecase.NewReindexUseCase(runRepo, queue, loader, chunker, embedder, denseIndex, bm25Store, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Documents: docRepo,

		UploadUC:  uploadUC,
		ChatUC:    chatUC,
		ReindexUC: reindexUC,

		closeFn: func() {
			if natsQueue != nil {
				natsQueue.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
