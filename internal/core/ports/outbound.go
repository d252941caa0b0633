package ports

import (
	"context"
	"io"

	"github.com/precisionrag/backend/internal/core/domain"
)

// DocumentRepository persists metadata for uploaded corpus files.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// IngestionRunRepository records full-rebuild runs and their outcome.
type IngestionRunRepository interface {
	Create(ctx context.Context, run *domain.IngestionRun) error
	Finish(ctx context.Context, id string, status domain.IngestionRunStatus, documents, chunks int, errMessage string) error
}

// CorpusStorage stores raw corpus files under the corpus directory.
type CorpusStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
}

// CorpusLoader reads every loadable document under the corpus directory.
// Unreadable files are skipped, not fatal.
type CorpusLoader interface {
	Load(ctx context.Context) ([]SourceDocument, error)
}

// SourceDocument is one corpus file split into page texts. Formats
// without a page concept yield a single page.
type SourceDocument struct {
	Source string
	Pages  []string
}

// MessageQueue carries reindex triggers from the API to the worker.
type MessageQueue interface {
	PublishReindexRequested(ctx context.Context, runID string) error
	SubscribeReindexRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// Embedder builds vectors for chunk texts and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits one page of text into overlapping windows.
type Chunker interface {
	Split(text string) []string
}

// DenseIndex is the vector similarity side of retrieval. ReplaceAll
// rebuilds the index from scratch and must swap atomically so searches
// never observe a half-built state. Search returns kind
// domain.ErrIndexUnavailable when no rebuild has ever completed.
type DenseIndex interface {
	ReplaceAll(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.Chunk, error)
}

// SparseIndex is the lexical (BM25) side of retrieval, with the same
// rebuild-and-swap and availability contract as DenseIndex.
type SparseIndex interface {
	ReplaceAll(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, query string, k int) ([]domain.Chunk, error)
}

// CrossEncoder jointly scores (query, text) pairs for relevance. The
// returned slice is parallel to texts.
type CrossEncoder interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// ChatBackend produces a completion for a fully assembled prompt.
type ChatBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatBackendFactory resolves a caller-supplied backend identifier and
// optional credential into a usable backend. Unknown identifiers are
// kind domain.ErrInvalidInput; a missing required credential is kind
// domain.ErrConfiguration.
type ChatBackendFactory interface {
	Backend(choice string, apiKey string) (ChatBackend, error)
}
