package ports

import (
	"context"
	"io"

	"github.com/precisionrag/backend/internal/core/domain"
)

// DocumentIngestor is the inbound contract for corpus file upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// ChatService is the inbound contract for the query-time RAG pipeline.
type ChatService interface {
	Chat(ctx context.Context, question, backendChoice, apiKey string) (*domain.Answer, error)
}

// ReindexTrigger requests a full corpus rebuild. It returns the run id
// once the rebuild is accepted; a rebuild already in flight is kind
// domain.ErrIngestionBusy.
type ReindexTrigger interface {
	TriggerReindex(ctx context.Context) (string, error)
}

// Reindexer executes one full rebuild run. The worker drives it from
// queue messages; with the queue disabled the trigger drives it inline.
type Reindexer interface {
	Rebuild(ctx context.Context, runID string) error
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
