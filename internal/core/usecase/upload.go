package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/precisionrag/backend/internal/core/domain"
	"github.com/precisionrag/backend/internal/core/ports"
)

// UploadDocumentUseCase saves an uploaded file into the corpus
// directory and records its metadata. The file only enters the indexes
// on the next reindex run.
type UploadDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.CorpusStorage
}

func NewUploadDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.CorpusStorage,
) *UploadDocumentUseCase {
	return &UploadDocumentUseCase{
		repo:    repo,
		storage: storage,
	}
}

func (uc *UploadDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	corpusKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, corpusKey, body); err != nil {
		return nil, fmt.Errorf("save to corpus: %w", err)
	}

	doc := &domain.Document{
		ID:        id,
		Filename:  filename,
		MimeType:  mimeType,
		CorpusKey: corpusKey,
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
