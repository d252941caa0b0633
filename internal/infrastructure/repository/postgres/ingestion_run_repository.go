package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/precisionrag/backend/internal/core/domain"
)

type IngestionRunRepository struct {
	db *sql.DB
}

func NewIngestionRunRepository(db *sql.DB) *IngestionRunRepository {
	return &IngestionRunRepository{db: db}
}

func (r *IngestionRunRepository) Create(ctx context.Context, run *domain.IngestionRun) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ingestion_runs (id, status, documents, chunks, error_message, started_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		run.ID, string(run.Status), run.Documents, run.Chunks, run.Error, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ingestion run: %w", err)
	}
	return nil
}

func (r *IngestionRunRepository) Finish(ctx context.Context, id string, status domain.IngestionRunStatus, documents, chunks int, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE ingestion_runs
SET status = $2, documents = $3, chunks = $4, error_message = $5, finished_at = $6
WHERE id = $1
`, id, string(status), documents, chunks, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("finish ingestion run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish ingestion run affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish ingestion run: unknown run %s", id)
	}
	return nil
}
