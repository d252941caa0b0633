package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/precisionrag/backend/internal/core/domain"
)

func newRunRepoWithMock(t *testing.T) (*IngestionRunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &IngestionRunRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateInsertsRun(t *testing.T) {
	repo, mock, done := newRunRepoWithMock(t)
	defer done()

	started := time.Now().UTC()
	mock.ExpectExec("INSERT INTO ingestion_runs").
		WithArgs("run-1", string(domain.RunRunning), 0, 0, "", started).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.IngestionRun{
		ID:        "run-1",
		Status:    domain.RunRunning,
		StartedAt: started,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishUpdatesCountsAndStatus(t *testing.T) {
	repo, mock, done := newRunRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE ingestion_runs").
		WithArgs("run-1", string(domain.RunSucceeded), 4, 120, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), "run-1", domain.RunSucceeded, 4, 120, ""); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	repo, mock, done := newRunRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE ingestion_runs").
		WithArgs("ghost", string(domain.RunFailed), 0, 0, "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Finish(context.Background(), "ghost", domain.RunFailed, 0, 0, "boom"); err == nil {
		t.Fatalf("expected error for unknown run")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
