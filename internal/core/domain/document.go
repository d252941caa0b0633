package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusIndexed  DocumentStatus = "indexed"
	StatusSkipped  DocumentStatus = "skipped"
)

// Document is the metadata record of one uploaded corpus file. The file
// itself lives in the corpus directory; this record tracks whether the
// last ingestion run managed to index it.
type Document struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	MimeType  string         `json:"mime_type"`
	CorpusKey string         `json:"corpus_key"`
	Status    DocumentStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type IngestionRunStatus string

const (
	RunRunning   IngestionRunStatus = "running"
	RunSucceeded IngestionRunStatus = "succeeded"
	RunFailed    IngestionRunStatus = "failed"
)

// IngestionRun records one full corpus rebuild: how many documents were
// loaded, how many chunks both indexes received, and how it ended. An
// empty corpus still produces a succeeded run with zero counts.
type IngestionRun struct {
	ID         string             `json:"id"`
	Status     IngestionRunStatus `json:"status"`
	Documents  int                `json:"documents"`
	Chunks     int                `json:"chunks"`
	Error      string             `json:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}
