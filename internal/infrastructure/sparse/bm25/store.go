package bm25

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/precisionrag/backend/internal/core/domain"
)

// Store is a file-backed BM25 index. Queries run against an immutable
// in-memory snapshot; ReplaceAll builds a fresh snapshot, persists it
// with a write-then-rename, and swaps it in atomically, so searches
// never observe a half-built index.
type Store struct {
	path    string
	current atomic.Pointer[snapshot]
}

// NewStore opens the index file at path if one exists from a previous
// run. A missing file is not an error: the store starts unavailable
// until the first rebuild.
func NewStore(path string) (*Store, error) {
	st := &Store{path: path}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open bm25 index: %w", err)
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode bm25 index: %w", err)
	}
	st.current.Store(&snap)
	return st, nil
}

func (st *Store) ReplaceAll(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := buildSnapshot(chunks)
	if err := st.persist(snap); err != nil {
		return fmt.Errorf("persist bm25 index: %w", err)
	}
	st.current.Store(snap)
	return nil
}

func (st *Store) Search(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := st.current.Load()
	if snap == nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "bm25 search", errors.New("no index built yet"))
	}
	return snap.search(query, k), nil
}

// persist writes the snapshot next to the target file and renames it
// into place, so a crash mid-write leaves the previous file intact.
func (st *Store) persist(snap *snapshot) error {
	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "bm25-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), st.path)
}
