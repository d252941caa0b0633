package extractor

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/precisionrag/backend/internal/core/ports"
)

// extractFunc turns one corpus file into page texts.
type extractFunc func(path string) ([]string, error)

// Loader walks the corpus directory and extracts text from every file
// it knows how to read. A file that fails extraction is logged and
// skipped; it never fails the whole run.
type Loader struct {
	dir        string
	logger     *slog.Logger
	extractors map[string]extractFunc
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		dir:    dir,
		logger: logger,
		extractors: map[string]extractFunc{
			".pdf":  extractPDF,
			".txt":  extractPlaintext,
			".md":   extractPlaintext,
			".xlsx": extractXLSX,
		},
	}
}

func (l *Loader) Load(ctx context.Context) ([]ports.SourceDocument, error) {
	var docs []ports.SourceDocument

	err := filepath.WalkDir(l.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := entry.Name()
		if entry.IsDir() {
			if path != l.dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		extract, ok := l.extractors[strings.ToLower(filepath.Ext(name))]
		if !ok {
			l.logger.Debug("skipping unsupported corpus file", "file", name)
			return nil
		}

		pages, extractErr := extract(path)
		if extractErr != nil {
			l.logger.Warn("skipping unreadable corpus file", "file", name, "error", extractErr)
			return nil
		}

		pages = dropBlankPages(pages)
		if len(pages) == 0 {
			l.logger.Debug("skipping empty corpus file", "file", name)
			return nil
		}

		// Source is the path relative to the corpus dir, so same-named
		// files in different subdirectories stay distinguishable.
		source, relErr := filepath.Rel(l.dir, path)
		if relErr != nil {
			source = name
		}

		docs = append(docs, ports.SourceDocument{
			Source: source,
			Pages:  pages,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func dropBlankPages(pages []string) []string {
	out := make([]string, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			out = append(out, page)
		}
	}
	return out
}
