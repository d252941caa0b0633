package usecase

import (
	"strings"

	"github.com/precisionrag/backend/internal/core/domain"
)

// AssembleContext concatenates the context window's texts, separated by
// a blank line, in window order. Pure; assembling the same window twice
// yields identical strings.
func AssembleContext(window []domain.Chunk) string {
	texts := make([]string, len(window))
	for i, chunk := range window {
		texts[i] = chunk.Text
	}
	return strings.Join(texts, "\n\n")
}
