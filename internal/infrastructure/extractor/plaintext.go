package extractor

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// extractPlaintext reads a UTF-8 text file as a single page.
func extractPlaintext(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("not valid utf-8 text")
	}
	return []string{string(raw)}, nil
}
