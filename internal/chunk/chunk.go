// Package chunk splits article text into overlapping word windows, the unit
// of embedding and indexing.
package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// Default chunking parameters, matching the index's reference deployment.
const (
	DefaultSize    = 600
	DefaultOverlap = 100
)

// ErrInvalidParams indicates size/overlap values that would not terminate.
var ErrInvalidParams = errors.New("invalid chunk parameters")

// Split splits text into overlapping word windows.
//
// The text is split on whitespace into words; windows of up to size words
// are emitted, joined by single spaces, with each window starting
// size-overlap words after the previous one. The final window may be
// shorter. Boundaries are always word-aligned and the output is
// deterministic for the same input.
//
// overlap must be smaller than size (the advance would otherwise be
// non-positive); violating this is a configuration error reported here,
// never silently adjusted. Empty or all-whitespace text yields no chunks.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidParams, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got %d/%d",
			ErrInvalidParams, overlap, size)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := size - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks, nil
}

// SplitDefault splits text with the default size and overlap.
func SplitDefault(text string) []string {
	chunks, err := Split(text, DefaultSize, DefaultOverlap)
	if err != nil {
		// Defaults are known-valid; an error here is a bug.
		panic(err)
	}
	return chunks
}
