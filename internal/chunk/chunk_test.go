package chunk

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nWords builds a deterministic text of n distinct words.
func nWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplit_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := Split(text, DefaultSize, DefaultOverlap)
		require.NoError(t, err)
		assert.Empty(t, chunks, "input %q should yield no chunks", text)
	}
}

func TestSplit_InvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text", tt.size, tt.overlap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParams))
		})
	}
}

func TestSplit_ShortText(t *testing.T) {
	chunks, err := Split("just a few words", DefaultSize, DefaultOverlap)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a few words", chunks[0])
}

func TestSplit_NormalizesWhitespace(t *testing.T) {
	chunks, err := Split("one\t\ttwo\n three   four", 10, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "one two three four", chunks[0])
}

// A 1400-word article with the default 600/100 parameters yields windows
// starting at words 0, 500 and 1000: lengths 600, 600 and 400, each pair
// of consecutive windows sharing exactly 100 words.
func TestSplit_DefaultWindowing(t *testing.T) {
	text := nWords(1400)

	chunks, err := Split(text, DefaultSize, DefaultOverlap)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	wantLens := []int{600, 600, 400}
	for i, c := range chunks {
		assert.Len(t, strings.Fields(c), wantLens[i], "chunk %d", i)
	}

	// Consecutive chunks share exactly overlap words.
	for i := 0; i < len(chunks)-1; i++ {
		cur := strings.Fields(chunks[i])
		next := strings.Fields(chunks[i+1])
		tail := cur[len(cur)-DefaultOverlap:]
		head := next[:DefaultOverlap]
		assert.Equal(t, tail, head, "overlap between chunks %d and %d", i, i+1)
	}
}

// Concatenating each chunk's non-overlapping suffix onto the first chunk
// reconstructs the original word sequence exactly.
func TestSplit_Reconstruction(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		size    int
		overlap int
	}{
		{"exact multiple", 1000, 200, 50},
		{"with remainder", 1234, 200, 50},
		{"tiny windows", 57, 8, 3},
		{"no overlap", 301, 100, 0},
		{"single window", 99, 100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := nWords(tt.n)
			chunks, err := Split(text, tt.size, tt.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			step := tt.size - tt.overlap
			var rebuilt []string
			for i, c := range chunks {
				words := strings.Fields(c)
				assert.LessOrEqual(t, len(words), tt.size, "chunk %d exceeds size", i)

				// Chunk i starts at word i*step; everything up to
				// len(rebuilt) is already accounted for.
				shared := len(rebuilt) - i*step
				require.GreaterOrEqual(t, shared, 0, "chunk %d leaves a gap", i)
				require.LessOrEqual(t, shared, len(words), "chunk %d fully contained", i)
				rebuilt = append(rebuilt, words[shared:]...)
			}
			assert.Equal(t, strings.Fields(text), rebuilt)
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := nWords(777)

	first, err := Split(text, 120, 30)
	require.NoError(t, err)
	second, err := Split(text, 120, 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplitDefault(t *testing.T) {
	chunks := SplitDefault(nWords(700))
	require.Len(t, chunks, 2)
	assert.Len(t, strings.Fields(chunks[1]), 200)
}
