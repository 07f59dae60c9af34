package ingest

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestSplitGroupsSentencesWithOverlap(t *testing.T) {
	c := newSentenceChunker(2, 1)
	text := "One. Two. Three. Four."

	chunks := c.split(text)

	assert.DeepEqual(t, chunks, []string{
		"One. Two.",
		"Two. Three.",
		"Three. Four.",
	})
}

func TestSplitNoOverlap(t *testing.T) {
	c := newSentenceChunker(2, 0)
	chunks := c.split("One. Two. Three.")

	assert.DeepEqual(t, chunks, []string{"One. Two.", "Three."})
}

func TestSplitHandlesQuestionAndExclamationMarks(t *testing.T) {
	c := newSentenceChunker(3, 0)
	chunks := c.split("Really? Yes! It works.")

	assert.Equal(t, len(chunks), 1)
	assert.Equal(t, chunks[0], "Really? Yes! It works.")
}

func TestSplitTextWithoutTerminators(t *testing.T) {
	c := newSentenceChunker(5, 1)
	chunks := c.split("a bare heading with no punctuation")

	assert.Equal(t, len(chunks), 1)
	assert.Equal(t, chunks[0], "a bare heading with no punctuation")
}

func TestSplitEmptyInput(t *testing.T) {
	c := newSentenceChunker(5, 1)
	assert.Equal(t, len(c.split("")), 0)
	assert.Equal(t, len(c.split("   \n\t")), 0)
}

func TestSplitClampsOverlapToChunkSize(t *testing.T) {
	// overlap >= chunk size would re-chunk the same window forever;
	// it must be clamped so the window always advances
	for _, overlap := range []int{2, 3, 10} {
		c := newSentenceChunker(2, overlap)
		chunks := c.split("One. Two. Three.")

		assert.DeepEqual(t, chunks, []string{"One. Two.", "Two. Three."})
	}
}

func TestSplitDefaultsChunkSize(t *testing.T) {
	c := newSentenceChunker(0, -1)
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("Sentence. ")
	}
	chunks := c.split(b.String())

	assert.Equal(t, len(chunks), 2)
}
