package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"hybridqa/internal/vectorstore/memory"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return []float32{1, 0, 0}, nil
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestFilesStoresChunks(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "notes.txt", "First sentence. Second sentence. Third sentence.")
	writeDoc(t, dir, "readme.md", "A markdown file. With two sentences.")
	writeDoc(t, dir, "image.png", "binary-ish content that must be skipped")

	emb := &countingEmbedder{}
	store := memory.New()
	p := New(emb, store, 2, 0, nil)

	n, err := p.IngestFiles(context.Background(), []string{filepath.Join(dir, "*")})

	assert.NilError(t, err)
	// notes.txt -> 2 chunks, readme.md -> 1 chunk, png skipped
	assert.Equal(t, n, 3)
	assert.Equal(t, emb.calls, 3)

	got, err := store.Search(context.Background(), []float32{1, 0, 0}, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 3)
}

func TestIngestFilesChunkIndexesAreSequential(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "One. Two. Three. Four.")

	store := memory.New()
	p := New(&countingEmbedder{}, store, 1, 0, nil)

	n, err := p.IngestFiles(context.Background(), []string{filepath.Join(dir, "a.txt")})
	assert.NilError(t, err)
	assert.Equal(t, n, 4)

	got, err := store.Search(context.Background(), []float32{1, 0, 0}, 10)
	assert.NilError(t, err)
	for i, sc := range got {
		assert.Equal(t, sc.Chunk.ChunkIndex, i)
		assert.Equal(t, sc.Chunk.Filename, "a.txt")
	}
}

func TestIngestFilesNoMatchingDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "data.csv", "a,b,c")

	p := New(&countingEmbedder{}, memory.New(), 2, 0, nil)
	_, err := p.IngestFiles(context.Background(), []string{filepath.Join(dir, "*")})

	assert.ErrorContains(t, err, "no .txt or .md documents")
}

func TestIngestFilesSkipsEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "empty.txt", "   \n")
	writeDoc(t, dir, "real.txt", "Content here.")

	p := New(&countingEmbedder{}, memory.New(), 2, 0, nil)
	n, err := p.IngestFiles(context.Background(), []string{filepath.Join(dir, "*.txt")})

	assert.NilError(t, err)
	assert.Equal(t, n, 1)
}
