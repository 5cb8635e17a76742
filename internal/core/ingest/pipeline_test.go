package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidmtz-dev/hrassist/internal/core"
	"github.com/davidmtz-dev/hrassist/internal/models"
)

// memCollection is an in-memory core.Collection that records mutations,
// so tests can assert exactly what a sweep touched.
type memCollection struct {
	chunks map[string]models.ChunkRecord

	upsertCalls int
	deleteCalls int
	deletedIDs  []string
	getErr      error
	upsertErr   error
}

func newMemCollection() *memCollection {
	return &memCollection{chunks: make(map[string]models.ChunkRecord)}
}

func (m *memCollection) Upsert(_ context.Context, records []models.ChunkRecord) error {
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, r := range records {
		m.chunks[r.ID] = r
	}
	return nil
}

func (m *memCollection) GetByFileName(_ context.Context, fileName string) ([]models.StoredChunk, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []models.StoredChunk
	for id, r := range m.chunks {
		if r.Metadata.FileName == fileName {
			out = append(out, models.StoredChunk{ID: id, Metadata: r.Metadata})
		}
	}
	return out, nil
}

func (m *memCollection) DeleteByIDs(_ context.Context, ids []string) error {
	m.deleteCalls++
	m.deletedIDs = append(m.deletedIDs, ids...)
	for _, id := range ids {
		delete(m.chunks, id)
	}
	return nil
}

func (m *memCollection) Query(context.Context, string, int) ([]models.ScoredChunk, error) {
	return nil, nil
}

func (m *memCollection) Count(context.Context) (int64, error) {
	return int64(len(m.chunks)), nil
}

func (m *memCollection) ListDocuments(context.Context) ([]models.DocumentSummary, error) {
	return nil, nil
}

// stubExtractor returns fixed text, or an error when set.
type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) Extract(context.Context, string) (models.ExtractedText, error) {
	s.calls++
	if s.err != nil {
		return models.ExtractedText{}, s.err
	}
	return models.ExtractedText{Text: s.text, Provenance: models.ProvenanceDigital}, nil
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestIngestor(store core.Collection, ext core.TextExtractor, force bool) *Ingestor {
	tok := runeTokenizer{}
	extractors := map[string]core.TextExtractor{".txt": ext}
	return NewIngestor(store, extractors, NewChunker(tok, 1500, 300, 8000), tok, force)
}

func TestRun_MissingDirectory(t *testing.T) {
	in := newTestIngestor(newMemCollection(), &stubExtractor{}, false)
	_, err := in.Run(context.Background(), "/nonexistent/docs")
	assert.Error(t, err)
}

func TestRun_FreshIngest(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "handbook.txt", "placeholder")

	store := newMemCollection()
	ext := &stubExtractor{text: "Vacation policy.\n\nSick leave policy."}
	in := newTestIngestor(store, ext, false)

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesSeen)
	assert.Equal(t, 1, stats.FilesIngested)
	assert.Equal(t, 1, stats.ChunksWritten)
	require.Len(t, store.chunks, 1)

	for id, r := range store.chunks {
		assert.Contains(t, id, "handbook.txt_chunk_0_")
		assert.Equal(t, "Vacation policy.\n\nSick leave policy.", r.Text)
		assert.Equal(t, "handbook.txt", r.Metadata.FileName)
		assert.Equal(t, 1, r.Metadata.TotalChunks)
		assert.Equal(t, models.ProvenanceDigital, r.Metadata.ExtractionMethod)
	}
}

func TestRun_SecondSweepIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "handbook.txt", "placeholder")

	store := newMemCollection()
	ext := &stubExtractor{text: "Vacation policy."}
	in := newTestIngestor(store, ext, false)

	_, err := in.Run(context.Background(), dir)
	require.NoError(t, err)
	countAfterFirst, _ := store.Count(context.Background())

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesUpToDate)
	assert.Equal(t, 0, stats.FilesIngested)
	assert.Equal(t, 1, ext.calls, "unchanged file must not be re-extracted")
	assert.Equal(t, 1, store.upsertCalls)
	assert.Equal(t, 0, store.deleteCalls)

	countAfterSecond, _ := store.Count(context.Background())
	assert.Equal(t, countAfterFirst, countAfterSecond)
}

func TestRun_ModifiedFileSupersedesOldChunks(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "handbook.txt", "v1")

	store := newMemCollection()
	ext := &stubExtractor{text: "Version one."}
	in := newTestIngestor(store, ext, false)

	_, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	var oldIDs []string
	for id := range store.chunks {
		oldIDs = append(oldIDs, id)
	}

	// Bump the mtime past the recorded one.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	ext.text = "Version two."

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	assert.Equal(t, 1, store.deleteCalls)
	assert.ElementsMatch(t, oldIDs, store.deletedIDs)

	info, err := os.Stat(path)
	require.NoError(t, err)

	require.Len(t, store.chunks, 1)
	for id, r := range store.chunks {
		assert.NotContains(t, oldIDs, id)
		assert.Equal(t, "Version two.", r.Text)
		assert.Equal(t, info.ModTime().UnixNano(), r.Metadata.ModifiedAtUnix)
	}
}

func TestRun_ForceReprocessIgnoresStaleness(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "handbook.txt", "same")

	store := newMemCollection()
	ext := &stubExtractor{text: "Same content."}
	in := newTestIngestor(store, ext, true)

	_, err := in.Run(context.Background(), dir)
	require.NoError(t, err)
	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	assert.Equal(t, 0, stats.FilesUpToDate)
	assert.Equal(t, 2, ext.calls)
}

func TestRun_ExtractionFailureKeepsExistingChunks(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "handbook.txt", "v1")

	store := newMemCollection()
	ext := &stubExtractor{text: "Version one."}
	in := newTestIngestor(store, ext, false)

	_, err := in.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, store.chunks, 1)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	ext.err = errors.New("corrupt file")

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 0, store.deleteCalls, "failed extraction must not delete stored chunks")
	assert.Len(t, store.chunks, 1)
}

func TestRun_EmptyExtractionSkipsWithoutMutation(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "blank.txt", "x")

	store := newMemCollection()
	ext := &stubExtractor{text: "   \n\n  "}
	in := newTestIngestor(store, ext, false)

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 0, store.upsertCalls)
	assert.Equal(t, 0, store.deleteCalls)
}

func TestRun_UnsupportedExtensionSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "photo.jpg", "binary")

	store := newMemCollection()
	ext := &stubExtractor{text: "irrelevant"}
	in := newTestIngestor(store, ext, false)

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 0, ext.calls)
}

func TestRun_SubdirectoriesIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))
	writeDoc(t, dir, "handbook.txt", "x")

	store := newMemCollection()
	in := newTestIngestor(store, &stubExtractor{text: "Policy."}, false)

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesSeen)
}

func TestRun_LookupErrorStillProcesses(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "handbook.txt", "x")

	store := newMemCollection()
	store.getErr = fmt.Errorf("connection reset")
	ext := &stubExtractor{text: "Policy."}
	in := newTestIngestor(store, ext, false)

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	assert.Equal(t, 1, ext.calls)
}

func TestRun_UpsertFailureCountsAndLogs(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "handbook.txt", "x")

	store := newMemCollection()
	store.upsertErr = errors.New("connection refused")
	in := newTestIngestor(store, &stubExtractor{text: "Policy."}, false)

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	stats, err := in.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 0, stats.ChunksWritten)
	assert.Empty(t, store.chunks)
	assert.Contains(t, logs.String(), "handbook.txt: upsert of 1 chunks failed: connection refused")
}

func TestIngestionStamp(t *testing.T) {
	ts := time.Date(2024, 6, 16, 8, 30, 45, 123456789, time.UTC)
	assert.Equal(t, "20240616083045123456", ingestionStamp(ts))
}
