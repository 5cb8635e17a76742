package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidmtz-dev/hrassist/internal/core"
	"github.com/davidmtz-dev/hrassist/internal/models"
)

// Stats summarizes one ingestion sweep.
type Stats struct {
	FilesSeen     int
	FilesSkipped  int
	FilesUpToDate int
	FilesIngested int
	FilesFailed   int
	ChunksWritten int
}

// Ingestor sweeps a flat document directory, re-ingesting any document
// whose on-disk modified timestamp differs from the one recorded on its
// stored chunks. Documents are processed one at a time; a failure on one
// document never aborts the rest of the batch.
type Ingestor struct {
	store          core.Collection
	extractors     map[string]core.TextExtractor // keyed by lowercased extension
	chunker        *Chunker
	tok            core.Tokenizer
	forceReprocess bool
}

func NewIngestor(store core.Collection, extractors map[string]core.TextExtractor, chunker *Chunker, tok core.Tokenizer, forceReprocess bool) *Ingestor {
	return &Ingestor{
		store:          store,
		extractors:     extractors,
		chunker:        chunker,
		tok:            tok,
		forceReprocess: forceReprocess,
	}
}

// Run processes every supported file in docsDir. Only a missing or
// unreadable directory fails the run as a whole.
func (in *Ingestor) Run(ctx context.Context, docsDir string) (Stats, error) {
	runID := uuid.NewString()[:8]
	log.Printf("[run %s] starting document sweep of %s (force reprocess: %t)", runID, docsDir, in.forceReprocess)

	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return Stats{}, fmt.Errorf("read docs dir %s: %w", docsDir, err)
	}

	var stats Stats
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stats.FilesSeen++
		in.processFile(ctx, runID, filepath.Join(docsDir, entry.Name()), &stats)
	}

	log.Printf("[run %s] sweep done: %d seen, %d ingested, %d up to date, %d skipped, %d failed, %d chunks written",
		runID, stats.FilesSeen, stats.FilesIngested, stats.FilesUpToDate, stats.FilesSkipped, stats.FilesFailed, stats.ChunksWritten)

	if total, err := in.store.Count(ctx); err != nil {
		log.Printf("[run %s] could not read collection count: %v", runID, err)
	} else {
		log.Printf("[run %s] collection now holds %d chunks", runID, total)
	}
	return stats, nil
}

func (in *Ingestor) processFile(ctx context.Context, runID, path string, stats *Stats) {
	fileName := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(fileName))

	extractor, ok := in.extractors[ext]
	if !ok {
		log.Printf("[run %s] %s: unsupported file type, skipping", runID, fileName)
		stats.FilesSkipped++
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Printf("[run %s] %s: stat failed: %v", runID, fileName, err)
		stats.FilesFailed++
		return
	}
	doc := statDocument(path, fileName, ext, info)
	processedAt := time.Now()

	// Staleness check against the metadata stored on any existing chunks.
	// All chunks of one ingested version carry the same modified timestamp,
	// so inspecting the first is enough.
	existing, err := in.store.GetByFileName(ctx, fileName)
	if err != nil {
		log.Printf("[run %s] %s: could not check existing chunks (%v), will process", runID, fileName, err)
		existing = nil
	}
	if len(existing) > 0 && !in.forceReprocess {
		if existing[0].Metadata.ModifiedAtUnix == doc.ModifiedAt.UnixNano() {
			log.Printf("[run %s] %s: unchanged since last load, skipping", runID, fileName)
			stats.FilesUpToDate++
			return
		}
		log.Printf("[run %s] %s: modified since last load, reprocessing", runID, fileName)
	}

	// Extract before touching the store: a failed or empty extraction must
	// leave previously stored chunks intact.
	extracted, err := extractor.Extract(ctx, doc.Path)
	if err != nil {
		log.Printf("[run %s] %s: extraction failed: %v", runID, fileName, err)
		stats.FilesFailed++
		return
	}
	if strings.TrimSpace(extracted.Text) == "" {
		log.Printf("[run %s] %s: no text extracted, skipping", runID, fileName)
		stats.FilesSkipped++
		return
	}

	normalized := Normalize(extracted.Text)
	chunks := in.chunker.Split(normalized)
	if len(chunks) == 0 {
		log.Printf("[run %s] %s: text was not empty but produced 0 chunks, skipping", runID, fileName)
		stats.FilesSkipped++
		return
	}

	fileMeta := BuildFileMetadata(doc, processedAt)
	stamp := ingestionStamp(processedAt)
	records := make([]models.ChunkRecord, 0, len(chunks))
	for i, text := range chunks {
		records = append(records, models.ChunkRecord{
			ID:       fmt.Sprintf("%s_chunk_%d_%s", fileName, i, stamp),
			Text:     text,
			Metadata: BuildChunkMetadata(in.tok, text, i, len(chunks), fileMeta, extracted.Provenance),
		})
	}

	// Supersede: delete the old chunk ids, then insert the new batch.
	// External readers may transiently see zero chunks for this document.
	if len(existing) > 0 {
		ids := make([]string, len(existing))
		for i, sc := range existing {
			ids[i] = sc.ID
		}
		if err := in.store.DeleteByIDs(ctx, ids); err != nil {
			log.Printf("[run %s] %s: deleting %d old chunks failed (%v), continuing with insert", runID, fileName, len(ids), err)
		} else {
			log.Printf("[run %s] %s: deleted %d superseded chunks", runID, fileName, len(ids))
		}
	}

	if err := in.store.Upsert(ctx, records); err != nil {
		log.Printf("[run %s] %s: upsert of %d chunks failed: %v", runID, fileName, len(records), err)
		stats.FilesFailed++
		return
	}

	log.Printf("[run %s] %s: ingested %d chunks (%s extraction)", runID, fileName, len(records), extracted.Provenance)
	stats.FilesIngested++
	stats.ChunksWritten += len(records)
}

// ingestionStamp renders the per-document pass timestamp embedded in chunk
// ids, microsecond precision.
func ingestionStamp(t time.Time) string {
	return t.Format("20060102150405") + fmt.Sprintf("%06d", t.Nanosecond()/1000)
}

func statDocument(path, fileName, ext string, info os.FileInfo) models.Document {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return models.Document{
		FileName:     fileName,
		Path:         path,
		AbsolutePath: abs,
		FileType:     ext,
		SizeBytes:    info.Size(),
		CreatedAt:    createdAt(info),
		ModifiedAt:   info.ModTime(),
	}
}
