package ingest

import (
	"time"
	"unicode/utf8"

	"github.com/davidmtz-dev/hrassist/internal/core"
	"github.com/davidmtz-dev/hrassist/internal/models"
)

// previewChars is how much of a chunk is kept as a human-readable preview
// in the stored metadata.
const previewChars = 150

// BuildFileMetadata maps a discovered document to the file-level attribute
// set stored on each of its chunks. processedAt is the moment this
// ingestion pass started.
func BuildFileMetadata(doc models.Document, processedAt time.Time) models.FileMetadata {
	return models.FileMetadata{
		FileName:        doc.FileName,
		FilePath:        doc.Path,
		AbsolutePath:    doc.AbsolutePath,
		FileType:        doc.FileType,
		FileSizeBytes:   doc.SizeBytes,
		CreatedAtUnix:   doc.CreatedAt.UnixNano(),
		ModifiedAtUnix:  doc.ModifiedAt.UnixNano(),
		ProcessedAtUnix: processedAt.UnixNano(),
	}
}

// BuildChunkMetadata merges file-level metadata with the attributes of one
// chunk. The fixed field set keeps chunk keys from ever colliding with
// file keys.
func BuildChunkMetadata(tok core.Tokenizer, text string, position, total int, fileMeta models.FileMetadata, provenance string) models.ChunkMetadata {
	return models.ChunkMetadata{
		FileMetadata:     fileMeta,
		ChunkNumber:      position,
		TotalChunks:      total,
		CharLength:       utf8.RuneCountInString(text),
		TokenCount:       tok.CountTokens(text),
		Preview:          models.Preview(text, previewChars),
		ExtractionMethod: provenance,
	}
}
