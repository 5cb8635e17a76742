package models

import (
	"strings"
	"time"
)

// Extraction provenance values recorded on ExtractedText and chunk metadata.
const (
	ProvenanceDigital = "digital"
	ProvenanceOCR     = "ocr"
)

// Document represents one source file discovered in the corpus directory.
// FileName is the unique key within the corpus; ModifiedAt drives the
// staleness check against previously stored chunk metadata.
type Document struct {
	FileName     string
	Path         string
	AbsolutePath string
	FileType     string // lowercased extension, e.g. ".pdf"
	SizeBytes    int64
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// ExtractedText is the raw text recovered from a document plus its
// provenance. Transient: produced once per ingestion pass, never persisted.
type ExtractedText struct {
	Text       string
	Provenance string
}

// FileMetadata is the per-file attribute set stored alongside every chunk
// of that file.
type FileMetadata struct {
	FileName        string `json:"file_name"`
	FilePath        string `json:"file_path"`
	AbsolutePath    string `json:"absolute_path"`
	FileType        string `json:"file_type"`
	FileSizeBytes   int64  `json:"file_size_bytes"`
	CreatedAtUnix   int64  `json:"created_at_unix"`
	ModifiedAtUnix  int64  `json:"modified_at_unix"`
	ProcessedAtUnix int64  `json:"processed_at_unix"`
}

// ChunkMetadata merges file-level and chunk-level attributes into one fixed
// field set, so chunk keys can never collide with file keys.
type ChunkMetadata struct {
	FileMetadata

	ChunkNumber      int    `json:"chunk_number"`
	TotalChunks      int    `json:"total_chunks_in_doc"`
	CharLength       int    `json:"chunk_char_length"`
	TokenCount       int    `json:"chunk_token_count"`
	Preview          string `json:"chunk_preview"`
	ExtractionMethod string `json:"extraction_method"`
}

// ChunkRecord is one chunk ready for embedding and storage.
type ChunkRecord struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
}

// StoredChunk is a chunk as read back from the collection: id plus the
// metadata the staleness check and deletion rely on.
type StoredChunk struct {
	ID       string
	Metadata ChunkMetadata
}

// ScoredChunk is a retrieval hit with its distance from the query.
type ScoredChunk struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
	Distance float64
}

// DocumentSummary aggregates the stored chunks of one document.
type DocumentSummary struct {
	FileName       string    `json:"file_name"`
	FileType       string    `json:"file_type"`
	ChunkCount     int       `json:"chunk_count"`
	ModifiedAtUnix int64     `json:"modified_at_unix"`
	IngestedAt     time.Time `json:"ingested_at"`
}

// ObjectInfo describes one object in the remote corpus bucket.
type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
}

// ChatMessage is one turn of a conversation the client replays with each
// question; the server holds no session state.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Preview returns the first n characters of text with newlines flattened,
// suffixed with "..." when truncated.
func Preview(text string, n int) string {
	flat := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
