package core

import (
	"context"

	"github.com/davidmtz-dev/hrassist/internal/models"
)

// Collection abstracts the vector store holding embedded chunks, so the
// ingestion pipeline and the assistant never depend on a specific backend.
// Upsert embeds record texts through the collection's embedding provider;
// Query embeds the query text and returns the topK nearest chunks.
type Collection interface {
	Upsert(ctx context.Context, records []models.ChunkRecord) error
	GetByFileName(ctx context.Context, fileName string) ([]models.StoredChunk, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	Query(ctx context.Context, text string, topK int) ([]models.ScoredChunk, error)
	Count(ctx context.Context) (int64, error)
	ListDocuments(ctx context.Context) ([]models.DocumentSummary, error)
}

// ObjectClient defines the object-storage operations the corpus mirror
// needs. Abstract so AWS can be replaced with MinIO, GCP, etc.
type ObjectClient interface {
	ListKeys(ctx context.Context, bucket, prefix string) ([]models.ObjectInfo, error)
	Download(ctx context.Context, bucket, key, destPath string) error
}
