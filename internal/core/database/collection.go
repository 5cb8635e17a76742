package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/davidmtz-dev/hrassist/internal/config"
	"github.com/davidmtz-dev/hrassist/internal/core"
	"github.com/davidmtz-dev/hrassist/internal/models"
)

// ChunkCollection is the pgvector-backed chunk store. Texts are embedded
// through the injected provider on write and on query, so callers deal in
// plain strings; cosine distance orders retrieval results.
type ChunkCollection struct {
	db        *sql.DB
	name      string
	embedder  core.EmbeddingProvider
	batchSize int
}

var _ core.Collection = (*ChunkCollection)(nil)

func NewChunkCollection(ctx context.Context, cfg *config.Config, embedder core.EmbeddingProvider) (*ChunkCollection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("collection configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	sqldb, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for a batch loader plus an API service.
	sqldb.SetMaxOpenConns(20)
	sqldb.SetMaxIdleConns(10)
	sqldb.SetConnMaxLifetime(30 * time.Minute)
	sqldb.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqldb); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	batch := cfg.EmbedBatchSize
	if batch <= 0 {
		batch = 16
	}
	return &ChunkCollection{db: sqldb, name: cfg.Collection, embedder: embedder, batchSize: batch}, nil
}

func (c *ChunkCollection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Upsert embeds record texts in batches and writes them in a single
// transaction per batch.
func (c *ChunkCollection) Upsert(ctx context.Context, records []models.ChunkRecord) error {
	for start := 0; start < len(records); start += c.batchSize {
		end := start + c.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := c.upsertBatch(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *ChunkCollection) upsertBatch(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].Text
	}
	vecs, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(records) {
		return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(records))
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO document_chunks
			(id, collection, file_name, file_path, absolute_path, file_type,
			 file_size_bytes, created_at_unix, modified_at_unix, processed_at_unix,
			 chunk_number, total_chunks, char_length, token_count, preview,
			 extraction_method, document, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			embedding = EXCLUDED.embedding,
			modified_at_unix = EXCLUDED.modified_at_unix,
			processed_at_unix = EXCLUDED.processed_at_unix,
			preview = EXCLUDED.preview,
			char_length = EXCLUDED.char_length,
			token_count = EXCLUDED.token_count
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		m := &r.Metadata
		if _, err := stmt.ExecContext(ctx,
			r.ID, c.name, m.FileName, m.FilePath, m.AbsolutePath, m.FileType,
			m.FileSizeBytes, m.CreatedAtUnix, m.ModifiedAtUnix, m.ProcessedAtUnix,
			m.ChunkNumber, m.TotalChunks, m.CharLength, m.TokenCount, m.Preview,
			m.ExtractionMethod, r.Text, pgvector.NewVector(vecs[i]),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chunk %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

const metadataColumns = `
	id, file_name, file_path, absolute_path, file_type, file_size_bytes,
	created_at_unix, modified_at_unix, processed_at_unix,
	chunk_number, total_chunks, char_length, token_count, preview, extraction_method
`

func scanMetadata(rows *sql.Rows) (string, models.ChunkMetadata, error) {
	var id string
	var m models.ChunkMetadata
	err := rows.Scan(
		&id, &m.FileName, &m.FilePath, &m.AbsolutePath, &m.FileType, &m.FileSizeBytes,
		&m.CreatedAtUnix, &m.ModifiedAtUnix, &m.ProcessedAtUnix,
		&m.ChunkNumber, &m.TotalChunks, &m.CharLength, &m.TokenCount, &m.Preview, &m.ExtractionMethod,
	)
	return id, m, err
}

func (c *ChunkCollection) GetByFileName(ctx context.Context, fileName string) ([]models.StoredChunk, error) {
	q := `
		SELECT ` + metadataColumns + `
		FROM document_chunks
		WHERE collection = $1 AND file_name = $2
		ORDER BY chunk_number ASC
	`
	rows, err := c.db.QueryContext(ctx, q, c.name, fileName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StoredChunk
	for rows.Next() {
		id, m, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, models.StoredChunk{ID: id, Metadata: m})
	}
	return out, rows.Err()
}

func (c *ChunkCollection) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `DELETE FROM document_chunks WHERE collection = $1 AND id = ANY($2)`
	_, err := c.db.ExecContext(ctx, q, c.name, ids)
	return err
}

// Query embeds the query text and returns the topK nearest chunks by
// cosine distance.
func (c *ChunkCollection) Query(ctx context.Context, text string, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		topK = 3
	}
	vecs, err := c.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed query: empty result")
	}
	vec := pgvector.NewVector(vecs[0])

	q := `
		SELECT ` + metadataColumns + `, document, embedding <=> $3 AS distance
		FROM document_chunks
		WHERE collection = $1
		ORDER BY embedding <=> $3
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, c.name, topK, vec)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScoredChunk
	for rows.Next() {
		var sc models.ScoredChunk
		if err := rows.Scan(
			&sc.ID, &sc.Metadata.FileName, &sc.Metadata.FilePath, &sc.Metadata.AbsolutePath,
			&sc.Metadata.FileType, &sc.Metadata.FileSizeBytes,
			&sc.Metadata.CreatedAtUnix, &sc.Metadata.ModifiedAtUnix, &sc.Metadata.ProcessedAtUnix,
			&sc.Metadata.ChunkNumber, &sc.Metadata.TotalChunks, &sc.Metadata.CharLength,
			&sc.Metadata.TokenCount, &sc.Metadata.Preview, &sc.Metadata.ExtractionMethod,
			&sc.Text, &sc.Distance,
		); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (c *ChunkCollection) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM document_chunks WHERE collection = $1`, c.name).Scan(&n)
	return n, err
}

func (c *ChunkCollection) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	const q = `
		SELECT file_name, max(file_type), count(*), max(modified_at_unix), max(processed_at_unix)
		FROM document_chunks
		WHERE collection = $1
		GROUP BY file_name
		ORDER BY file_name ASC
	`
	rows, err := c.db.QueryContext(ctx, q, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentSummary
	for rows.Next() {
		var s models.DocumentSummary
		var processedAt int64
		if err := rows.Scan(&s.FileName, &s.FileType, &s.ChunkCount, &s.ModifiedAtUnix, &processedAt); err != nil {
			return nil, err
		}
		s.IngestedAt = time.Unix(0, processedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
