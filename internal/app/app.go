package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/davidmtz-dev/hrassist/internal/config"
	"github.com/davidmtz-dev/hrassist/internal/core"
	db "github.com/davidmtz-dev/hrassist/internal/core/database"
	"github.com/davidmtz-dev/hrassist/internal/core/extraction"
	"github.com/davidmtz-dev/hrassist/internal/core/ingest"
	"github.com/davidmtz-dev/hrassist/internal/core/llm"
	"github.com/davidmtz-dev/hrassist/internal/core/objectclient"
	"github.com/davidmtz-dev/hrassist/internal/core/tokenizer"
	"github.com/davidmtz-dev/hrassist/internal/services"
)

type App struct {
	Config    *config.Config
	Store     *db.ChunkCollection
	Embedder  *llm.GeminiEmbedder
	LLM       *llm.GeminiLLM
	Ingestor  *ingest.Ingestor
	Assistant *services.Assistant
	Objects   core.ObjectClient
	Server    *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the generator, %w", err)
	}

	store, err := db.NewChunkCollection(appCtx, cfg, embedder)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	var objects core.ObjectClient
	if cfg.MirrorEnabled() {
		objects, err = objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		log.Println("Object client initialized and ready.")
	}

	// Token budgets guard the embedding model's input limit, so the
	// tokenizer must match the embedding model, not the generator.
	tok, err := tokenizer.NewForModel(cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the tokenizer, %w", err)
	}

	ocr := extraction.NewTesseractOCR(cfg.OCRLanguages, cfg.OCRWorkers)
	extractors := map[string]core.TextExtractor{
		".pdf":  extraction.NewPDFExtractor(nil, ocr, cfg.MinDigitalChars, cfg.ForceOCR),
		".docx": extraction.NewDOCXExtractor(),
	}

	chunker := ingest.NewChunker(tok, cfg.TargetChunkChars, cfg.ChunkCharOverlap, cfg.MaxTokensPerChunk)
	ingestor := ingest.NewIngestor(store, extractors, chunker, tok, cfg.ForceReload)

	assistant := services.NewAssistant(store, llmProvider, cfg.TopK, cfg.MaxContextChars)

	a := &App{
		Config:    cfg,
		Store:     store,
		Embedder:  embedder,
		LLM:       llmProvider,
		Ingestor:  ingestor,
		Assistant: assistant,
		Objects:   objects,
	}
	a.Server = NewServer(cfg, a)
	return a, nil
}

// MirrorCorpus refreshes the local docs directory from the configured
// bucket. A no-op when no bucket is set.
func (a *App) MirrorCorpus(ctx context.Context) error {
	if a.Objects == nil {
		return nil
	}
	return objectclient.Mirror(ctx, a.Objects, a.Config.BucketName, a.Config.BucketPrefix, a.Config.DocsDir)
}

func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
}
