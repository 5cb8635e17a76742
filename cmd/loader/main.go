package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidmtz-dev/hrassist/internal/app"
	"github.com/davidmtz-dev/hrassist/internal/config"
)

// The loader runs one ingestion sweep over the docs directory,
// optionally refreshing it from the corpus bucket first, then exits.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer application.Close()

	if err := application.MirrorCorpus(ctx); err != nil {
		log.Fatalf("corpus mirror failed: %v", err)
	}

	stats, err := application.Ingestor.Run(ctx, cfg.DocsDir)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	if stats.FilesFailed > 0 {
		log.Printf("Ingestion finished with %d failed document(s)", stats.FilesFailed)
		os.Exit(1)
	}
	log.Println("Ingestion finished successfully.")
}
