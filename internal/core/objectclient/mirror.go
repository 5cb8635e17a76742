package objectclient

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/davidmtz-dev/hrassist/internal/core"
)

// Mirror downloads the supported documents under bucket/prefix into
// destDir so the ingestor can read them as local files. Objects whose
// local copy is already at least as new, and at least as large, are
// left alone.
func Mirror(ctx context.Context, client core.ObjectClient, bucket, prefix, destDir string) error {
	objects, err := client.ListKeys(ctx, bucket, prefix)
	if err != nil {
		return fmt.Errorf("list corpus objects: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create docs dir: %w", err)
	}

	downloaded, skipped := 0, 0
	for _, obj := range objects {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := path.Base(obj.Key)
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".pdf" && ext != ".docx" {
			continue
		}

		dest := filepath.Join(destDir, name)
		if info, err := os.Stat(dest); err == nil {
			if !info.ModTime().Before(obj.LastModified) && info.Size() == obj.SizeBytes {
				skipped++
				continue
			}
		}

		if err := client.Download(ctx, bucket, obj.Key, dest); err != nil {
			return fmt.Errorf("download %s: %w", obj.Key, err)
		}
		downloaded++
	}

	log.Printf("Corpus mirror complete: %d downloaded, %d up to date", downloaded, skipped)
	return nil
}
