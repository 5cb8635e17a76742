package core

import (
	"context"

	"github.com/davidmtz-dev/hrassist/internal/models"
)

// TextExtractor recovers the raw text of a source file.
//
// An error is returned only for files unreadable at the filesystem or parser
// level; extraction that merely yields poor or empty text degrades to a
// best-effort (possibly empty) result instead of failing.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (models.ExtractedText, error)
}
