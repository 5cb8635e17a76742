package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"code.sajari.com/docconv"

	"github.com/davidmtz-dev/hrassist/internal/core"
	"github.com/davidmtz-dev/hrassist/internal/models"
)

// DOCXExtractor pulls paragraph text out of a Word document. Non-empty
// paragraphs are joined with double newlines; no OCR applies.
type DOCXExtractor struct {
	convert func(r io.Reader) (string, map[string]string, error)
}

var _ core.TextExtractor = (*DOCXExtractor)(nil)

func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{convert: docconv.ConvertDocx}
}

func (e *DOCXExtractor) Extract(_ context.Context, path string) (models.ExtractedText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ExtractedText{}, fmt.Errorf("read %s: %w", path, err)
	}

	body, _, err := e.convert(bytes.NewReader(data))
	if err != nil {
		return models.ExtractedText{}, fmt.Errorf("parse docx %s: %w", path, err)
	}

	var paragraphs []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return models.ExtractedText{
		Text:       strings.Join(paragraphs, "\n\n"),
		Provenance: models.ProvenanceDigital,
	}, nil
}
