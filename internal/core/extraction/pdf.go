package extraction

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"code.sajari.com/docconv"

	"github.com/davidmtz-dev/hrassist/internal/core"
	"github.com/davidmtz-dev/hrassist/internal/models"
)

// PDFExtractor recovers text from PDFs with a digital-first policy: the
// embedded text layer is accepted only when it yields more than
// minDigitalChars of trimmed text, otherwise the OCR strategy runs. When
// OCR produces nothing usable, whatever digital text was found (possibly
// empty) is returned instead of an error.
type PDFExtractor struct {
	digital         Strategy
	ocr             Strategy
	minDigitalChars int
	forceOCR        bool
}

var _ core.TextExtractor = (*PDFExtractor)(nil)

func NewPDFExtractor(digital, ocr Strategy, minDigitalChars int, forceOCR bool) *PDFExtractor {
	if digital == nil {
		digital = &digitalPDF{}
	}
	return &PDFExtractor{digital: digital, ocr: ocr, minDigitalChars: minDigitalChars, forceOCR: forceOCR}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (models.ExtractedText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ExtractedText{}, fmt.Errorf("read %s: %w", path, err)
	}

	var digitalText string
	if !e.forceOCR {
		text, err := e.digital.Extract(ctx, data)
		if err != nil {
			log.Printf("extraction: %s: digital text extraction failed (%v), proceeding with OCR", path, err)
		} else {
			digitalText = strings.TrimSpace(text)
			if len([]rune(digitalText)) > e.minDigitalChars {
				return models.ExtractedText{Text: digitalText, Provenance: models.ProvenanceDigital}, nil
			}
			log.Printf("extraction: %s: digital text minimal or empty, proceeding with OCR", path)
		}
	}

	if e.ocr == nil {
		log.Printf("extraction: %s: OCR not available, returning digital text as-is", path)
		return models.ExtractedText{Text: digitalText, Provenance: models.ProvenanceDigital}, nil
	}

	ocrText, err := e.ocr.Extract(ctx, data)
	if err != nil {
		log.Printf("extraction: %s: OCR failed (%v), falling back to digital text", path, err)
		return models.ExtractedText{Text: digitalText, Provenance: models.ProvenanceDigital}, nil
	}
	ocrText = strings.TrimSpace(ocrText)
	if ocrText == "" {
		log.Printf("extraction: %s: OCR yielded no text, falling back to digital text", path)
		return models.ExtractedText{Text: digitalText, Provenance: models.ProvenanceDigital}, nil
	}
	return models.ExtractedText{Text: ocrText, Provenance: models.ProvenanceOCR}, nil
}

// digitalPDF reads the PDF's embedded text layer through docconv.
type digitalPDF struct{}

func (d *digitalPDF) Name() string { return "pdf-digital" }

func (d *digitalPDF) Extract(_ context.Context, data []byte) (string, error) {
	body, _, err := docconv.ConvertPDF(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return body, nil
}
